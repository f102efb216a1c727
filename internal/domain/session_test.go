package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPushAccount_AppendsInLoginOrder(t *testing.T) {
	s := &Session{}
	s.PushAccount("a")
	s.PushAccount("b")
	assert.Equal(t, []string{"a", "b"}, s.AccountIDs)
}

func TestPushAccount_IgnoresDuplicates(t *testing.T) {
	s := &Session{AccountIDs: []string{"a", "b"}}
	s.PushAccount("a")
	assert.Equal(t, []string{"a", "b"}, s.AccountIDs)
}

func TestRemoveAccount_ToleratesAbsent(t *testing.T) {
	s := &Session{AccountIDs: []string{"a"}}
	s.RemoveAccount("zzz")
	assert.Equal(t, []string{"a"}, s.AccountIDs)
}

func TestNextAccount_PicksOldestSurviving(t *testing.T) {
	s := &Session{AccountIDs: []string{"a", "b", "c"}}
	s.RemoveAccount("b")
	next, ok := s.NextAccount()
	assert.True(t, ok)
	assert.Equal(t, "a", next)
}

func TestNextAccount_EmptyStack(t *testing.T) {
	s := &Session{}
	_, ok := s.NextAccount()
	assert.False(t, ok)
}

func TestTakeFlash_Drains(t *testing.T) {
	s := &Session{}
	s.PutFlash("success", "logged in")
	f := s.TakeFlash()
	assert.Equal(t, "success", f.Kind)
	assert.Nil(t, s.TakeFlash())
}
