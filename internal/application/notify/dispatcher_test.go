package notify

import (
	"context"
	"testing"
	"time"

	"github.com/otp-auth-service/internal/domain"
	"github.com/otp-auth-service/internal/infrastructure/sns"
	"github.com/otp-auth-service/internal/pkg/clientinfo"
	"github.com/otp-auth-service/internal/pkg/i18n"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendEmail(to, subject, body string) error {
	return m.Called(to, subject, body).Error(0)
}

type mockAlerts struct{ mock.Mock }

func (m *mockAlerts) PublishLoginAlert(ctx context.Context, event sns.LoginAlertEvent) error {
	return m.Called(ctx, event).Error(0)
}

func newDispatcher(ml *mockMailer, al *mockAlerts) Dispatcher {
	var alerts sns.AlertPublisher
	if al != nil {
		alerts = al
	}
	return NewDispatcher(ml, alerts, i18n.Default(), 10*time.Minute)
}

// --- tests ---

func TestSendOTP_BodyContainsCodeAndLink(t *testing.T) {
	ml := &mockMailer{}
	var gotBody string
	ml.On("SendEmail", "a@b.com", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		gotBody = args.String(2)
	}).Return(nil)

	d := newDispatcher(ml, nil)
	err := d.SendOTP(context.Background(), &domain.User{Email: "a@b.com"}, "123456", "https://app/auth/verify?email=a@b.com&otp=123456")

	require.NoError(t, err)
	assert.Contains(t, gotBody, "123456")
	assert.Contains(t, gotBody, "https://app/auth/verify")
	ml.AssertExpectations(t)
}

func TestSendOTP_NoLink(t *testing.T) {
	ml := &mockMailer{}
	var gotBody string
	ml.On("SendEmail", "a@b.com", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		gotBody = args.String(2)
	}).Return(nil)

	d := newDispatcher(ml, nil)
	require.NoError(t, d.SendOTP(context.Background(), &domain.User{Email: "a@b.com"}, "123456", ""))
	assert.NotContains(t, gotBody, "http")
}

func TestSendOTP_UsesUserLocale(t *testing.T) {
	ml := &mockMailer{}
	var gotSubject string
	ml.On("SendEmail", "a@b.com", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		gotSubject = args.String(1)
	}).Return(nil)

	d := newDispatcher(ml, nil)
	user := &domain.User{Email: "a@b.com", Locale: "ar"}
	require.NoError(t, d.SendOTP(context.Background(), user, "123456", ""))
	assert.Equal(t, i18n.Default().Translate("mail.otp.subject", "ar"), gotSubject)
}

func TestSendSecurityAlert_MailAndEvent(t *testing.T) {
	ml := &mockMailer{}
	al := &mockAlerts{}
	ml.On("SendEmail", "a@b.com", mock.Anything, mock.Anything).Return(nil)
	al.On("PublishLoginAlert", mock.Anything, mock.MatchedBy(func(e sns.LoginAlertEvent) bool {
		return e.UserID == "u1" && e.Method == "otp" && e.IP == "1.2.3.4"
	})).Return(nil)

	d := newDispatcher(ml, al)
	info := clientinfo.Info{Time: time.Now().UTC(), IP: "1.2.3.4", Device: "Chrome on Windows", Location: "Unknown"}
	err := d.SendSecurityAlert(context.Background(), &domain.User{UserID: "u1", Email: "a@b.com"}, "otp", info)

	require.NoError(t, err)
	ml.AssertExpectations(t)
	al.AssertExpectations(t)
}

func TestSendSecurityAlert_PublishFailureDoesNotBlockMail(t *testing.T) {
	ml := &mockMailer{}
	al := &mockAlerts{}
	ml.On("SendEmail", "a@b.com", mock.Anything, mock.Anything).Return(nil)
	al.On("PublishLoginAlert", mock.Anything, mock.Anything).Return(assert.AnError)

	d := newDispatcher(ml, al)
	err := d.SendSecurityAlert(context.Background(), &domain.User{UserID: "u1", Email: "a@b.com"}, "otp", clientinfo.Info{Time: time.Now()})
	assert.NoError(t, err)
}
