package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/otp-auth-service/internal/domain"
)

// UserRepo provides typed DynamoDB operations for the users table plus the
// email-keyed uniqueness table that backs atomic find-or-create.
type UserRepo struct {
	client      *dynamodb.Client
	tableName   string
	emailsTable string
}

func NewUserRepo(client *dynamodb.Client, tableName, emailsTable string) *UserRepo {
	return &UserRepo{client: client, tableName: tableName, emailsTable: emailsTable}
}

func (r *UserRepo) Put(ctx context.Context, u *domain.User) error {
	item, err := attributevalue.MarshalMap(u)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *UserRepo) Get(ctx context.Context, userID string) (*domain.User, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("user_id", userID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	var u domain.User
	if err := attributevalue.UnmarshalMap(out.Item, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String("email-index"),
		KeyConditionExpression:    aws.String("#a = :v"),
		ExpressionAttributeNames:  map[string]string{"#a": "email"},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: email}},
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	var u domain.User
	if err := attributevalue.UnmarshalMap(out.Items[0], &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// EnsureByEmail atomically finds or creates the user owning email.
//
// A conditional PutItem on the uniqueness table claims the email; exactly one
// of two concurrent first-time logins wins the claim, the loser reads the
// winner's mapping. build is only invoked when the claim succeeds.
// Returns the user and whether it was created by this call.
func (r *UserRepo) EnsureByEmail(ctx context.Context, email string, build func() *domain.User) (*domain.User, bool, error) {
	u := build()
	u.Email = email

	claim := map[string]types.AttributeValue{
		"email":   &types.AttributeValueMemberS{Value: email},
		"user_id": &types.AttributeValueMemberS{Value: u.UserID},
	}
	_, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.emailsTable),
		Item:                claim,
		ConditionExpression: aws.String("attribute_not_exists(email)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if !errors.As(err, &ccf) {
			return nil, false, fmt.Errorf("claim email: %w", err)
		}
		existing, err := r.lookupEmail(ctx, email)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}

	if err := r.Put(ctx, u); err != nil {
		return nil, false, err
	}
	return u, true, nil
}

func (r *UserRepo) lookupEmail(ctx context.Context, email string) (*domain.User, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.emailsTable),
		Key:       strKey("email", email),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("email mapping missing: %w", domain.ErrNotFound)
	}
	idAttr, ok := out.Item["user_id"].(*types.AttributeValueMemberS)
	if !ok {
		return nil, fmt.Errorf("email mapping malformed: %w", domain.ErrNotFound)
	}
	return r.Get(ctx, idAttr.Value)
}

func (r *UserRepo) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("user_id", userID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}
