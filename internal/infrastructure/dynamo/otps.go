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

// OTPRepo manages one-time-password records.
// PK: user_id, SK: otp_id (ULID — sorts by creation time).
// expires_at is a Unix timestamp used as DynamoDB TTL.
type OTPRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewOTPRepo(client *dynamodb.Client, tableName string) *OTPRepo {
	return &OTPRepo{client: client, tableName: tableName}
}

func (r *OTPRepo) Put(ctx context.Context, o *domain.OneTimePassword) error {
	item, err := attributevalue.MarshalMap(o)
	if err != nil {
		return fmt.Errorf("marshal otp: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// GetNewest returns the most recently issued unconsumed OTP for the user.
// Resend creates new records; only the newest one is authoritative.
func (r *OTPRepo) GetNewest(ctx context.Context, userID string) (*domain.OneTimePassword, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("user_id = :uid"),
		FilterExpression:       aws.String("attribute_not_exists(consumed_at)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(10),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("otp not found: %w", domain.ErrNotFound)
	}
	var o domain.OneTimePassword
	if err := attributevalue.UnmarshalMap(out.Items[0], &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// Consume marks the OTP consumed with a compare-and-set: the conditional
// update succeeds for at most one caller, so two requests racing with the
// same code cannot both log in.
func (r *OTPRepo) Consume(ctx context.Context, userID, otpID string) error {
	consumedAt, err := attributevalue.Marshal(time.Now().UTC())
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       compositeKey("user_id", userID, "otp_id", otpID),
		UpdateExpression:          aws.String("SET consumed_at = :t"),
		ConditionExpression:       aws.String("attribute_not_exists(consumed_at)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":t": consumedAt},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("otp already consumed: %w", domain.ErrInvalidOTP)
		}
		return err
	}
	return nil
}
