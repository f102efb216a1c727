package sns

import (
	"context"
	"encoding/json"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/otp-auth-service/internal/config"
)

// AlertPublisher publishes machine-readable security events to an SNS topic.
// Mail carries the user-facing copy; this feed is for downstream consumers
// (audit pipeline, anomaly detection).
type AlertPublisher interface {
	PublishLoginAlert(ctx context.Context, event LoginAlertEvent) error
}

// LoginAlertEvent is the payload published on every successful login.
type LoginAlertEvent struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Method   string `json:"method"` // "otp" | "google" | "microsoft" | "switch"
	Time     string `json:"time"`
	IP       string `json:"ip"`
	Device   string `json:"device"`
	Location string `json:"location"`
}

type publisher struct {
	client   *sns.Client
	topicARN string
}

func NewPublisher(cfg *config.Config) (AlertPublisher, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.AWSRegion),
	)
	if err != nil {
		return nil, err
	}
	return &publisher{client: sns.NewFromConfig(awsCfg), topicARN: cfg.AlertTopicARN}, nil
}

func (p *publisher) PublishLoginAlert(ctx context.Context, event LoginAlertEvent) error {
	if p.topicARN == "" {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	msg := string(payload)
	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: &p.topicARN,
		Message:  &msg,
	})
	return err
}
