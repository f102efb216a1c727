package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/otp-auth-service/internal/domain"
	"github.com/otp-auth-service/internal/infrastructure/sns"
	"github.com/otp-auth-service/internal/pkg/clientinfo"
	"github.com/otp-auth-service/internal/pkg/i18n"
)

// Mailer is the outbound mail collaborator.
type Mailer interface {
	SendEmail(to, subject, body string) error
}

// Dispatcher sends all auth-related notifications. The orchestrator calls it
// but never implements delivery itself, so core logic stays testable without
// a real transport.
type Dispatcher interface {
	// SendOTP delivers the login code. verifyURL may be empty; when set it is
	// a deep-link with the code embedded, delivered only via the mail channel.
	SendOTP(ctx context.Context, user *domain.User, code, verifyURL string) error
	// SendSecurityAlert notifies the user of a successful login and publishes
	// the machine-readable event.
	SendSecurityAlert(ctx context.Context, user *domain.User, method string, info clientinfo.Info) error
	// SendWelcome greets a newly created account.
	SendWelcome(ctx context.Context, user *domain.User) error
}

type dispatcher struct {
	mailer     Mailer
	alerts     sns.AlertPublisher
	translator i18n.Translator
	otpTTL     time.Duration
}

func NewDispatcher(mailer Mailer, alerts sns.AlertPublisher, translator i18n.Translator, otpTTL time.Duration) Dispatcher {
	return &dispatcher{mailer: mailer, alerts: alerts, translator: translator, otpTTL: otpTTL}
}

func (d *dispatcher) SendOTP(_ context.Context, user *domain.User, code, verifyURL string) error {
	locale := userLocale(user)
	subject := d.translator.Translate("mail.otp.subject", locale)
	body := fmt.Sprintf(d.translator.Translate("mail.otp.body", locale), code, int(d.otpTTL.Minutes()))
	if verifyURL != "" {
		body += "\n\n" + fmt.Sprintf(d.translator.Translate("mail.otp.link", locale), verifyURL)
	}
	return d.mailer.SendEmail(user.Email, subject, body)
}

func (d *dispatcher) SendSecurityAlert(ctx context.Context, user *domain.User, method string, info clientinfo.Info) error {
	if d.alerts != nil {
		event := sns.LoginAlertEvent{
			UserID:   user.UserID,
			Email:    user.Email,
			Method:   method,
			Time:     info.Time.Format(time.RFC3339),
			IP:       info.IP,
			Device:   info.Device,
			Location: info.Location,
		}
		if err := d.alerts.PublishLoginAlert(ctx, event); err != nil {
			slog.Warn("failed to publish login alert", "user_id", user.UserID, "err", err)
		}
	}

	locale := userLocale(user)
	subject := d.translator.Translate("mail.security.subject", locale)
	body := fmt.Sprintf(d.translator.Translate("mail.security.body", locale),
		info.Time.Format(time.RFC1123), info.IP, info.Device, info.Location)
	return d.mailer.SendEmail(user.Email, subject, body)
}

func (d *dispatcher) SendWelcome(_ context.Context, user *domain.User) error {
	locale := userLocale(user)
	subject := d.translator.Translate("mail.welcome.subject", locale)
	body := fmt.Sprintf(d.translator.Translate("mail.welcome.body", locale), user.Name)
	return d.mailer.SendEmail(user.Email, subject, body)
}

func userLocale(u *domain.User) string {
	if u.Locale != "" {
		return u.Locale
	}
	return "en"
}
