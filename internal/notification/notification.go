// Package notification delivers one-time codes out of band.
package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/prperemyshlev/storefront-auth/internal/config"
	"go.uber.org/zap"
)

// ErrSendFailed is returned when a message could not be handed to the provider.
var ErrSendFailed = errors.New("failed to send message")

const otpMessageFormat = "Your AusVie verification code is: %s"

// Sink sends a text message to a phone number in E.164 form.
type Sink interface {
	Send(ctx context.Context, phoneE164, message string) error
}

// OTPMessage renders the text sent with a verification code
func OTPMessage(code string) string {
	return fmt.Sprintf(otpMessageFormat, code)
}

// New builds the sink selected by cfg.Provider
func New(cfg config.SMSConfig, logger *zap.Logger) (Sink, error) {
	switch cfg.Provider {
	case "twilio":
		return NewTwilioSink(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFrom, logger), nil
	case "log", "":
		return NewLogSink(logger), nil
	default:
		return nil, fmt.Errorf("unknown sms provider %q", cfg.Provider)
	}
}
