package notification

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
)

type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioSink sends SMS through the Twilio Messages API.
type TwilioSink struct {
	api    messageCreator
	from   string
	logger *zap.Logger
}

// NewTwilioSink creates a sink authenticated with an account SID and auth token
func NewTwilioSink(accountSID, authToken, from string, logger *zap.Logger) *TwilioSink {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return newTwilioSink(client.Api, from, logger)
}

func newTwilioSink(api messageCreator, from string, logger *zap.Logger) *TwilioSink {
	return &TwilioSink{
		api:    api,
		from:   from,
		logger: logger.Named("sms"),
	}
}

func (s *TwilioSink) Send(ctx context.Context, phoneE164, message string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(phoneE164)
	params.SetFrom(s.from)
	params.SetBody(message)

	resp, err := s.api.CreateMessage(params)
	if err != nil {
		s.logger.Warn("Twilio rejected message", zap.String("to", phoneE164), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	sid := ""
	if resp != nil && resp.Sid != nil {
		sid = *resp.Sid
	}
	s.logger.Debug("SMS sent", zap.String("to", phoneE164), zap.String("sid", sid))

	return nil
}
