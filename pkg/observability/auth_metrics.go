package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Metric result labels
const (
	ResultSuccess   = "success"
	ResultChallenge = "challenge"
	ResultFailure   = "failure"
)

// AuthMetrics holds the counters recorded by the auth flows.
type AuthMetrics struct {
	signIn           metric.Int64Counter
	otpChallenges    metric.Int64Counter
	otpVerifications metric.Int64Counter
	tokensIssued     metric.Int64Counter
}

// NewAuthMetrics registers the auth counters on meter
func NewAuthMetrics(meter metric.Meter) (*AuthMetrics, error) {
	signIn, err := meter.Int64Counter("auth.sign_in",
		metric.WithDescription("Sign-in attempts by result"))
	if err != nil {
		return nil, fmt.Errorf("failed to create sign-in counter: %w", err)
	}

	otpChallenges, err := meter.Int64Counter("auth.otp.challenges",
		metric.WithDescription("OTP challenges issued by flow"))
	if err != nil {
		return nil, fmt.Errorf("failed to create otp challenge counter: %w", err)
	}

	otpVerifications, err := meter.Int64Counter("auth.otp.verifications",
		metric.WithDescription("OTP verifications by flow and result"))
	if err != nil {
		return nil, fmt.Errorf("failed to create otp verification counter: %w", err)
	}

	tokensIssued, err := meter.Int64Counter("auth.tokens.issued",
		metric.WithDescription("Signed tokens issued by kind"))
	if err != nil {
		return nil, fmt.Errorf("failed to create token counter: %w", err)
	}

	return &AuthMetrics{
		signIn:           signIn,
		otpChallenges:    otpChallenges,
		otpVerifications: otpVerifications,
		tokensIssued:     tokensIssued,
	}, nil
}

// NoopAuthMetrics returns counters that record nothing
func NoopAuthMetrics() *AuthMetrics {
	m, _ := NewAuthMetrics(noop.NewMeterProvider().Meter("noop"))
	return m
}

func (m *AuthMetrics) SignIn(ctx context.Context, result string) {
	m.signIn.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

func (m *AuthMetrics) OTPChallenge(ctx context.Context, flow string) {
	m.otpChallenges.Add(ctx, 1, metric.WithAttributes(attribute.String("flow", flow)))
}

func (m *AuthMetrics) OTPVerification(ctx context.Context, flow, result string) {
	m.otpVerifications.Add(ctx, 1, metric.WithAttributes(
		attribute.String("flow", flow),
		attribute.String("result", result),
	))
}

func (m *AuthMetrics) TokensIssued(ctx context.Context, kind string) {
	m.tokensIssued.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}
