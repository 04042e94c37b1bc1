package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prperemyshlev/storefront-auth/internal/domain"
	"github.com/prperemyshlev/storefront-auth/internal/dto"
	"github.com/prperemyshlev/storefront-auth/internal/notification"
	"github.com/prperemyshlev/storefront-auth/internal/repository"
	"github.com/prperemyshlev/storefront-auth/internal/utils"
	"github.com/prperemyshlev/storefront-auth/pkg/observability"
	"go.uber.org/zap"
)

const otpLength = 6

// authService implements AuthService interface
type authService struct {
	users      repository.UserRepository
	tokens     repository.SpecialTokenRepository
	tx         repository.Transactor
	gate       *DeviceGate
	jwtManager *utils.JWTManager
	sink       notification.Sink
	otpLimiter *OTPLimiter
	metrics    *observability.AuthMetrics
	logger     *zap.Logger
	bcryptCost int
}

// NewAuthService creates a new auth service
func NewAuthService(
	repos *repository.Repositories,
	tx repository.Transactor,
	jwtManager *utils.JWTManager,
	sink notification.Sink,
	otpLimiter *OTPLimiter,
	metrics *observability.AuthMetrics,
	logger *zap.Logger,
	bcryptCost int,
) AuthService {
	return &authService{
		users:      repos.User,
		tokens:     repos.SpecialToken,
		tx:         tx,
		gate:       NewDeviceGate(repos.Device, logger),
		jwtManager: jwtManager,
		sink:       sink,
		otpLimiter: otpLimiter,
		metrics:    metrics,
		logger:     logger,
		bcryptCost: bcryptCost,
	}
}

// SignInWithAnyMethod checks credentials and either issues tokens for a
// trusted device or starts an OTP challenge.
func (s *authService) SignInWithAnyMethod(ctx context.Context, ip string, req *dto.SignInRequest) (*dto.AuthResult, error) {
	user, err := s.resolveUser(ctx, req.User, req.CountryCode)
	if err != nil {
		s.metrics.SignIn(ctx, observability.ResultFailure)
		return nil, err
	}

	if !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		s.metrics.SignIn(ctx, observability.ResultFailure)
		return nil, unauthorized("invalid credentials")
	}

	device, trusted, err := s.gate.Check(ctx, user.ID, ip)
	if err != nil {
		return nil, err
	}

	if trusted {
		s.metrics.SignIn(ctx, observability.ResultSuccess)
		return s.issueAuthResult(ctx, user, device)
	}

	if !user.HasPhone() {
		s.metrics.SignIn(ctx, observability.ResultFailure)
		return nil, badRequest("new device needs verification but no phone number is on file")
	}

	deliverTo, err := utils.FormatE164(*user.PhoneNumber, *user.CountryCode)
	if err != nil {
		return nil, fmt.Errorf("stored phone number is invalid: %w", err)
	}

	otpToken, err := s.issueChallenge(ctx, ip, challenge{
		provider:  domain.SpecialProviderSignIn,
		userID:    user.ID,
		deliverTo: deliverTo,
	})
	if err != nil {
		return nil, err
	}

	s.metrics.SignIn(ctx, observability.ResultChallenge)
	return &dto.AuthResult{OtpToken: otpToken}, nil
}

// VerifyOtpTokenSignInWithAnyMethod redeems a sign-in challenge, trusts the
// device and issues tokens.
func (s *authService) VerifyOtpTokenSignInWithAnyMethod(ctx context.Context, ip, userAgent, otpToken, otpCode string) (*dto.AuthResult, error) {
	claims, row, err := s.checkOTP(ctx, ip, otpToken, otpCode, domain.SpecialProviderSignIn)
	if err != nil {
		return nil, err
	}

	if row.UserID == nil || *row.UserID != claims.UID {
		return nil, badRequest("token does not match its challenge")
	}

	user, err := s.getUser(ctx, claims.UID)
	if err != nil {
		return nil, err
	}

	var device *domain.Device
	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		if err := s.consume(ctx, repos.SpecialToken, row.ID, domain.SpecialProviderSignIn); err != nil {
			return err
		}

		var err error
		device, err = s.gate.With(repos.Device).Trust(ctx, claims.UID, ip, userAgent)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.clearAttempts(ctx, row.ID)

	return s.issueAuthResult(ctx, user, device)
}

// RefreshToken mints a new access token for a trusted device. The refresh
// token is pinned to the address recorded on its device and is not rotated.
func (s *authService) RefreshToken(ctx context.Context, ip, refreshToken string) (*dto.TokenResponse, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, unauthorized("invalid or expired refresh token")
	}

	if err := validateID(claims.UID, "user id"); err != nil {
		return nil, err
	}
	if err := validateID(claims.DeviceID, "device id"); err != nil {
		return nil, err
	}

	user, err := s.getUser(ctx, claims.UID)
	if err != nil {
		return nil, err
	}

	device, err := s.gate.Bound(ctx, claims.DeviceID, user.ID)
	if err != nil {
		return nil, err
	}

	if device.IP != ip {
		return nil, badRequest("refresh token was issued to another address")
	}

	accessToken, err := s.jwtManager.GenerateAccessToken(user)
	if err != nil {
		return nil, err
	}
	s.metrics.TokensIssued(ctx, "access")

	return &dto.TokenResponse{AccessToken: accessToken}, nil
}

// VerifyAccessToken decodes an access token
func (s *authService) VerifyAccessToken(_ context.Context, accessToken string) (*domain.AccessTokenClaims, error) {
	claims, err := s.jwtManager.ValidateAccessToken(accessToken)
	if err != nil {
		return nil, unauthorized("invalid or expired access token")
	}
	return claims, nil
}

// resolveUser finds the account a sign-in or reset identifier names
func (s *authService) resolveUser(ctx context.Context, identifier, countryCode string) (*domain.User, error) {
	return findUser(ctx, s.users, identifier, countryCode)
}

func (s *authService) getUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("user not found")
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// issueAuthResult signs an access and a device-bound refresh token
func (s *authService) issueAuthResult(ctx context.Context, user *domain.User, device *domain.Device) (*dto.AuthResult, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(user)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID, device.ID)
	if err != nil {
		return nil, err
	}

	s.metrics.TokensIssued(ctx, "access")
	s.metrics.TokensIssued(ctx, "refresh")

	return &dto.AuthResult{
		UserResponse: dto.NewUserResponse(user),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// challenge describes an OTP challenge. Challenges for an existing user are
// bound to userID, sign-up challenges to the phone number.
type challenge struct {
	provider    domain.SpecialProvider
	userID      string
	phoneNumber string
	countryCode string
	deliverTo   string
}

// issueChallenge replaces any live challenge of the same flow and identity
// with a new one, sends the code and returns the signed otp token.
func (s *authService) issueChallenge(ctx context.Context, ip string, c challenge) (string, error) {
	code, err := utils.GenerateOTP(otpLength)
	if err != nil {
		return "", err
	}

	hash, err := utils.HashOTP(code)
	if err != nil {
		return "", err
	}

	row := &domain.SpecialToken{
		Provider:  c.provider,
		OTPHash:   &hash,
		ExpiresAt: time.Now().Add(s.jwtManager.SpecialTokenExpiry()),
	}
	claims := &domain.SpecialTokenClaims{
		Provider: c.provider,
		IP:       ip,
	}

	if c.userID != "" {
		row.UserID = &c.userID
		claims.UID = c.userID
	} else {
		row.PhoneNumber = &c.phoneNumber
		row.CountryCode = &c.countryCode
		claims.PhoneNumber = c.phoneNumber
		claims.CountryCode = c.countryCode
	}

	if err := s.tokens.Replace(ctx, row); err != nil {
		return "", err
	}
	claims.OID = row.ID

	token, err := s.jwtManager.GenerateSpecialToken(claims)
	if err != nil {
		return "", err
	}

	if err := s.sink.Send(ctx, c.deliverTo, notification.OTPMessage(code)); err != nil {
		s.logger.Warn("Failed to deliver OTP",
			zap.String("flow", string(c.provider)),
			zap.String("token_id", row.ID),
			zap.Error(err),
		)
		return "", fmt.Errorf("%w: could not deliver verification code", ErrNotificationFailed)
	}

	s.metrics.OTPChallenge(ctx, string(c.provider))
	s.logger.Info("OTP challenge issued",
		zap.String("flow", string(c.provider)),
		zap.String("token_id", row.ID),
		zap.String("ip", ip),
	)

	return token, nil
}

// checkOTP validates an otp token for flow and compares the code with the
// stored hash. The row is left in place; callers consume it once they act.
func (s *authService) checkOTP(ctx context.Context, ip, otpToken, otpCode string, flow domain.SpecialProvider) (*domain.SpecialTokenClaims, *domain.SpecialToken, error) {
	claims, err := s.parseSpecialToken(otpToken, flow)
	if err != nil {
		return nil, nil, err
	}

	if claims.IP != ip {
		return nil, nil, badRequest("token was issued to another address")
	}

	if err := validateID(claims.OID, "token id"); err != nil {
		return nil, nil, err
	}

	allowed, err := s.otpLimiter.Allowed(ctx, claims.OID)
	if err != nil {
		return nil, nil, err
	}
	if !allowed {
		s.metrics.OTPVerification(ctx, string(flow), observability.ResultFailure)
		return nil, nil, unauthorized("too many wrong codes, request a new one")
	}

	row, err := s.tokens.GetByID(ctx, claims.OID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, unauthorized("token was already used or has expired")
	}
	if err != nil {
		return nil, nil, err
	}

	if row.OTPHash == nil || !utils.CheckOTP(otpCode, *row.OTPHash) {
		if _, err := s.otpLimiter.RecordFailure(ctx, row.ID, time.Until(row.ExpiresAt)); err != nil {
			s.logger.Warn("Failed to record OTP attempt", zap.String("token_id", row.ID), zap.Error(err))
		}
		s.metrics.OTPVerification(ctx, string(flow), observability.ResultFailure)
		return nil, nil, unauthorized("wrong verification code")
	}

	if row.Provider != flow {
		return nil, nil, badRequest("token was issued for another flow")
	}

	s.metrics.OTPVerification(ctx, string(flow), observability.ResultSuccess)
	return claims, row, nil
}

// parseSpecialToken maps codec failures to flow errors
func (s *authService) parseSpecialToken(token string, flow domain.SpecialProvider) (*domain.SpecialTokenClaims, error) {
	claims, err := s.jwtManager.ValidateSpecialToken(token, flow)
	if errors.Is(err, utils.ErrTokenWrongProvider) {
		return nil, badRequest("token was issued for another flow")
	}
	if err != nil {
		return nil, unauthorized("invalid or expired token")
	}
	return claims, nil
}

// consume deletes the row so the token cannot be redeemed again. Losing a
// race against a concurrent redemption is reported as Unauthorized.
func (s *authService) consume(ctx context.Context, tokens repository.SpecialTokenRepository, id string, flow domain.SpecialProvider) error {
	_, err := tokens.Consume(ctx, id, flow)
	if errors.Is(err, repository.ErrNotFound) {
		return unauthorized("token was already used or has expired")
	}
	return err
}

// clearAttempts drops the wrong-code counter of a redeemed challenge. Call it
// only after the consuming transaction committed.
func (s *authService) clearAttempts(ctx context.Context, id string) {
	if err := s.otpLimiter.Reset(ctx, id); err != nil {
		s.logger.Warn("Failed to reset OTP attempts", zap.String("token_id", id), zap.Error(err))
	}
}

func validateID(id, what string) error {
	if _, err := uuid.Parse(id); err != nil {
		return badRequest("malformed " + what)
	}
	return nil
}

func samePhone(row *domain.SpecialToken, claims *domain.SpecialTokenClaims) bool {
	return row.PhoneNumber != nil && row.CountryCode != nil &&
		*row.PhoneNumber == claims.PhoneNumber && *row.CountryCode == claims.CountryCode
}
