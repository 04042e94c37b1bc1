package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/storefront-auth/internal/dto"
	"github.com/prperemyshlev/storefront-auth/internal/service"
	"go.uber.org/zap"
)

// Token headers. Each token kind travels in its own header.
const (
	HeaderAccessToken        = "access-token"
	HeaderRefreshToken       = "refresh-token"
	HeaderOtpToken           = "otp-token"
	HeaderSetupPasswordToken = "setup-password-token"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	authService service.AuthService
	logger      *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// SignIn handles sign-in with email, user name or phone number
// @Summary Sign in
// @Description Returns tokens for a trusted device, otherwise an otp token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.SignInRequest true "Sign-in request"
// @Success 200 {object} dto.AuthResult
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /auth/sign-in [post]
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req dto.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}

	result, err := h.authService.SignInWithAnyMethod(c.Request.Context(), c.ClientIP(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// VerifySignInOtp redeems a sign-in challenge
// @Summary Verify sign-in OTP
// @Tags auth
// @Accept json
// @Produce json
// @Param otp-token header string true "OTP token"
// @Param request body dto.OtpCodeRequest true "OTP code"
// @Success 200 {object} dto.AuthResult
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /auth/sign-in/verify-otp [post]
func (h *AuthHandler) VerifySignInOtp(c *gin.Context) {
	otpToken, ok := requireHeader(c, HeaderOtpToken)
	if !ok {
		return
	}

	var req dto.OtpCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}

	result, err := h.authService.VerifyOtpTokenSignInWithAnyMethod(
		c.Request.Context(), c.ClientIP(), c.Request.UserAgent(), otpToken, req.OtpCode,
	)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Refresh issues a new access token
// @Summary Refresh access token
// @Tags auth
// @Produce json
// @Param refresh-token header string true "Refresh token"
// @Success 200 {object} dto.TokenResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken, ok := requireHeader(c, HeaderRefreshToken)
	if !ok {
		return
	}

	result, err := h.authService.RefreshToken(c.Request.Context(), c.ClientIP(), refreshToken)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Verify returns the user snapshot carried by an access token
// @Summary Verify access token
// @Tags auth
// @Produce json
// @Param access-token header string true "Access token"
// @Success 200 {object} dto.UserResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /auth/verify [get]
func (h *AuthHandler) Verify(c *gin.Context) {
	accessToken, ok := requireHeader(c, HeaderAccessToken)
	if !ok {
		return
	}

	claims, err := h.authService.VerifyAccessToken(c.Request.Context(), accessToken)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.UserResponseFromClaims(claims))
}

// SignUp starts a phone sign-up
// @Summary Sign up with phone number
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.SignUpRequest true "Sign-up request"
// @Success 200 {object} dto.OtpTokenResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /auth/sign-up [post]
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req dto.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}

	result, err := h.authService.SignUpWithPhoneNumber(c.Request.Context(), c.ClientIP(), req.PhoneNumber, req.CountryCode)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// VerifySignUpOtp exchanges a sign-up OTP for a setup-password token
// @Summary Verify sign-up OTP
// @Tags auth
// @Accept json
// @Produce json
// @Param otp-token header string true "OTP token"
// @Param request body dto.OtpCodeRequest true "OTP code"
// @Success 200 {object} dto.SetupPasswordTokenResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /auth/sign-up/verify-otp [post]
func (h *AuthHandler) VerifySignUpOtp(c *gin.Context) {
	otpToken, ok := requireHeader(c, HeaderOtpToken)
	if !ok {
		return
	}

	var req dto.OtpCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}

	result, err := h.authService.VerifyOtpTokenSignUpWithPhoneNumber(c.Request.Context(), c.ClientIP(), otpToken, req.OtpCode)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// SetupPassword completes a sign-up
// @Summary Set password and create the account
// @Tags auth
// @Accept json
// @Produce json
// @Param setup-password-token header string true "Setup password token"
// @Param request body dto.SetupPasswordRequest true "Password"
// @Success 201 {object} dto.AuthResult
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /auth/sign-up/setup-password [post]
func (h *AuthHandler) SetupPassword(c *gin.Context) {
	setupToken, ok := requireHeader(c, HeaderSetupPasswordToken)
	if !ok {
		return
	}

	var req dto.SetupPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}

	result, err := h.authService.SetupPasswordForSignUpWithPhoneNumber(
		c.Request.Context(), c.ClientIP(), c.Request.UserAgent(), setupToken, req.Password,
	)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// RequestPasswordReset sends a reset OTP
// @Summary Request password reset
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.PasswordResetRequest true "Account"
// @Success 200 {object} dto.OtpTokenResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /auth/password-reset [post]
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req dto.PasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}

	result, err := h.authService.RequestPasswordReset(c.Request.Context(), c.ClientIP(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// VerifyPasswordResetOtp exchanges a reset OTP for a setup-password token
// @Summary Verify password reset OTP
// @Tags auth
// @Accept json
// @Produce json
// @Param otp-token header string true "OTP token"
// @Param request body dto.OtpCodeRequest true "OTP code"
// @Success 200 {object} dto.SetupPasswordTokenResponse
// @Router /auth/password-reset/verify-otp [post]
func (h *AuthHandler) VerifyPasswordResetOtp(c *gin.Context) {
	otpToken, ok := requireHeader(c, HeaderOtpToken)
	if !ok {
		return
	}

	var req dto.OtpCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}

	result, err := h.authService.VerifyOtpTokenResetPassword(c.Request.Context(), c.ClientIP(), otpToken, req.OtpCode)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// SetupNewPassword finishes a password reset
// @Summary Set a new password
// @Tags auth
// @Accept json
// @Produce json
// @Param setup-password-token header string true "Setup password token"
// @Param request body dto.SetupPasswordRequest true "Password"
// @Success 200 {object} dto.SuccessResponse
// @Router /auth/password-reset/setup-password [post]
func (h *AuthHandler) SetupNewPassword(c *gin.Context) {
	setupToken, ok := requireHeader(c, HeaderSetupPasswordToken)
	if !ok {
		return
	}

	var req dto.SetupPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}

	result, err := h.authService.SetupNewPassword(c.Request.Context(), c.ClientIP(), setupToken, req.Password)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
