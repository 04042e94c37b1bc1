package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

const (
	minSecretLength = 32

	envProduction = "production"
)

type Config struct {
	Server   ServerConfig   `env:",prefix=SERVER_"`
	Postgres PostgresConfig `env:",prefix=POSTGRES_"`
	Redis    RedisConfig    `env:",prefix=REDIS_"`
	JWT      JWTConfig      `env:",prefix=JWT_"`
	Security SecurityConfig `env:",prefix="`
	SMS      SMSConfig      `env:",prefix=SMS_"`
	CORS     CORSConfig     `env:",prefix=CORS_"`
	Env      string         `env:"ENV,default=development"`
}

type ServerConfig struct {
	Port         string   `env:"PORT,default=8080"`
	Host         string   `env:"HOST,default=0.0.0.0"`
	ReadTimeout  Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout Duration `env:"WRITE_TIMEOUT,default=15s"`

	// TrustedProxies lists the proxy IPs or CIDRs whose forwarding headers
	// are believed. Empty means the peer address is the client address.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
}

type PostgresConfig struct {
	Host     string `env:"HOST,default=localhost"`
	Port     string `env:"PORT,default=5432"`
	User     string `env:"USER,default=storefront_auth"`
	Password string `env:"PASSWORD,default=storefront_auth_password"`
	DBName   string `env:"DB,default=storefront_auth_db"`
	SSLMode  string `env:"SSLMODE,default=disable"`
}

type RedisConfig struct {
	Host     string `env:"HOST,default=localhost"`
	Port     string `env:"PORT,default=6379"`
	Password string `env:"PASSWORD,default="`
	DB       int    `env:"DB,default=0"`
}

// JWTConfig holds one secret and one expiry per token family. The three
// families never share a secret.
type JWTConfig struct {
	AccessSecret       string   `env:"ACCESS_SECRET,required"`
	RefreshSecret      string   `env:"REFRESH_SECRET,required"`
	SpecialSecret      string   `env:"SPECIAL_SECRET,required"`
	AccessTokenExpiry  Duration `env:"ACCESS_TOKEN_EXPIRY,default=15m"`
	RefreshTokenExpiry Duration `env:"REFRESH_TOKEN_EXPIRY,default=30d"`
	SpecialTokenExpiry Duration `env:"SPECIAL_TOKEN_EXPIRY,default=5m"`
}

type SecurityConfig struct {
	BCryptCost                int      `env:"BCRYPT_COST,default=12"`
	RateLimitRequests         int      `env:"RATE_LIMIT_REQUESTS,default=10"`
	RateLimitWindow           Duration `env:"RATE_LIMIT_WINDOW,default=1m"`
	OTPMaxAttempts            int      `env:"OTP_MAX_ATTEMPTS,default=5"`
	SpecialTokenSweepInterval Duration `env:"SPECIAL_TOKEN_SWEEP_INTERVAL,default=10m"`
}

// SMSConfig selects the OTP delivery channel. Provider "log" writes codes to
// the application log and is meant for local development only.
type SMSConfig struct {
	Provider         string `env:"PROVIDER,default=log"`
	TwilioAccountSID string `env:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken  string `env:"TWILIO_AUTH_TOKEN"`
	TwilioFrom       string `env:"TWILIO_FROM"`
}

type CORSConfig struct {
	AllowedOrigins []string `env:"ALLOWED_ORIGINS,default=http://localhost:3000"`
	AllowedMethods []string `env:"ALLOWED_METHODS,default=GET,POST,PATCH,OPTIONS"`
	AllowedHeaders []string `env:"ALLOWED_HEADERS,default=Content-Type,access-token,refresh-token,otp-token,setup-password-token"`
}

// DSN returns PostgreSQL connection string
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

// Address returns Redis connection address
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// Validate checks the JWT secrets: each must be long enough and no two token
// families may share a secret.
func (j JWTConfig) Validate() error {
	secrets := map[string]string{
		"JWT_ACCESS_SECRET":  j.AccessSecret,
		"JWT_REFRESH_SECRET": j.RefreshSecret,
		"JWT_SPECIAL_SECRET": j.SpecialSecret,
	}
	for name, secret := range secrets {
		if len(secret) < minSecretLength {
			return fmt.Errorf("%s must be at least %d characters long", name, minSecretLength)
		}
	}

	if j.AccessSecret == j.RefreshSecret || j.AccessSecret == j.SpecialSecret || j.RefreshSecret == j.SpecialSecret {
		return fmt.Errorf("JWT secrets must be distinct per token type")
	}

	return nil
}

func (s SMSConfig) Validate() error {
	switch s.Provider {
	case "log":
		return nil
	case "twilio":
		if s.TwilioAccountSID == "" || s.TwilioAuthToken == "" || s.TwilioFrom == "" {
			return fmt.Errorf("SMS_TWILIO_ACCOUNT_SID, SMS_TWILIO_AUTH_TOKEN and SMS_TWILIO_FROM are required for twilio provider")
		}
		return nil
	default:
		return fmt.Errorf("unknown SMS_PROVIDER %q", s.Provider)
	}
}

// Load loads configuration from environment variables
func Load(ctx context.Context) (*Config, error) {
	var config Config

	if err := envconfig.Process(ctx, &config); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := config.JWT.Validate(); err != nil {
		return nil, err
	}

	if err := config.SMS.Validate(); err != nil {
		return nil, err
	}

	if config.Env == envProduction && config.SMS.Provider == "log" {
		return nil, fmt.Errorf("SMS_PROVIDER=log writes verification codes to the log and is not allowed when ENV=%s", envProduction)
	}

	return &config, nil
}
