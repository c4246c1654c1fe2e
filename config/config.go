package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Secret names read from AWS Secrets Manager when AWS_USE_SECRETS=true.
const (
	TokenSecretName   = "bistro/ACCESS_TOKEN_SECRET"
	PaymentSecretName = "bistro/PAYMENT_SECRET_KEY"
)

type Config struct {
	Port               string
	Env                string
	MongoURI           string
	DBName             string
	AccessTokenSecret  string
	TokenTTL           time.Duration
	PaymentSecretKey   string
	PaymentCurrency    string
	AllowedOrigins     []string
	RequestTimeout     time.Duration
	RateLimitPerMinute int
	PaymentSNSTopicARN string // SNS topic ARN for payment events
	UseAWSSecrets      bool

	CloudWatchEnabled   bool
	CloudWatchNamespace string
	CloudWatchLogGroup  string
}

// SecretGetter fetches a named secret value.
type SecretGetter interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// LoadConfig reads the process environment. Secrets may be left empty when
// UseAWSSecrets is set; ApplySecrets fills them and Validate checks them.
func LoadConfig() (*Config, error) {
	ttl, err := time.ParseDuration(getEnv("TOKEN_TTL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL: %w", err)
	}
	timeout, err := time.ParseDuration(getEnv("REQUEST_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid REQUEST_TIMEOUT: %w", err)
	}
	perMinute, err := strconv.Atoi(getEnv("RATE_LIMIT_PER_MINUTE", "100"))
	if err != nil || perMinute <= 0 {
		return nil, fmt.Errorf("invalid RATE_LIMIT_PER_MINUTE %q", os.Getenv("RATE_LIMIT_PER_MINUTE"))
	}

	cfg := &Config{
		Port:               getEnv("PORT", "5000"),
		Env:                getEnv("APP_ENV", "development"),
		MongoURI:           os.Getenv("MONGO_URI"),
		DBName:             getEnv("DB_NAME", "bistroDb"),
		AccessTokenSecret:  os.Getenv("ACCESS_TOKEN_SECRET"),
		TokenTTL:           ttl,
		PaymentSecretKey:   os.Getenv("PAYMENT_SECRET_KEY"),
		PaymentCurrency:    strings.ToLower(getEnv("PAYMENT_CURRENCY", "usd")),
		AllowedOrigins:     splitOrigins(getEnv("ALLOWED_ORIGINS", "https://bistro-boss-366b7.web.app")),
		RequestTimeout:     timeout,
		RateLimitPerMinute: perMinute,
		PaymentSNSTopicARN: os.Getenv("PAYMENT_SNS_TOPIC_ARN"),
		UseAWSSecrets:      os.Getenv("AWS_USE_SECRETS") == "true",

		CloudWatchEnabled:   os.Getenv("CLOUDWATCH_ENABLED") == "true",
		CloudWatchNamespace: getEnv("CLOUDWATCH_NAMESPACE", "BistroBoss"),
		CloudWatchLogGroup:  getEnv("CLOUDWATCH_LOG_GROUP", "/bistro-boss/server"),
	}

	if cfg.MongoURI == "" {
		uri, err := buildMongoURI(os.Getenv("DB_USER"), os.Getenv("DB_PASS"), getEnv("MONGO_HOST", "cluster0.0hgquea.mongodb.net"))
		if err != nil {
			return nil, err
		}
		cfg.MongoURI = uri
	}

	if !cfg.UseAWSSecrets {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// ApplySecrets overwrites the token and payment secrets with values from the
// secret store.
func (c *Config) ApplySecrets(ctx context.Context, secrets SecretGetter) error {
	tokenSecret, err := secrets.GetSecret(ctx, TokenSecretName)
	if err != nil {
		return fmt.Errorf("load %s: %w", TokenSecretName, err)
	}
	paymentKey, err := secrets.GetSecret(ctx, PaymentSecretName)
	if err != nil {
		return fmt.Errorf("load %s: %w", PaymentSecretName, err)
	}
	c.AccessTokenSecret = tokenSecret
	c.PaymentSecretKey = paymentKey
	return c.Validate()
}

// Validate reports missing required settings.
func (c *Config) Validate() error {
	var missing []string
	if c.AccessTokenSecret == "" {
		missing = append(missing, "ACCESS_TOKEN_SECRET")
	}
	if c.PaymentSecretKey == "" {
		missing = append(missing, "PAYMENT_SECRET_KEY")
	}
	if c.MongoURI == "" {
		missing = append(missing, "MONGO_URI")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

func buildMongoURI(user, pass, host string) (string, error) {
	if user == "" || pass == "" {
		return "", fmt.Errorf("missing required environment variables: MONGO_URI or DB_USER/DB_PASS")
	}
	u := url.URL{
		Scheme:   "mongodb+srv",
		User:     url.UserPassword(user, pass),
		Host:     host,
		Path:     "/",
		RawQuery: "retryWrites=true&w=majority",
	}
	return u.String(), nil
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		o = strings.TrimSuffix(strings.TrimSpace(o), "/")
		if o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
