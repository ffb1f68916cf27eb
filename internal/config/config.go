// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds application configuration.
type Config struct {
	Port               string
	Env                string
	LogLevel           string
	CORSAllowedOrigins []string
	DatabaseURL        string

	PublicBaseURL string // first of VERCEL_PROJECT_PRODUCTION_URL, VERCEL_URL, NEXTAUTH_URL, localhost

	TwilioAccountSID    string
	TwilioAuthToken     string
	TwilioFromNumber    string
	TwilioSkipSignature bool

	AdminPhoneNumber        string
	EnableSMSNotifications  bool
	WebhookSignatureVerify  bool
	CostPerSegment          float64
	BroadcastWorkerConcurrency int

	RedisAddr     string
	RedisPassword string

	AdminJWTSecret string

	SlackBotToken string
	SlackChannel  string

	DefaultWelcomeMessage string
	LegacyOptInKeyword    string
}

// Load reads configuration from environment variables, applying the
// family of sensible defaults this codebase always ships with so a
// developer can boot the service with nothing but DATABASE_URL set.
func Load() *Config {
	env := getEnv("ENV", "development")

	corsAllowedOrigins := []string{}
	if raw := strings.TrimSpace(getEnv("CORS_ALLOWED_ORIGINS", "")); raw != "" {
		for _, origin := range strings.Split(raw, ",") {
			origin = strings.TrimSpace(origin)
			if origin == "" {
				continue
			}
			corsAllowedOrigins = append(corsAllowedOrigins, origin)
		}
	}

	return &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                env,
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: corsAllowedOrigins,
		DatabaseURL:        getEnv("DATABASE_URL", ""),

		PublicBaseURL: resolvePublicBaseURL(),

		TwilioAccountSID:    getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:     getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioFromNumber:    getEnv("TWILIO_FROM_NUMBER", ""),
		TwilioSkipSignature: getEnvAsBool("TWILIO_SKIP_SIGNATURE", false),

		AdminPhoneNumber:           getEnv("ADMIN_PHONE_NUMBER", ""),
		EnableSMSNotifications:     getEnvAsBool("ENABLE_SMS_NOTIFICATIONS", true),
		WebhookSignatureVerify:     getEnvAsBool("WEBHOOK_SIGNATURE_VERIFICATION", env == "production"),
		CostPerSegment:             getEnvAsFloat("COST_PER_SEGMENT", 0.0083),
		BroadcastWorkerConcurrency: getEnvAsInt("BROADCAST_WORKER_CONCURRENCY", 10),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),

		SlackBotToken: getEnv("SLACK_BOT_TOKEN", ""),
		SlackChannel:  getEnv("SLACK_CHANNEL", ""),

		DefaultWelcomeMessage: getEnv("DEFAULT_WELCOME_MESSAGE", "Welcome! You're subscribed."),
		LegacyOptInKeyword:    getEnv("LEGACY_OPT_IN_KEYWORD", "JOIN"),
	}
}

func resolvePublicBaseURL() string {
	for _, key := range []string{"VERCEL_PROJECT_PRODUCTION_URL", "VERCEL_URL", "NEXTAUTH_URL"} {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			if !strings.Contains(v, "://") {
				v = "https://" + v
			}
			return strings.TrimRight(v, "/")
		}
	}
	return "http://localhost:3000"
}

// SMSProviderIssues returns configuration problems that would prevent
// outbound SMS from working. An empty slice means the Twilio gateway is
// fully configured.
func (c *Config) SMSProviderIssues() []string {
	var issues []string
	if c.TwilioAccountSID == "" || c.TwilioAuthToken == "" {
		issues = append(issues, "no SMS provider configured: need TWILIO_ACCOUNT_SID and TWILIO_AUTH_TOKEN")
	}
	if c.TwilioFromNumber == "" {
		issues = append(issues, "TWILIO_FROM_NUMBER is empty — outbound SMS will fail")
	}
	return issues
}

// ShortLinkBase returns the base URL link tokenization rewrites URLs against.
func (c *Config) ShortLinkBase() string {
	return fmt.Sprintf("%s/sanctuary", c.PublicBaseURL)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}
