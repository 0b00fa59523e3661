/**
 * @description
 * This file handles configuration management for the dispatch-service.
 * It uses the 'viper' library to load configuration from environment
 * variables, providing a centralized and consistent way to manage settings,
 * including the accepted payment-state vocabulary that the original system
 * hard-coded across queries.
 */
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the dispatch service.
type Config struct {
	ServerPort  string `mapstructure:"SERVER_PORT"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	RabbitMQURL string `mapstructure:"RABBITMQ_URL"`

	AdminJWTSecret string `mapstructure:"ADMIN_JWT_SECRET"`
	InternalAPIKey string `mapstructure:"INTERNAL_API_KEY"`

	TZOffsetMinutes int `mapstructure:"TZ_OFFSET_MINUTES"`

	MeetingStartTime       string `mapstructure:"MEETING_START_TIME"`
	MeetingDurationMinutes int    `mapstructure:"MEETING_DURATION_MINUTES"`
	MeetingPlatform        string `mapstructure:"MEETING_PLATFORM"`
	MeetingTitle           string `mapstructure:"MEETING_TITLE"`
	MeetingDescription     string `mapstructure:"MEETING_DESCRIPTION"`
	MeetingStaticJoinLink  string `mapstructure:"MEETING_STATIC_JOIN_LINK"`

	AcceptedPaymentStates  string `mapstructure:"ACCEPTED_PAYMENT_STATES"`
	PaymentAllowEmptyState bool   `mapstructure:"PAYMENT_ALLOW_EMPTY_STATE"`

	DispatchJobSchedule        string `mapstructure:"DISPATCH_JOB_SCHEDULE"`
	DispatchConcurrency        int    `mapstructure:"DISPATCH_CONCURRENCY"`
	DispatchSendTimeoutSeconds int    `mapstructure:"DISPATCH_SEND_TIMEOUT_SECONDS"`

	MailAPIURL      string `mapstructure:"MAIL_API_URL"`
	MailAPIKey      string `mapstructure:"MAIL_API_KEY"`
	MailFromAddress string `mapstructure:"MAIL_FROM_ADDRESS"`

	MeetLinkAPIURL string `mapstructure:"MEETLINK_API_URL"`
	MeetLinkAPIKey string `mapstructure:"MEETLINK_API_KEY"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	viper.SetDefault("SERVER_PORT", "8086")
	viper.SetDefault("TZ_OFFSET_MINUTES", 330) // +05:30, the club's fixed offset
	viper.SetDefault("MEETING_START_TIME", "21:00")
	viper.SetDefault("MEETING_DURATION_MINUTES", 60)
	viper.SetDefault("MEETING_PLATFORM", "google-meet")
	viper.SetDefault("MEETING_TITLE", "GOALETE Club Daily Session")
	viper.SetDefault("MEETING_DESCRIPTION", "Join the daily GOALETE Club session to learn how to achieve any goal in life.")
	viper.SetDefault("ACCEPTED_PAYMENT_STATES", "completed,paid,success,admin-added,admin-created")
	viper.SetDefault("PAYMENT_ALLOW_EMPTY_STATE", true)
	viper.SetDefault("DISPATCH_JOB_SCHEDULE", "30 6 * * *") // daily at 06:30 local
	viper.SetDefault("DISPATCH_CONCURRENCY", 8)
	viper.SetDefault("DISPATCH_SEND_TIMEOUT_SECONDS", 15)
	viper.AutomaticEnv()

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	for _, key := range []string{
		"SERVER_PORT", "DATABASE_URL", "RABBITMQ_URL",
		"ADMIN_JWT_SECRET", "INTERNAL_API_KEY",
		"TZ_OFFSET_MINUTES",
		"MEETING_START_TIME", "MEETING_DURATION_MINUTES", "MEETING_PLATFORM",
		"MEETING_TITLE", "MEETING_DESCRIPTION", "MEETING_STATIC_JOIN_LINK",
		"ACCEPTED_PAYMENT_STATES", "PAYMENT_ALLOW_EMPTY_STATE",
		"DISPATCH_JOB_SCHEDULE", "DISPATCH_CONCURRENCY", "DISPATCH_SEND_TIMEOUT_SECONDS",
		"MAIL_API_URL", "MAIL_API_KEY", "MAIL_FROM_ADDRESS",
		"MEETLINK_API_URL", "MEETLINK_API_KEY",
	} {
		_ = viper.BindEnv(key)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if config.AdminJWTSecret == "" {
		return nil, fmt.Errorf("ADMIN_JWT_SECRET is required")
	}
	if config.MeetLinkAPIURL == "" && config.MeetingStaticJoinLink == "" {
		return nil, fmt.Errorf("either MEETLINK_API_URL or MEETING_STATIC_JOIN_LINK must be set")
	}

	return &config, nil
}

// PaymentStates returns the configured accepted payment-state list.
func (c *Config) PaymentStates() []string {
	parts := strings.Split(c.AcceptedPaymentStates, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
