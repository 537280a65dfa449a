package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	AppHost  string
	HTTPPort string
	AppEnv   string
	LogLevel string

	// DevMode disables the quota and self-claim guards for local testing.
	DevMode bool

	MaxTicketsPerUser int

	// Escalation thresholds, all in hours.
	RemindIntervalHours         int
	SupporterRemindHours        int
	AutoCloseHours              int
	RatingReminderIntervalHours int
	RatingMaxReminders          int

	// SweepPauseSeconds is the fixed pause between tickets inside one sweep,
	// bounding the outbound call rate.
	SweepPauseSeconds int

	// AccidentGraceSeconds is the window after opening during which the owner
	// may cancel an accidentally opened ticket (hard delete).
	AccidentGraceSeconds int

	// Platform containers. UnclaimedBinID and PendingRatingBinID are the
	// primary bins of their pools; CategoryBins maps a ticket category to the
	// primary bin of its claimed pool. Categories without an entry fall back
	// to a plain staff role grant.
	UnclaimedBinID     string
	PendingRatingBinID string
	CategoryBins       map[string]string
	CategoryRoles      map[string][]string

	StaffRoleID                string
	LogChannelID               string
	StatsChannelID             string
	RatingNotificationChannels []string
	ServerName                 string

	// XPAPIURL — if set, closed tickets are reported to the XP service
	// (POST /tickets/award-xp). Empty disables the call.
	XPAPIURL string
	XPAPIKey string

	// KafkaBrokers/KafkaTopic — if set, lifecycle events are published
	// best-effort. Empty disables the producer.
	KafkaBrokers string
	KafkaTopic   string

	DB struct {
		Host     string
		Port     string
		User     string
		Password string
		Database string
		SSLMode  string
	}
}

func Load() (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	cfg := &Config{
		AppHost:  getEnv("APP_HOST", "0.0.0.0"),
		HTTPPort: firstEnv("APP_PORT", "HTTP_PORT", "8098"),
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DevMode:           getEnvBool("DEV_MODE", false),
		MaxTicketsPerUser: getEnvInt("MAX_TICKETS_PER_USER", 3),

		RemindIntervalHours:         getEnvInt("REMIND_INTERVAL_HOURS", 24),
		SupporterRemindHours:        getEnvInt("SUPPORTER_REMIND_HOURS", 24),
		AutoCloseHours:              getEnvInt("AUTO_CLOSE_HOURS", 96),
		RatingReminderIntervalHours: getEnvInt("RATING_REMINDER_INTERVAL_HOURS", 24),
		RatingMaxReminders:          getEnvInt("RATING_MAX_REMINDERS", 3),
		SweepPauseSeconds:           getEnvInt("SWEEP_PAUSE_SECONDS", 10),
		AccidentGraceSeconds:        getEnvInt("ACCIDENT_GRACE_SECONDS", 60),

		UnclaimedBinID:     getEnv("UNCLAIMED_BIN_ID", ""),
		PendingRatingBinID: getEnv("PENDING_RATING_BIN_ID", ""),
		CategoryBins:       parseMap(getEnv("CATEGORY_BINS", "")),
		CategoryRoles:      parseMultiMap(getEnv("CATEGORY_ROLES", "")),

		StaffRoleID:                getEnv("STAFF_ROLE_ID", ""),
		LogChannelID:               getEnv("LOG_CHANNEL_ID", ""),
		StatsChannelID:             getEnv("STATS_CHANNEL_ID", ""),
		RatingNotificationChannels: parseList(getEnv("RATING_NOTIFICATION_CHANNELS", "")),
		ServerName:                 getEnv("SERVER_NAME", ""),

		XPAPIURL: getEnv("XP_API_URL", ""),
		XPAPIKey: getEnv("XP_API_KEY", ""),

		KafkaBrokers: getEnv("KAFKA_BROKERS", ""),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "ticket-events"),
	}
	cfg.DB.Host = getEnv("DB_HOST", "localhost")
	cfg.DB.Port = getEnv("DB_PORT", "5432")
	cfg.DB.User = getEnv("DB_USER", "postgres")
	cfg.DB.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.DB.Database = getEnv("DB_DATABASE", "ticketbot")
	cfg.DB.SSLMode = getEnv("DB_SSLMODE", "disable")
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DB.Host == "" || c.DB.Database == "" {
		return errors.New("config: DB_HOST and DB_DATABASE are required")
	}
	if c.AppEnv == "production" && c.DB.Password == "" {
		return errors.New("config: in production DB_PASSWORD is required")
	}
	if c.MaxTicketsPerUser < 1 {
		return errors.New("config: MAX_TICKETS_PER_USER must be at least 1")
	}
	if c.RemindIntervalHours < 1 || c.AutoCloseHours < 1 || c.RatingReminderIntervalHours < 1 {
		return errors.New("config: escalation intervals must be at least 1 hour")
	}
	return nil
}

func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Database, c.DB.SSLMode)
}

func (c *Config) DatabaseURL() string {
	pass := url.QueryEscape(c.DB.Password)
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DB.User, pass, c.DB.Host, c.DB.Port, c.DB.Database, c.DB.SSLMode)
}

func (c *Config) Addr() string {
	return c.AppHost + ":" + c.HTTPPort
}

// parseList splits "a,b,c" into a slice, dropping empty entries.
func parseList(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// parseMap parses "bug=123,payment=456" into a map.
func parseMap(s string) map[string]string {
	out := map[string]string{}
	for _, pair := range parseList(s) {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" || v == "" {
			continue
		}
		out[k] = v
	}
	return out
}

// parseMultiMap parses "bug=r1|r2,payment=r3" into a map of lists.
func parseMultiMap(s string) map[string][]string {
	out := map[string][]string{}
	for k, v := range parseMap(s) {
		var ids []string
		for _, id := range strings.Split(v, "|") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
		if len(ids) > 0 {
			out[k] = ids
		}
	}
	return out
}

func firstEnv(keysAndDef ...string) string {
	if len(keysAndDef) == 0 {
		return ""
	}
	def := keysAndDef[len(keysAndDef)-1]
	for _, k := range keysAndDef[:len(keysAndDef)-1] {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
