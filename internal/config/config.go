// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jason-s-yu/clashkings/internal/auth"
	"github.com/jason-s-yu/clashkings/internal/bot"
	"github.com/jason-s-yu/clashkings/internal/session"
	"github.com/sirupsen/logrus"
)

// Config holds every environment driven setting of the server and the CLI.
type Config struct {
	Port           string
	PublicURL      string // base of shareable join links
	AllowedOrigins []string

	LogLevel  string
	LogFormat string

	RedisEnabled   bool
	RedisAddr      string
	RedisDB        int
	RoomTTL        time.Duration
	ResultsChannel string

	HistorianBatchSize int
	HistorianFlush     time.Duration

	TokenTTL time.Duration

	MaxPlayers        int
	BotTurnDelay      time.Duration
	BotDrawDelay      time.Duration
	PersonalitiesFile string

	ReadyInterval time.Duration
	ReadyWait     time.Duration
	PingInterval  time.Duration
	JoinTimeout   time.Duration
	Retry         session.RetryPolicy
}

// Load reads the environment. Unset keys take their defaults; malformed ones are an error.
func Load() (*Config, error) {
	c := &Config{
		Port:              getEnv("PORT", "8080"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "text"),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		ResultsChannel:    getEnv("RESULTS_CHANNEL", "clashkings_results"),
		PersonalitiesFile: os.Getenv("BOT_PERSONALITIES_FILE"),
	}
	c.PublicURL = getEnv("PUBLIC_URL", "http://localhost:"+c.Port)
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.AllowedOrigins = append(c.AllowedOrigins, o)
			}
		}
	}

	var err error
	if c.RedisEnabled, err = getEnvBool("REDIS_ENABLED", false); err != nil {
		return nil, err
	}
	if c.RedisDB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if c.HistorianBatchSize, err = getEnvInt("HISTORIAN_BATCH_SIZE", 20); err != nil {
		return nil, err
	}
	if c.MaxPlayers, err = getEnvInt("MAX_PLAYERS", 4); err != nil {
		return nil, err
	}
	if c.MaxPlayers < 2 || c.MaxPlayers > 4 {
		return nil, fmt.Errorf("MAX_PLAYERS must be between 2 and 4, got %d", c.MaxPlayers)
	}
	if c.TokenTTL, err = auth.ParseTokenTTL(os.Getenv("TOKEN_EXPIRE_TIME")); err != nil {
		return nil, err
	}

	retry := session.DefaultRetryPolicy()
	durations := []struct {
		key string
		dst *time.Duration
		def time.Duration
	}{
		{"ROOM_TTL", &c.RoomTTL, 2 * time.Hour},
		{"HISTORIAN_FLUSH", &c.HistorianFlush, 500 * time.Millisecond},
		{"BOT_TURN_DELAY", &c.BotTurnDelay, bot.DefaultTurnDelay},
		{"BOT_DRAW_DELAY", &c.BotDrawDelay, bot.DefaultDrawDelay},
		{"READY_INTERVAL", &c.ReadyInterval, time.Second},
		{"READY_WAIT", &c.ReadyWait, 5 * time.Second},
		{"PING_INTERVAL", &c.PingInterval, 3 * time.Second},
		{"JOIN_TIMEOUT", &c.JoinTimeout, 20 * time.Second},
		{"CONNECT_TIMEOUT_FIRST", &retry.FirstTimeout, retry.FirstTimeout},
		{"CONNECT_TIMEOUT_RETRY", &retry.RetryTimeout, retry.RetryTimeout},
	}
	for _, d := range durations {
		if *d.dst, err = getEnvDuration(d.key, d.def); err != nil {
			return nil, err
		}
	}
	if retry.MaxRetries, err = getEnvInt("CONNECT_RETRIES", retry.MaxRetries); err != nil {
		return nil, err
	}
	c.Retry = retry
	return c, nil
}

// Logger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func (c *Config) Logger() (*logrus.Logger, error) {
	logger := logrus.New()
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("bad LOG_LEVEL: %w", err)
	}
	logger.SetLevel(level)
	if strings.EqualFold(c.LogFormat, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger, nil
}

// HostConfig is the per-room configuration derived from the environment.
func (c *Config) HostConfig() (session.HostConfig, error) {
	hc := session.DefaultHostConfig()
	hc.MaxPlayers = c.MaxPlayers
	hc.TurnDelay = c.BotTurnDelay
	hc.DrawDelay = c.BotDrawDelay
	if c.PersonalitiesFile != "" {
		ps, err := bot.LoadPersonalities(c.PersonalitiesFile)
		if err != nil {
			return hc, err
		}
		hc.Personalities = ps
	}
	return hc, nil
}

// ClientConfig is the joining side's configuration.
func (c *Config) ClientConfig() session.ClientConfig {
	return session.ClientConfig{
		ReadyInterval: c.ReadyInterval,
		ReadyWait:     c.ReadyWait,
		PingInterval:  c.PingInterval,
		JoinTimeout:   c.JoinTimeout,
		Retry:         c.Retry,
	}
}

// getEnv is a helper to read an environment variable or return a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt parses an environment variable as integer, else a default value.
func getEnvInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("bad %s: %w", key, err)
	}
	return v, nil
}

func getEnvBool(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("bad %s: %w", key, err)
	}
	return v, nil
}

func getEnvDuration(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("bad %s: %w", key, err)
	}
	return v, nil
}
