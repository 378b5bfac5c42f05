package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
// Every field has a sensible default; only the producer URL, its API key,
// the bot token, and the guild ID are required.
type Config struct {
	// Producer API
	NexusBaseURL string
	NexusAPIKey  string
	NexusTimeout time.Duration

	// Discord
	BotToken       string
	GuildID        string
	DiscordTimeout time.Duration

	// Poll loop
	PollInterval    time.Duration
	MaxBackoff      time.Duration
	QueueFetchLimit int

	// Status-report retries
	StatusRetryBase time.Duration
	StatusRetryMax  time.Duration

	// Delivery
	DeliveryMaxAttempts int
	SendRatePerSec      int
	MessageChunkLimit   int

	// Ops HTTP server
	HTTPPort        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

func Load() (*Config, error) {
	baseURL := os.Getenv("NEXUS_BASE_URL")
	if baseURL == "" {
		return nil, fmt.Errorf("NEXUS_BASE_URL is required")
	}
	apiKey := os.Getenv("NEXUS_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("NEXUS_API_KEY is required")
	}
	botToken := os.Getenv("DISCORD_BOT_TOKEN")
	if botToken == "" {
		return nil, fmt.Errorf("DISCORD_BOT_TOKEN is required")
	}
	guildID := os.Getenv("DISCORD_GUILD_ID")
	if guildID == "" {
		return nil, fmt.Errorf("DISCORD_GUILD_ID is required")
	}

	return &Config{
		NexusBaseURL: baseURL,
		NexusAPIKey:  apiKey,
		NexusTimeout: getDuration("NEXUS_TIMEOUT", 15*time.Second),

		BotToken:       botToken,
		GuildID:        guildID,
		DiscordTimeout: getDuration("DISCORD_TIMEOUT", 15*time.Second),

		PollInterval:    getDuration("POLL_INTERVAL", 30*time.Second),
		MaxBackoff:      getDuration("MAX_BACKOFF", 300*time.Second),
		QueueFetchLimit: getInt("QUEUE_FETCH_LIMIT", 20),

		StatusRetryBase: getDuration("STATUS_RETRY_BASE", 10*time.Second),
		StatusRetryMax:  getDuration("STATUS_RETRY_MAX", 300*time.Second),

		DeliveryMaxAttempts: getInt("DELIVERY_MAX_ATTEMPTS", 3),
		SendRatePerSec:      getInt("SEND_RATE_PER_SEC", 5),
		MessageChunkLimit:   getInt("MESSAGE_CHUNK_LIMIT", 1900),

		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		ReadTimeout:     getDuration("READ_TIMEOUT", 5*time.Second),
		WriteTimeout:    getDuration("WRITE_TIMEOUT", 10*time.Second),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
	}, nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
