package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	ListenAddr            string
	StoreMode             string
	StatePath             string
	DatabaseURL           string
	TokenEncryptionKey    string
	APIBaseURL            string
	APITimeout            time.Duration
	NotifyPollInterval    time.Duration
	OrderPollInterval     time.Duration
	OrderPollInitialDelay time.Duration
	SystemMessageTTL      time.Duration
	ShippingFlatRate      float64
}

func Load() Config {
	return Config{
		ListenAddr:            getEnv("LISTEN_ADDR", ":8090"),
		StoreMode:             getEnv("STORE_MODE", "file"),
		StatePath:             getEnv("STATE_PATH", "shopsync-state.json"),
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		TokenEncryptionKey:    getEnv("TOKEN_ENCRYPTION_KEY", ""),
		APIBaseURL:            getEnv("API_BASE_URL", "http://localhost:8000"),
		APITimeout:            getDuration("API_TIMEOUT", 10*time.Second),
		NotifyPollInterval:    getDuration("NOTIFY_POLL_INTERVAL", 10*time.Second),
		OrderPollInterval:     getDuration("ORDER_POLL_INTERVAL", 15*time.Second),
		OrderPollInitialDelay: getDuration("ORDER_POLL_INITIAL_DELAY", 2*time.Second),
		SystemMessageTTL:      getDuration("SYSTEM_MESSAGE_TTL", 5*time.Second),
		ShippingFlatRate:      getFloat("SHIPPING_FLAT_RATE", 10.0),
	}
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
