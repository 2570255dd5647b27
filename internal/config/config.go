package config

import (
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HTTPAddr    string
	LogLevel    string
	JWTSecret   string
	JWTUser     string
	JWTPassword string
	TLSCertFile string
	TLSKeyFile  string

	// ProviderTimeout bounds search and weather calls, LookupTimeout bounds
	// token, reference-data and air-quality calls.
	ProviderTimeout time.Duration
	LookupTimeout   time.Duration
	CacheTTL        time.Duration

	AmadeusURL        string
	AmadeusAPIKey     string
	AmadeusAPISecret  string
	OpenWeatherURL    string
	OpenWeatherAPIKey string

	// RedisAddr switches the response cache from in-memory to redis when set.
	RedisAddr string
	// HistoryDSN switches search history from in-memory to postgres when set.
	HistoryDSN string
}

func Load() *Config {
	v := viper.New()

	v.SetDefault("http_addr", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("jwt_secret", "dev-secret-change-me")
	v.SetDefault("auth_user", "demo")
	v.SetDefault("auth_pass", "demo123")
	v.SetDefault("provider_timeout", "30s")
	v.SetDefault("lookup_timeout", "10s")
	v.SetDefault("cache_ttl", "30s")

	v.SetDefault("amadeus_url", "https://test.api.amadeus.com")
	v.SetDefault("openweather_url", "https://api.openweathermap.org/data/2.5")

	if path := os.Getenv("TRAVEL_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		// Fallback to conventional locations for local dev
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/travel-agent") // add the container path
	}

	if err := v.ReadInConfig(); err != nil {
		log.Printf("no config file found, using defaults + env vars: %v", err)
	}

	v.AutomaticEnv()

	pt, err := time.ParseDuration(v.GetString("provider_timeout"))
	if err != nil {
		log.Fatalf("bad provider_timeout: %v", err)
	}
	lt, err := time.ParseDuration(v.GetString("lookup_timeout"))
	if err != nil {
		log.Fatalf("bad lookup_timeout: %v", err)
	}
	ct, err := time.ParseDuration(v.GetString("cache_ttl"))
	if err != nil {
		log.Fatalf("bad cache_ttl: %v", err)
	}

	return &Config{
		HTTPAddr:          v.GetString("http_addr"),
		LogLevel:          v.GetString("log_level"),
		JWTSecret:         v.GetString("jwt_secret"),
		JWTUser:           v.GetString("auth_user"),
		JWTPassword:       v.GetString("auth_pass"),
		TLSCertFile:       os.Getenv("TLS_CERT_FILE"),
		TLSKeyFile:        os.Getenv("TLS_KEY_FILE"),
		ProviderTimeout:   pt,
		LookupTimeout:     lt,
		CacheTTL:          ct,
		AmadeusURL:        v.GetString("amadeus_url"),
		AmadeusAPIKey:     v.GetString("amadeus_apikey"),
		AmadeusAPISecret:  v.GetString("amadeus_apisecret"),
		OpenWeatherURL:    v.GetString("openweather_url"),
		OpenWeatherAPIKey: v.GetString("openweather_apikey"),
		RedisAddr:         v.GetString("redis_addr"),
		HistoryDSN:        v.GetString("history_dsn"),
	}
}
