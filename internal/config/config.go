package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Backend  BackendConfig
	Identity IdentityConfig
	Agent    AgentConfig
	Probe    ProbeConfig
	Jobs     JobsConfig
	Journal  JournalConfig
}

// BackendConfig holds the attendance backend connection settings.
type BackendConfig struct {
	BaseURL       string
	AccessToken   string
	Timeout       time.Duration
	UploadTimeout time.Duration
}

// IdentityConfig identifies the punching account. OrganizationID and UserID
// may be left empty when the access token carries them as claims.
type IdentityConfig struct {
	OrganizationID string
	UserID         string
	Source         string
	DeviceInfo     string
}

// AgentConfig holds the local control API settings.
type AgentConfig struct {
	Addr     string
	Env      string
	LogLevel string
}

type ProbeConfig struct {
	EchoURLs      []string
	GeocoderURL   string
	WifiInterface string
	LocationCmd   []string
	CameraCmd     []string
	PhotoDir      string
}

type JobsConfig struct {
	RevalidateInterval time.Duration
	ClockSyncInterval  time.Duration
}

type JournalConfig struct {
	Path string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading process environment")
	}

	config := &Config{}

	// Backend configuration
	backendTimeout, err := time.ParseDuration(getEnv("API_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid API_TIMEOUT: %w", err)
	}
	uploadTimeout, err := time.ParseDuration(getEnv("API_UPLOAD_TIMEOUT", "60s"))
	if err != nil {
		return nil, fmt.Errorf("invalid API_UPLOAD_TIMEOUT: %w", err)
	}

	config.Backend = BackendConfig{
		BaseURL:       getEnv("API_BASE_URL", ""),
		AccessToken:   getEnv("API_ACCESS_TOKEN", ""),
		Timeout:       backendTimeout,
		UploadTimeout: uploadTimeout,
	}

	// Identity configuration
	config.Identity = IdentityConfig{
		OrganizationID: getEnv("ORGANIZATION_ID", ""),
		UserID:         getEnv("USER_ID", ""),
		Source:         getEnv("PUNCH_SOURCE", "mobile"),
		DeviceInfo:     getEnv("DEVICE_INFO", defaultDeviceInfo()),
	}

	// Agent configuration
	config.Agent = AgentConfig{
		Addr:     getEnv("AGENT_ADDR", "127.0.0.1:8990"),
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	// Probe configuration
	echoURLs := getEnvSlice("PUBLIC_IP_ECHO_URLS")
	if len(echoURLs) == 0 {
		echoURLs = []string{"https://api.ipify.org", "https://ifconfig.me/ip"}
	}
	config.Probe = ProbeConfig{
		EchoURLs:      echoURLs,
		GeocoderURL:   getEnv("GEOCODER_URL", "https://nominatim.openstreetmap.org"),
		WifiInterface: getEnv("WIFI_INTERFACE", ""),
		LocationCmd:   getEnvCommand("LOCATION_CMD"),
		CameraCmd:     getEnvCommand("CAMERA_CMD"),
		PhotoDir:      getEnv("PHOTO_DIR", ""),
	}

	// Background job configuration
	revalidateInterval, err := time.ParseDuration(getEnv("REVALIDATE_INTERVAL", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid REVALIDATE_INTERVAL: %w", err)
	}
	clockSyncInterval, err := time.ParseDuration(getEnv("CLOCK_SYNC_INTERVAL", "120s"))
	if err != nil {
		return nil, fmt.Errorf("invalid CLOCK_SYNC_INTERVAL: %w", err)
	}
	config.Jobs = JobsConfig{
		RevalidateInterval: revalidateInterval,
		ClockSyncInterval:  clockSyncInterval,
	}

	config.Journal = JournalConfig{
		Path: getEnv("JOURNAL_PATH", "punch-journal.db"),
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	if c.Backend.AccessToken == "" {
		return fmt.Errorf("API_ACCESS_TOKEN is required")
	}
	if c.Jobs.RevalidateInterval <= 0 {
		return fmt.Errorf("REVALIDATE_INTERVAL must be positive")
	}
	if c.Jobs.ClockSyncInterval <= 0 {
		return fmt.Errorf("CLOCK_SYNC_INTERVAL must be positive")
	}
	return nil
}

func defaultDeviceInfo() string {
	host, err := os.Hostname()
	if err != nil {
		return "unknown-device"
	}
	return host
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

// getEnvCommand splits a command line on whitespace. Empty means "use the
// package default tool".
func getEnvCommand(key string) []string {
	return strings.Fields(getEnv(key, ""))
}

func getEnvSlice(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
