package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	// Address the HTTP server listens on
	ListenAddr string

	// Output format template for the now command
	// Default: "{{.Artist}} - {{.Name}}"
	OutputFormat string

	// Fixed output width for the now command (0 = disabled)
	OutputWidth int

	// Spotify API credentials
	Spotify SpotifyConfig

	// Recently-played history store
	History HistoryConfig

	// Logging setup
	Logging LoggingConfig
}

// SpotifyConfig holds Spotify application credentials. The refresh
// token comes from the one-time authorization-code flow, which is run
// outside this program.
type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// HistoryConfig holds the optional recently-played recorder settings
type HistoryConfig struct {
	Enabled bool
	DBPath  string // Defaults to <data dir>/history.db when empty
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // "json" or "text" (console writer)
	Loki   LokiConfig
}

// LokiConfig holds the optional Loki log shipping settings
type LokiConfig struct {
	Enabled bool
	URL     string
	Labels  map[string]string
}

// Load reads configuration from file and environment
func Load() (*Config, error) {
	return loadFrom(getConfigDir(), ".")
}

// loadFrom reads configuration searching the given directories, in
// order of precedence.
func loadFrom(dirs ...string) (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, dir := range dirs {
		v.AddConfigPath(dir)
	}

	// Set defaults
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("output_format", "{{.Artist}} - {{.Name}}")
	v.SetDefault("output_width", 0)
	v.SetDefault("spotify.client_id", "")
	v.SetDefault("spotify.client_secret", "")
	v.SetDefault("spotify.refresh_token", "")
	v.SetDefault("history.enabled", false)
	v.SetDefault("history.db_path", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.loki.enabled", false)
	v.SetDefault("logging.loki.url", "")

	// Read config file (optional - don't fail if missing)
	_ = v.ReadInConfig()

	// Read from environment variables, e.g.
	// NOWSPINNING_SPOTIFY_CLIENT_ID overrides spotify.client_id
	v.SetEnvPrefix("NOWSPINNING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Map config to struct
	cfg := &Config{
		ListenAddr:   v.GetString("listen_addr"),
		OutputFormat: v.GetString("output_format"),
		OutputWidth:  v.GetInt("output_width"),
		Spotify: SpotifyConfig{
			ClientID:     v.GetString("spotify.client_id"),
			ClientSecret: v.GetString("spotify.client_secret"),
			RefreshToken: v.GetString("spotify.refresh_token"),
		},
		History: HistoryConfig{
			Enabled: v.GetBool("history.enabled"),
			DBPath:  v.GetString("history.db_path"),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
			Loki: LokiConfig{
				Enabled: v.GetBool("logging.loki.enabled"),
				URL:     v.GetString("logging.loki.url"),
				Labels:  v.GetStringMapString("logging.loki.labels"),
			},
		},
	}

	return cfg, nil
}

// ValidateSpotify checks that the upstream credentials are present.
// The serve and now commands cannot work without them.
func (c *Config) ValidateSpotify() error {
	if c.Spotify.ClientID == "" || c.Spotify.ClientSecret == "" || c.Spotify.RefreshToken == "" {
		return fmt.Errorf("spotify credentials not configured: set spotify.client_id, spotify.client_secret and spotify.refresh_token")
	}
	return nil
}

// HistoryDBPath returns the configured history database path, falling
// back to the default data directory.
func (c *Config) HistoryDBPath() string {
	if c.History.DBPath != "" {
		return c.History.DBPath
	}
	return filepath.Join(getDataDir(), "history.db")
}

// getConfigDir returns the configuration directory path
// Creates the directory if it doesn't exist
func getConfigDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	configDir := filepath.Join(homeDir, ".config", "nowspinning")

	// Create config directory if it doesn't exist
	_ = os.MkdirAll(configDir, 0755)

	return configDir
}

// getDataDir returns the data directory path used for the history
// database. Creates the directory if it doesn't exist.
func getDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	dataDir := filepath.Join(homeDir, ".local", "share", "nowspinning")
	_ = os.MkdirAll(dataDir, 0755)

	return dataDir
}

// GetConfigDir returns the configuration directory path (public helper)
func GetConfigDir() string {
	return getConfigDir()
}
