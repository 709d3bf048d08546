package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Board    BoardConfig    `toml:"board"`
	Program  ProgramConfig  `toml:"program"`
	Defaults map[string]any `toml:"defaults"`
	Server   ServerConfig   `toml:"server"`
	Sync     SyncConfig     `toml:"sync"`
}

// BoardConfig contains board service credentials and the static board layout.
type BoardConfig struct {
	BaseURL       string             `toml:"base_url"`
	Key           string             `toml:"key"`
	Token         string             `toml:"token"`
	Secret        string             `toml:"secret"` // verifies webhook signatures when set
	BoardID       string             `toml:"board_id"`
	DefaultListID string             `toml:"default_list_id"`
	MinIntervalMS int                `toml:"min_interval_ms"`
	Lists         map[string]string  `toml:"lists"` // category name -> list id
	CustomFields  CustomFieldsConfig `toml:"custom_fields"`
}

// CustomFieldsConfig maps logical task attributes to board custom field ids.
type CustomFieldsConfig struct {
	IsDesign   string `toml:"is_design"`
	IsCode     string `toml:"is_code"`
	IsDocs     string `toml:"is_docs"`
	IsResearch string `toml:"is_research"`
	IsQA       string `toml:"is_qa"`
	ProgramID  string `toml:"program_id"`
	Tags       string `toml:"tags"`
	Owner      string `toml:"owner"`
	Points     string `toml:"points"`
	Blocked    string `toml:"blocked"`
}

// ProgramConfig contains program service settings.
type ProgramConfig struct {
	BaseURL       string `toml:"base_url"`
	AccessToken   string `toml:"access_token"`
	PageSize      int    `toml:"page_size"`
	MinIntervalMS int    `toml:"min_interval_ms"`
}

// ServerConfig contains webhook receiver settings.
type ServerConfig struct {
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	CallbackURL string `toml:"callback_url"`
}

// SyncConfig tunes the load/write passes.
type SyncConfig struct {
	Workers int `toml:"workers"`
}

// MinInterval is the minimum spacing between two calls to the board service.
func (b BoardConfig) MinInterval() time.Duration {
	return time.Duration(b.MinIntervalMS) * time.Millisecond
}

// MinInterval is the minimum spacing between two calls to the program service.
func (p ProgramConfig) MinInterval() time.Duration {
	return time.Duration(p.MinIntervalMS) * time.Millisecond
}

// Addr returns the host:port the webhook receiver listens on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Validate checks the settings every sync run depends on.
func (c *Config) Validate() error {
	if c.Board.BaseURL == "" {
		return fmt.Errorf("%w: board.base_url is required", ErrInvalidConfig)
	}
	if c.Board.BoardID == "" {
		return fmt.Errorf("%w: board.board_id is required", ErrInvalidConfig)
	}
	if c.Board.DefaultListID == "" {
		return fmt.Errorf("%w: board.default_list_id is required", ErrInvalidConfig)
	}
	if c.Board.Key == "" || c.Board.Token == "" {
		return fmt.Errorf("%w: board.key and board.token are required", ErrMissingCredentials)
	}
	if c.Program.BaseURL == "" {
		return fmt.Errorf("%w: program.base_url is required", ErrInvalidConfig)
	}
	if c.Board.MinIntervalMS < 0 || c.Program.MinIntervalMS < 0 {
		return fmt.Errorf("%w: min_interval_ms must not be negative", ErrInvalidConfig)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
