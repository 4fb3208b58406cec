package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"bachbot/internal/util"

	"github.com/spf13/viper"
)

const (
	DefaultInstanceURL   = "https://mastodon.social"
	DefaultSearchBaseURL = "https://www.youtube.com/results?search_query="
)

// ErrMalformed marks a config file that exists but cannot be decoded.
var ErrMalformed = errors.New("config file is malformed")

type Mastodon struct {
	InstanceURL  string `mapstructure:"instance_url" json:"instance_url"`
	ClientKey    string `mapstructure:"client_key" json:"client_key"`
	ClientSecret string `mapstructure:"client_secret" json:"client_secret"`
	AccessToken  string `mapstructure:"access_token" json:"access_token"`
}

type YouTube struct {
	SearchBaseURL string `mapstructure:"search_base_url" json:"search_base_url"`
}

type Schedule struct {
	CronSpec string `mapstructure:"cron_spec" json:"cron_spec"`
}

type Config struct {
	Mastodon Mastodon  `mapstructure:"mastodon" json:"mastodon"`
	YouTube  YouTube   `mapstructure:"youtube" json:"youtube"`
	Schedule *Schedule `mapstructure:"schedule" json:"schedule,omitempty"`
}

// Default is the document written on first run.
func Default() Config {
	return Config{
		Mastodon: Mastodon{InstanceURL: DefaultInstanceURL},
		YouTube:  YouTube{SearchBaseURL: DefaultSearchBaseURL},
	}
}

// HasCredentials reports whether all three Mastodon secrets are set.
func (c Config) HasCredentials() bool {
	return c.Mastodon.ClientKey != "" && c.Mastodon.ClientSecret != "" && c.Mastodon.AccessToken != ""
}

func (c Config) CronSpec() string {
	if c.Schedule == nil {
		return ""
	}
	return strings.TrimSpace(c.Schedule.CronSpec)
}

// Store reads and writes a single JSON config file. Writers are not
// coordinated; the last Save wins.
type Store struct {
	path   string
	logger *log.Logger
}

func NewStore(path string, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Default()
	}
	return &Store{path: path, logger: logger}
}

func (s *Store) Path() string { return s.path }

// Load returns the stored config, creating the file with Default values when
// it does not exist yet.
func (s *Store) Load() (Config, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg := Default()
		if err := s.Save(cfg); err != nil {
			return Config{}, err
		}
		s.logger.Printf("%s Created default config file: %s", util.Yellow("[CONFIG]"), s.path)
		s.logger.Printf("%s Please fill in your Mastodon credentials.", util.Yellow("[CONFIG]"))
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", s.path, err)
	}

	v := viper.New()
	v.SetConfigType("json")
	v.SetDefault("mastodon.instance_url", DefaultInstanceURL)
	v.SetDefault("mastodon.client_key", "")
	v.SetDefault("mastodon.client_secret", "")
	v.SetDefault("mastodon.access_token", "")
	v.SetDefault("youtube.search_base_url", DefaultSearchBaseURL)

	if err := v.ReadConfig(bytes.NewReader(raw)); err != nil {
		return Config{}, fmt.Errorf("%w: %s: %v", ErrMalformed, s.path, err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %s: %v", ErrMalformed, s.path, err)
	}
	return cfg, nil
}

// Save replaces the stored document by writing a sibling temp file and
// renaming it over the target.
func (s *Store) Save(cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".config-*.json")
	if err != nil {
		return fmt.Errorf("create temp config in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp config: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace config %s: %w", s.path, err)
	}
	return nil
}
