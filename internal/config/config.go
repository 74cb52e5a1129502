package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"
)

const (
	DefaultMaxErrorsInFile = 10
	DefaultMaxFailedFiles  = 5
)

// ServerConfig describes one target server from the "Servers" list.
type ServerConfig struct {
	ID          string            `json:"Id"`
	Description string            `json:"Description"`
	ServerName  string            `json:"ServerName"`
	Port        string            `json:"Port"`
	Database    string            `json:"Database"`
	Username    string            `json:"Username"`
	Password    string            `json:"Password"`
	Disabled    bool              `json:"Disabled"`
	Vars        map[string]string `json:"Vars"`
}

// Config is the run document. It is loaded once and never written back.
type Config struct {
	BasePath        string         `json:"BasePath"`
	MaxErrorsInFile int            `json:"MaxErrorsInFile"`
	MaxFailedFiles  int            `json:"MaxFailedFiles"`
	Servers         []ServerConfig `json:"Servers"`
}

// Load reads and validates the run document at path.
func Load(fs afero.Fs, path string) (*Config, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.MaxErrorsInFile == 0 {
		c.MaxErrorsInFile = DefaultMaxErrorsInFile
	}
	if c.MaxFailedFiles == 0 {
		c.MaxFailedFiles = DefaultMaxFailedFiles
	}

	for i := range c.Servers {
		s := &c.Servers[i]
		if s.Password == "" {
			s.Password = os.Getenv(PasswordEnvKey(s.ID))
		}
		if s.Vars == nil {
			s.Vars = map[string]string{}
		}
	}
}

// PasswordEnvKey is the environment variable consulted when a server has no
// password in the document, e.g. SPCHECK_PASSWORD_PROD_EU.
func PasswordEnvKey(id string) string {
	key := strings.ToUpper(strings.NewReplacer("-", "_", ".", "_", " ", "_").Replace(id))
	return envPrefix + "_PASSWORD_" + key
}

func (c *Config) Validate() error {
	var errs []error

	if c.BasePath == "" {
		errs = append(errs, errors.New("BasePath is required"))
	}
	if c.MaxErrorsInFile < 0 {
		errs = append(errs, fmt.Errorf("MaxErrorsInFile must not be negative, got %d", c.MaxErrorsInFile))
	}
	if c.MaxFailedFiles < 0 {
		errs = append(errs, fmt.Errorf("MaxFailedFiles must not be negative, got %d", c.MaxFailedFiles))
	}

	seen := make(map[string]bool)
	for i, s := range c.Servers {
		if s.ID == "" {
			errs = append(errs, fmt.Errorf("server #%d: Id is required", i))
			continue
		}
		if seen[s.ID] {
			errs = append(errs, fmt.Errorf("server %s: duplicate Id", s.ID))
		}
		seen[s.ID] = true

		if s.ServerName == "" {
			errs = append(errs, fmt.Errorf("server %s: ServerName is required", s.ID))
		}
		if s.Database == "" {
			errs = append(errs, fmt.Errorf("server %s: Database is required", s.ID))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// Label is the text shown in the server header, falling back to the id.
func (s ServerConfig) Label() string {
	if s.Description != "" {
		return s.Description
	}
	return s.ID
}
