package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/de-tools/turbo-critical/pkg/models/domain"
)

const (
	EnvPrefix       = "TURBO"
	DefaultTarget   = "localhost"
	DefaultUsername = "administrator"
)

// Settings are read from an optional YAML file and TURBO_* environment variables
type Settings struct {
	Target       string        `mapstructure:"target"`
	Username     string        `mapstructure:"username"`
	Password     string        `mapstructure:"password"`
	EncodedCreds string        `mapstructure:"encoded_creds"`
	Insecure     bool          `mapstructure:"insecure"`
	EntityType   string        `mapstructure:"entity_type"`
	Timeout      time.Duration `mapstructure:"timeout"`
	RetryCount   int           `mapstructure:"retry_count"`
	// Ranking maps a commodity name to a ranking kind ("utilization" or "delta")
	Ranking map[string]string `mapstructure:"ranking"`
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// credentials default to empty so that ini profiles can fill them in
	v.SetDefault("target", "")
	v.SetDefault("username", "")
	v.SetDefault("password", "")
	v.SetDefault("encoded_creds", "")
	v.SetDefault("insecure", false)
	v.SetDefault("entity_type", domain.ClassVirtualMachine)
	v.SetDefault("timeout", 60*time.Second)
	v.SetDefault("retry_count", 2)
	return v
}

// LoadSettings reads settings from path, or from the environment only when path is empty
func LoadSettings(path string) (*Settings, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	return &settings, nil
}

// ResolveCredentials picks each field from the first source that sets it.
// Sources are given in decreasing precedence; the target falls back to localhost.
func ResolveCredentials(sources ...domain.Credentials) domain.Credentials {
	var resolved domain.Credentials
	for _, src := range sources {
		if resolved.Target == "" {
			resolved.Target = src.Target
		}
		if resolved.Username == "" && resolved.EncodedCreds == "" {
			switch {
			case src.EncodedCreds != "":
				resolved.EncodedCreds = src.EncodedCreds
			case src.Username != "":
				resolved.Username = src.Username
				resolved.Password = src.Password
			}
		} else if resolved.Username != "" && resolved.Password == "" && src.Username == resolved.Username {
			resolved.Password = src.Password
		}
	}
	if resolved.Target == "" {
		resolved.Target = DefaultTarget
	}
	return resolved
}

func (s *Settings) Credentials() domain.Credentials {
	return domain.Credentials{
		Target:       s.Target,
		Username:     s.Username,
		Password:     s.Password,
		EncodedCreds: s.EncodedCreds,
	}
}
