// Package config loads bridge configuration from a YAML file, environment
// variables, and flags via viper, grounded on jmylchreest-keylightd's
// internal/config package.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the set of options a single bridge personality needs to start.
type Config struct {
	HubID      string
	Port       int
	BindAddr   string
	Debug      bool
	AdInterval int // SSDP NOTIFY ssdp:alive interval in seconds, as read; hub.Start does not use it and always advertises every 30 s
}

func getConfigBaseDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "echo-hue-bridge")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "echo-hue-bridge")
}

// Load reads configFile if given, else the default location under
// XDG_CONFIG_HOME, falling back to defaults when neither exists. Viper
// merges file values with ECHOHUE_-prefixed environment variables.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault("hub_id", "0123456789abcdef")
	v.SetDefault("port", 80)
	v.SetDefault("bind_addr", "0.0.0.0")
	v.SetDefault("debug", false)
	v.SetDefault("ad_interval", 30)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigFile(filepath.Join(getConfigBaseDir(), "config.yaml"))
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("config: reading config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix("ECHOHUE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Config{
		HubID:      v.GetString("hub_id"),
		Port:       v.GetInt("port"),
		BindAddr:   v.GetString("bind_addr"),
		Debug:      v.GetBool("debug"),
		AdInterval: v.GetInt("ad_interval"),
	}, nil
}
