package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

var configFilePath string

// initConfig layers defaults, the config file and SCREAMS_* environment variables
func initConfig(path string) error {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		path = filepath.Join(home, ".config", "screams", "cli.toml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	configFilePath = path

	viper.SetConfigType("toml")
	viper.SetDefault("api.base_url", "http://localhost:8787")
	viper.SetDefault("api.timeout", 30)

	viper.SetEnvPrefix("SCREAMS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetConfigFile(path)
	// A missing file just means defaults
	_ = viper.ReadInConfig()

	if f := rootCmd.PersistentFlags().Lookup("api"); f != nil && f.Changed {
		viper.Set("api.base_url", f.Value.String())
	}
	if f := rootCmd.PersistentFlags().Lookup("token"); f != nil && f.Changed {
		viper.Set("auth.token", f.Value.String())
	}
	return nil
}

// saveToken persists the ID token; an empty token logs out
func saveToken(token string) error {
	viper.Set("auth.token", token)
	return viper.WriteConfigAs(configFilePath)
}
