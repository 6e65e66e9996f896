package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

const (
	configName = "imagedb"
	envPrefix  = "imagedb"
)

type Config struct {
	CacheTTL        time.Duration `mapstructure:"cacheTTL"`
	ListenAddr      string        `mapstructure:"listenAddr"`
	MaxBundleSize   int           `mapstructure:"maxBundleSize"`
	SoftwareVersion string        `mapstructure:"softwareVersion"`
	StoreRoot       string        `mapstructure:"storeRoot"`
}

// Default returns the configuration used when no config file is found.
func Default() Config {
	return Config{
		CacheTTL:      time.Minute,
		ListenAddr:    ":8080",
		MaxBundleSize: 100 * 1024 * 1024,
		StoreRoot:     filepath.Join(xdg.DataHome, "imagedb"),
	}
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName(configName)
	viper.SetConfigType("json")

	d := Default()
	viper.SetDefault("cacheTTL", d.CacheTTL)
	viper.SetDefault("listenAddr", d.ListenAddr)
	viper.SetDefault("maxBundleSize", d.MaxBundleSize)
	viper.SetDefault("softwareVersion", d.SoftwareVersion)
	viper.SetDefault("storeRoot", d.StoreRoot)

	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
