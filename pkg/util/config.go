package util

import (
	"fmt"

	"github.com/spf13/viper"
)

// ReadConfig loads ./data/config.yaml into viper. Values found there act as
// defaults that the command line can still override.
func ReadConfig() error {
	viper.SetConfigName("config")
	viper.AddConfigPath("./data/")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("fatal error config file: %w", err)
	}
	return nil
}
