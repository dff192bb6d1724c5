package config

import (
	"strings"

	"github.com/spf13/viper"
)

// NewViper loads config.json from the working directory, with environment
// variables overriding file values (WALLET_MYSQL_HOST overrides mysql.host).
func NewViper() *viper.Viper {
	config := viper.New()

	config.SetConfigName("config")
	config.SetConfigType("json")
	config.AddConfigPath("./")
	config.AddConfigPath("./../")
	config.SetEnvPrefix("WALLET")
	config.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	config.AutomaticEnv()

	_ = config.ReadInConfig()

	return config
}
