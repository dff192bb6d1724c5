package config

import (
	"wallet-service/src/internal/gateway/billing"
	"wallet-service/src/internal/gateway/collection"
	"wallet-service/src/pkg/log"

	"github.com/spf13/viper"
)

func NewBillingClient(viper *viper.Viper, log log.Log) billing.Client {
	return billing.NewClient(viper, log)
}

func NewCollectionClient(viper *viper.Viper, log log.Log) collection.Client {
	return collection.NewClient(viper, log)
}
