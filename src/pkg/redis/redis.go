package redis

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"wallet-service/src/pkg/log"

	"github.com/redis/go-redis/v9"
)

const (
	dialTimeout = 5 * time.Second
	rwTimeout   = 3 * time.Second
)

var redisClient redis.UniversalClient

// InitConnection dials the server or cluster described by the loaded config
// and verifies it with a ping. The client is shared process-wide through
// GetClient.
func InitConnection(logger log.Log) error {
	if AppConfigData.UseCluster {
		redisClient = redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:        RedisClusterConfigData.Hosts,
			Username:     RedisClusterConfigData.Username,
			Password:     RedisClusterConfigData.Password,
			TLSConfig:    tlsConfig(RedisClusterConfigData.EnableTLS),
			DialTimeout:  dialTimeout,
			ReadTimeout:  rwTimeout,
			WriteTimeout: rwTimeout,
		})
	} else {
		redisClient = redis.NewClient(&redis.Options{
			Addr:         fmt.Sprintf("%s:%s", RedisConfigData.Host, RedisConfigData.Port),
			Password:     RedisConfigData.Password,
			DB:           RedisConfigData.DB,
			TLSConfig:    tlsConfig(RedisConfigData.EnableTLS),
			DialTimeout:  dialTimeout,
			ReadTimeout:  rwTimeout,
			WriteTimeout: rwTimeout,
			PoolSize:     10,
			MaxRetries:   2,
		})
	}

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Error("redis", fmt.Sprintf("failed to ping server: %v", err), "InitConnection", "")
		redisClient = nil
		return err
	}
	return nil
}

func tlsConfig(enabled bool) *tls.Config {
	if !enabled {
		return nil
	}
	return &tls.Config{MinVersion: tls.VersionTLS12}
}

func GetClient() redis.UniversalClient {
	return redisClient
}
