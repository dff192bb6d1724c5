package redis

import (
	"testing"

	"wallet-service/src/pkg/log"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitConnectionReturnsErrorWhenUnreachable(t *testing.T) {
	LoadConfig(&CfgRedis{
		RedisHost: "127.0.0.1",
		RedisPort: "1",
	})

	err := InitConnection(log.GetLogger())

	require.Error(t, err)
	assert.Nil(t, GetClient())
}

func TestLoadConfigSplitsClusterNodes(t *testing.T) {
	LoadConfig(&CfgRedis{
		UseCluster:           true,
		RedisClusterNode:     "10.0.0.1:6379;10.0.0.2:6379",
		RedisClusterPassword: "secret",
	})

	assert.True(t, AppConfigData.UseCluster)
	assert.Equal(t, []string{"10.0.0.1:6379", "10.0.0.2:6379"}, RedisClusterConfigData.Hosts)
	assert.Equal(t, "secret", RedisClusterConfigData.Password)
}
