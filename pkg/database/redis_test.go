package database

import (
	"context"
	"english_club_backend/internal/config"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	host := mr.Host()
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	rdb, err := InitRedis(context.Background(), &config.RedisConfig{
		Host:        host,
		Port:        port,
		PoolSize:    2,
		DialTimeout: 1,
	})
	require.NoError(t, err)
	defer rdb.Close()
	assert.NoError(t, rdb.Set(context.Background(), "k", "v", 0).Err())

	mr.Close()
	_, err = InitRedis(context.Background(), &config.RedisConfig{Host: host, Port: port, DialTimeout: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping redis")
}
