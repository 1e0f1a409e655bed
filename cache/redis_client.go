package cache

import (
	"errors"

	"github.com/go-redis/redis/v8"
)

var (
	// singleton
	// redis.Cmdable covers both cluster and single node clients
	_redisClient redis.Cmdable
)

func GetRedis() redis.Cmdable {
	return _redisClient
}

// Get is a shorter GetRedis
func Get() redis.Cmdable {
	return _redisClient
}

func NewRedis(addrs []string, username, password string, isCluster bool) redis.Cmdable {
	if isCluster {
		return NewRedisClient(addrs, username, password)
	}
	return NewRedisSingleClient(addrs[0], username, password)
}

// NewRedisClient connects to a redis cluster.
func NewRedisClient(addrs []string, username, password string) redis.Cmdable {
	_redisClient = redis.NewClusterClient(&redis.ClusterOptions{
		Addrs:    addrs,
		Username: username,
		Password: password,
	})
	return _redisClient
}

func NewRedisSingleClient(addr string, username, password string) redis.Cmdable {
	_redisClient = redis.NewClient(&redis.Options{
		Addr:     addr,
		Username: username,
		Password: password,
	})
	return _redisClient
}

// CloseRedis closes the singleton client, if any.
func CloseRedis() error {
	if closer, ok := _redisClient.(interface{ Close() error }); ok {
		_redisClient = nil
		return closer.Close()
	}
	return nil
}

// IsRedisError reports a real failure, a missing key (redis.Nil) is not one.
func IsRedisError(redisError error) bool {
	return redisError != nil && !errors.Is(redisError, redis.Nil)
}
