package cache

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"google.golang.org/protobuf/proto"
)

// https://github.com/uber-go/guide/blob/master/style.md#verify-interface-compliance
var _ KvCache = (*RedisCache)(nil)

type RedisCache struct {
	redisClient redis.Cmdable
}

func NewRedisCache(redisClient redis.Cmdable) *RedisCache {
	return &RedisCache{
		redisClient: redisClient,
	}
}

func (this *RedisCache) Get(key string) (string, error) {
	return this.redisClient.Get(context.Background(), key).Result()
}

func (this *RedisCache) Set(key string, value any, expiration time.Duration) error {
	if protoMessage, ok := value.(proto.Message); ok {
		return this.SetProto(key, protoMessage, expiration)
	}
	_, err := this.redisClient.Set(context.Background(), key, value, expiration).Result()
	return err
}

func (this *RedisCache) Del(key ...string) error {
	_, err := this.redisClient.Del(context.Background(), key...).Result()
	return err
}

func (this *RedisCache) GetProto(key string, value proto.Message) error {
	str, err := this.redisClient.Get(context.Background(), key).Result()
	// missing key or empty data: keep value as is
	if err == redis.Nil || len(str) == 0 {
		return nil
	}
	if err != nil {
		return err
	}
	return proto.Unmarshal([]byte(str), value)
}

func (this *RedisCache) SetProto(key string, value proto.Message, expiration time.Duration) error {
	bytes, protoErr := proto.Marshal(value)
	if protoErr != nil {
		return protoErr
	}
	_, err := this.redisClient.Set(context.Background(), key, bytes, expiration).Result()
	return err
}

func (this *RedisCache) GetMap(key string) (map[string]string, error) {
	m, err := this.redisClient.HGetAll(context.Background(), key).Result()
	if IsRedisError(err) {
		return nil, err
	}
	return m, nil
}

func (this *RedisCache) SetMapField(key, fieldName string, value any) (isNewField bool, err error) {
	ret, redisError := this.redisClient.HSet(context.Background(), key, fieldName, value).Result()
	return ret == 1, redisError
}

func (this *RedisCache) DelMapField(key string, fields ...string) error {
	_, err := this.redisClient.HDel(context.Background(), key, fields...).Result()
	return err
}
