package cache

import (
	"time"

	"google.golang.org/protobuf/proto"
)

// KvCache is the key value cache the host writes component data to.
type KvCache interface {
	Get(key string) (string, error)
	// a proto.Message value is marshaled first
	Set(key string, value any, expiration time.Duration) error
	Del(key ...string) error

	// GetProto leaves value untouched when the key does not exist.
	GetProto(key string, value proto.Message) error
	SetProto(key string, value proto.Message, expiration time.Duration) error

	// hash helpers, used for the live entity index
	GetMap(key string) (map[string]string, error)
	SetMapField(key, fieldName string, value any) (isNewField bool, err error)
	DelMapField(key string, fields ...string) error
}
