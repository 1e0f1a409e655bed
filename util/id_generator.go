package util

import (
	"sync"

	"github.com/fish-tennis/snowflake"
)

var (
	_snowFlake     *snowflake.SnowFlake
	_snowFlakeOnce sync.Once
)

// InitIdGenerator must be called once at startup with the host id,
// otherwise worker 0 is used
func InitIdGenerator(workerId uint16) {
	_snowFlakeOnce.Do(func() {
		_snowFlake = snowflake.NewSnowFlake(workerId)
	})
}

// GenUniqueId returns a process-unique id
func GenUniqueId() int64 {
	InitIdGenerator(0)
	return int64(_snowFlake.NextId())
}
