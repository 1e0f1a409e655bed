package cache

import (
	"fmt"
	"strconv"

	"github.com/neon-engine/neonhost/logger"
	"github.com/neon-engine/neonhost/util"
)

// live entities of a scene: entity id -> host id
// so that in a multi host setup we know which host runs an entity
func liveEntityKey(sceneKey string) string {
	return fmt.Sprintf("liveentity:%v", sceneKey)
}

// AddLiveEntity records that hostId owns the entity, false if another host
// already owns it.
func AddLiveEntity(kvCache KvCache, sceneKey string, entityId uint64, hostId int32) bool {
	field := strconv.FormatUint(entityId, 10)
	owners, err := kvCache.GetMap(liveEntityKey(sceneKey))
	if err != nil {
		logger.Error("AddLiveEntity %v err:%v", entityId, err)
		return false
	}
	if owner, ok := owners[field]; ok && util.Atoi(owner) != int(hostId) {
		return false
	}
	if _, err = kvCache.SetMapField(liveEntityKey(sceneKey), field, hostId); IsRedisError(err) {
		logger.Error("AddLiveEntity %v err:%v", entityId, err)
		return false
	}
	return true
}

func RemoveLiveEntity(kvCache KvCache, sceneKey string, entityId uint64) bool {
	err := kvCache.DelMapField(liveEntityKey(sceneKey), strconv.FormatUint(entityId, 10))
	if IsRedisError(err) {
		logger.Error("RemoveLiveEntity %v err:%v", entityId, err)
		return false
	}
	return true
}

// GetLiveEntityHost returns the owning host id, 0 if none.
func GetLiveEntityHost(kvCache KvCache, sceneKey string, entityId uint64) int32 {
	owners, err := kvCache.GetMap(liveEntityKey(sceneKey))
	if err != nil {
		return 0
	}
	return int32(util.Atoi(owners[strconv.FormatUint(entityId, 10)]))
}
