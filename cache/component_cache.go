package cache

import (
	"fmt"
	"time"

	"github.com/fish-tennis/gentity"
	"github.com/neon-engine/neonhost/db"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	SceneCachePrefix = "scene"
	// component caches expire if the host dies without cleaning up
	ComponentCacheExpiration = 24 * time.Hour
)

func componentCacheKey(sceneKey string, entityId uint64, componentName string) string {
	return gentity.GetEntityComponentCacheKey(fmt.Sprintf("%v:%v", SceneCachePrefix, sceneKey), int64(entityId), componentName)
}

// SaveComponentCache writes the data of every component of the entity,
// components without data are skipped.
func SaveComponentCache(kvCache KvCache, sceneKey string, entityData *db.EntityData) error {
	for _, componentData := range entityData.Components {
		if componentData.Data == nil {
			continue
		}
		value, err := structpb.NewStruct(componentData.Data)
		if err != nil {
			return fmt.Errorf("cache %v of %v: %w", componentData.Name, entityData.Id, err)
		}
		key := componentCacheKey(sceneKey, entityData.Id, componentData.Name)
		if err = kvCache.SetProto(key, value, ComponentCacheExpiration); err != nil {
			return err
		}
	}
	return nil
}

// LoadComponentCache overwrites component data with cached data, where the
// cache has any. It returns how many components were fixed from the cache.
func LoadComponentCache(kvCache KvCache, sceneKey string, entityData *db.EntityData) (int, error) {
	count := 0
	for i := range entityData.Components {
		componentData := &entityData.Components[i]
		key := componentCacheKey(sceneKey, entityData.Id, componentData.Name)
		value := &structpb.Struct{}
		if err := kvCache.GetProto(key, value); err != nil {
			return count, err
		}
		if len(value.GetFields()) == 0 {
			continue
		}
		componentData.Data = value.AsMap()
		count++
	}
	return count, nil
}

// DelComponentCache removes the cached data of the entity's components.
func DelComponentCache(kvCache KvCache, sceneKey string, entityData *db.EntityData) error {
	if len(entityData.Components) == 0 {
		return nil
	}
	keys := make([]string, 0, len(entityData.Components))
	for _, componentData := range entityData.Components {
		keys = append(keys, componentCacheKey(sceneKey, entityData.Id, componentData.Name))
	}
	return kvCache.Del(keys...)
}
