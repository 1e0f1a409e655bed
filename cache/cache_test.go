package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/neon-engine/neonhost/db"
	"google.golang.org/protobuf/proto"
)

// in memory KvCache, enough for the cache helpers
type memCache struct {
	values map[string]string
	hashes map[string]map[string]string
}

var _ KvCache = (*memCache)(nil)

func newMemCache() *memCache {
	return &memCache{
		values: make(map[string]string),
		hashes: make(map[string]map[string]string),
	}
}

func (this *memCache) Get(key string) (string, error) {
	v, ok := this.values[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (this *memCache) Set(key string, value any, expiration time.Duration) error {
	if protoMessage, ok := value.(proto.Message); ok {
		return this.SetProto(key, protoMessage, expiration)
	}
	this.values[key] = fmt.Sprint(value)
	return nil
}

func (this *memCache) Del(key ...string) error {
	for _, k := range key {
		delete(this.values, k)
		delete(this.hashes, k)
	}
	return nil
}

func (this *memCache) GetProto(key string, value proto.Message) error {
	v, ok := this.values[key]
	if !ok {
		return nil
	}
	return proto.Unmarshal([]byte(v), value)
}

func (this *memCache) SetProto(key string, value proto.Message, expiration time.Duration) error {
	bytes, err := proto.Marshal(value)
	if err != nil {
		return err
	}
	this.values[key] = string(bytes)
	return nil
}

func (this *memCache) GetMap(key string) (map[string]string, error) {
	return this.hashes[key], nil
}

func (this *memCache) SetMapField(key, fieldName string, value any) (bool, error) {
	m, ok := this.hashes[key]
	if !ok {
		m = make(map[string]string)
		this.hashes[key] = m
	}
	_, exists := m[fieldName]
	m[fieldName] = fmt.Sprint(value)
	return !exists, nil
}

func (this *memCache) DelMapField(key string, fields ...string) error {
	for _, f := range fields {
		delete(this.hashes[key], f)
	}
	return nil
}

func TestIsRedisError(t *testing.T) {
	if IsRedisError(nil) || IsRedisError(redis.Nil) {
		t.Fatal("nil and redis.Nil are not errors")
	}
	if !IsRedisError(context.Canceled) {
		t.Fatal("expected error")
	}
}

func TestComponentCache(t *testing.T) {
	kv := newMemCache()
	entityData := &db.EntityData{
		Id:   42,
		Name: "player",
		Components: []db.ComponentData{
			{Name: "Mover", Data: map[string]any{"speed": 2.5, "tags": []any{"a", "b"}}},
			{Name: "Tag"},
		},
	}
	if err := SaveComponentCache(kv, "level1", entityData); err != nil {
		t.Fatal(err)
	}
	if len(kv.values) != 1 {
		t.Fatalf("cached:%v", len(kv.values))
	}

	loaded := &db.EntityData{
		Id: 42,
		Components: []db.ComponentData{
			{Name: "Mover", Data: map[string]any{"speed": 1.0}},
			{Name: "Tag"},
		},
	}
	count, err := LoadComponentCache(kv, "level1", loaded)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 || loaded.Components[0].Data["speed"] != 2.5 || loaded.Components[1].Data != nil {
		t.Fatalf("count:%v loaded:%+v", count, loaded.Components)
	}
	// other scene keys do not see it
	other := &db.EntityData{Id: 42, Components: []db.ComponentData{{Name: "Mover"}}}
	if count, _ = LoadComponentCache(kv, "level2", other); count != 0 {
		t.Fatal("cache leaked across scenes")
	}

	if err = DelComponentCache(kv, "level1", entityData); err != nil {
		t.Fatal(err)
	}
	if len(kv.values) != 0 {
		t.Fatal("cache not deleted")
	}
}

func TestLiveEntity(t *testing.T) {
	kv := newMemCache()
	if !AddLiveEntity(kv, "level1", 42, 1) {
		t.Fatal("add")
	}
	if !AddLiveEntity(kv, "level1", 42, 1) {
		t.Fatal("same host add again")
	}
	if AddLiveEntity(kv, "level1", 42, 2) {
		t.Fatal("owned by another host")
	}
	if GetLiveEntityHost(kv, "level1", 42) != 1 {
		t.Fatal("owner")
	}
	if !RemoveLiveEntity(kv, "level1", 42) || GetLiveEntityHost(kv, "level1", 42) != 0 {
		t.Fatal("remove")
	}
}

func TestRedisCache(t *testing.T) {
	client := NewRedis([]string{"127.0.0.1:6379"}, "", "", false)
	defer CloseRedis()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}
	kv := NewRedisCache(client)
	sceneKey := "neonhost_test"
	defer kv.Del(liveEntityKey(sceneKey))
	entityData := &db.EntityData{
		Id:         7,
		Components: []db.ComponentData{{Name: "Mover", Data: map[string]any{"speed": 3.0}}},
	}
	if err := SaveComponentCache(kv, sceneKey, entityData); err != nil {
		t.Fatal(err)
	}
	defer DelComponentCache(kv, sceneKey, entityData)
	entityData.Components[0].Data = nil
	if count, err := LoadComponentCache(kv, sceneKey, entityData); err != nil || count != 1 {
		t.Fatalf("count:%v err:%v", count, err)
	}
	if entityData.Components[0].Data["speed"] != 3.0 {
		t.Fatalf("data:%v", entityData.Components[0].Data)
	}
	if !AddLiveEntity(kv, sceneKey, 7, 3) || GetLiveEntityHost(kv, sceneKey, 7) != 3 {
		t.Fatal("live entity")
	}
}
