// Package scripthost is the process hosting one scene: it loads the scene
// from storage, drives the component update loop and saves the scene back.
package scripthost

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/neon-engine/neonhost/cache"
	"github.com/neon-engine/neonhost/cfg"
	"github.com/neon-engine/neonhost/common"
	"github.com/neon-engine/neonhost/db"
	"github.com/neon-engine/neonhost/db/mongodb"
	"github.com/neon-engine/neonhost/db/sqlite"
	"github.com/neon-engine/neonhost/entity"
	"github.com/neon-engine/neonhost/logger"
	"github.com/neon-engine/neonhost/scene"
	"github.com/neon-engine/neonhost/script"
	"github.com/neon-engine/neonhost/util"
)

var (
	_ common.Host = (*ScriptHost)(nil)
)

type ScriptHost struct {
	common.BaseHost
	config  *cfg.HostConfig
	factory scene.Factory
	world   *scene.World
	// optional, nil without redis
	kvCache    cache.KvCache
	logCloser  io.Closer
	lastUpdate time.Time
}

// NewScriptHost creates a host that builds saved components with factory.
func NewScriptHost(factory scene.Factory) *ScriptHost {
	if factory == nil {
		factory = func(name string) (script.Component, bool) {
			return nil, false
		}
	}
	return &ScriptHost{
		factory: factory,
	}
}

func (this *ScriptHost) GetConfig() *cfg.HostConfig {
	return this.config
}

// GetWorld returns the hosted world. Outside of the update loop only
// World.Post may be called.
func (this *ScriptHost) GetWorld() *scene.World {
	return this.world
}

func (this *ScriptHost) Init(ctx context.Context, configFile string) bool {
	config, err := cfg.LoadConfig(configFile)
	if err != nil {
		logger.Error("LoadConfig err:%v", err)
		return false
	}
	this.config = config
	this.logCloser, err = logger.InitLog(config.Log)
	if err != nil {
		logger.Error("InitLog err:%v", err)
		return false
	}
	util.InitIdGenerator(uint16(config.HostId))
	this.SetUpdateInterval(config.UpdateInterval)
	this.SetUpdater(this.OnUpdate)
	if !this.BaseHost.Init(ctx, configFile) {
		return false
	}
	if err = this.initDb(ctx); err != nil {
		logger.Error("initDb err:%v", err)
		return false
	}
	if err = this.initCache(ctx); err != nil {
		logger.Error("initCache err:%v", err)
		return false
	}
	this.world = scene.NewWorld(config.EntityCapacity)
	if err = this.loadScene(ctx); err != nil {
		logger.Error("loadScene err:%v", err)
		return false
	}
	for _, hook := range this.GetHooks() {
		hook.OnHostInit(this)
	}
	slog.Info("ScriptHost.Init", "hostId", config.HostId, "scene", config.Scene.Key,
		"storage", config.Storage.Driver, "scriptVersion", config.Script.Version)
	return true
}

func (this *ScriptHost) initDb(ctx context.Context) error {
	storage := this.config.Storage
	switch storage.Driver {
	case cfg.StorageMongo:
		mongoDb := mongodb.NewMongoDb(storage.Mongo.Uri, storage.Mongo.Db, storage.Mongo.Collection)
		if err := mongoDb.Connect(ctx); err != nil {
			return err
		}
		db.SetSceneDb(mongoDb)
	default:
		store, err := sqlite.Open(storage.SqlitePath)
		if err != nil {
			return err
		}
		db.SetSceneDb(store)
	}
	return nil
}

func (this *ScriptHost) initCache(ctx context.Context) error {
	redisConfig := this.config.Redis
	if !redisConfig.Enabled {
		return nil
	}
	client := cache.NewRedis(redisConfig.Uri, redisConfig.UserName, redisConfig.Password, redisConfig.Cluster)
	pong, err := client.Ping(ctx).Result()
	if err != nil || pong == "" {
		return fmt.Errorf("redis connect error: %w", err)
	}
	this.kvCache = cache.NewRedisCache(client)
	return nil
}

// loadScene restores the saved scene, component data cached after the last
// save wins over the stored data.
func (this *ScriptHost) loadScene(ctx context.Context) error {
	sceneKey := this.config.Scene.Key
	data := &db.SceneData{}
	found, err := db.GetSceneDb().FindScene(ctx, sceneKey, data)
	if err != nil {
		return err
	}
	if !found {
		slog.Info("NewScene", "scene", sceneKey)
		return nil
	}
	if this.kvCache != nil {
		this.repairCache(data)
	}
	return this.world.Restore(data, this.factory)
}

// cached component data is newer than the stored data when the host went
// down between a cache sync and a save
func (this *ScriptHost) repairCache(data *db.SceneData) {
	repaired := 0
	for i := range data.Entities {
		entityData := &data.Entities[i]
		count, err := cache.LoadComponentCache(this.kvCache, data.Key, entityData)
		if err != nil {
			slog.Error("repairCacheErr", "entity", entityData.Id, "err", err)
			continue
		}
		repaired += count
		cache.AddLiveEntity(this.kvCache, data.Key, entityData.Id, this.config.HostId)
	}
	if repaired > 0 {
		slog.Warn("repairCache", "scene", data.Key, "components", repaired)
	}
}

func (this *ScriptHost) Run(ctx context.Context) {
	this.lastUpdate = time.Now()
	this.BaseHost.Run(ctx)
	logger.Info("ScriptHost.Run")
}

// OnUpdate runs on the update loop goroutine, the owner of the world.
func (this *ScriptHost) OnUpdate(ctx context.Context, updateCount int64) {
	now := time.Now()
	dt := now.Sub(this.lastUpdate)
	this.lastUpdate = now
	this.world.Drain()
	this.world.RunTimers(now)
	// failures are logged by the world
	_ = this.world.Update(dt)
	tick := updateCount + 1
	if this.kvCache != nil && this.config.CacheEvery > 0 && tick%this.config.CacheEvery == 0 {
		this.syncCache()
	}
	if this.config.AutosaveEvery > 0 && tick%this.config.AutosaveEvery == 0 {
		if err := this.Save(ctx); err != nil {
			slog.Error("AutosaveErr", "scene", this.config.Scene.Key, "err", err)
		}
	}
}

func (this *ScriptHost) syncCache() {
	data, err := this.world.Snapshot(this.config.Scene.Key)
	if err != nil {
		slog.Error("syncCacheErr", "err", err)
		return
	}
	for i := range data.Entities {
		entityData := &data.Entities[i]
		if err = cache.SaveComponentCache(this.kvCache, data.Key, entityData); err != nil {
			slog.Error("syncCacheErr", "entity", entityData.Id, "err", err)
			continue
		}
		cache.AddLiveEntity(this.kvCache, data.Key, entityData.Id, this.config.HostId)
	}
}

// Save writes the scene to storage. Must run on the world's goroutine.
func (this *ScriptHost) Save(ctx context.Context) error {
	data, err := this.world.Snapshot(this.config.Scene.Key)
	if err != nil {
		return err
	}
	if err = db.GetSceneDb().SaveScene(ctx, data); err != nil {
		return err
	}
	slog.Info("SaveScene", "scene", data.Key, "revision", data.Revision, "entities", len(data.Entities))
	if this.kvCache != nil {
		// the stored scene is the newest now
		for i := range data.Entities {
			if err = cache.DelComponentCache(this.kvCache, data.Key, &data.Entities[i]); err != nil {
				slog.Error("DelComponentCacheErr", "entity", data.Entities[i].Id, "err", err)
			}
		}
	}
	return nil
}

// Exit expects ctx passed to Run to be cancelled already.
func (this *ScriptHost) Exit() {
	this.BaseHost.Exit()
	// the update loop is gone, this goroutine owns the world now
	this.world.Drain()
	saveCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := this.Save(saveCtx); err != nil {
		slog.Error("ExitSaveErr", "scene", this.config.Scene.Key, "err", err)
	}
	if this.kvCache != nil {
		this.world.RangeEntity(func(h entity.Handle) bool {
			cache.RemoveLiveEntity(this.kvCache, this.config.Scene.Key, h.ID())
			return true
		})
	}
	leaks := this.world.Shutdown()
	if len(leaks) > 0 {
		slog.Warn("ScriptHost leaks", "count", len(leaks))
	}
	if sceneDb := db.GetSceneDb(); sceneDb != nil {
		if err := sceneDb.Close(); err != nil {
			slog.Error("CloseSceneDbErr", "err", err)
		}
		db.SetSceneDb(nil)
	}
	if err := cache.CloseRedis(); err != nil {
		slog.Error("CloseRedisErr", "err", err)
	}
	logger.Info("ScriptHost.Exit")
	if this.logCloser != nil {
		this.logCloser.Close()
	}
}
