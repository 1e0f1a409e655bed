// Package cfg loads the host configuration: a yaml file first, then
// NEON_* environment variables on top of it.
package cfg

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/neon-engine/neonhost/logger"
	"gopkg.in/yaml.v3"
)

const (
	EnvPrefix = "NEON_"

	StorageSqlite = "sqlite"
	StorageMongo  = "mongo"
)

type HostConfig struct {
	// unique per host, also the snowflake worker id
	HostId         int32         `yaml:"HostId" env:"HOST_ID"`
	UpdateInterval time.Duration `yaml:"UpdateInterval" env:"UPDATE_INTERVAL"`
	EntityCapacity int           `yaml:"EntityCapacity" env:"ENTITY_CAPACITY"`
	// save the scene every N updates, 0 saves only on exit
	AutosaveEvery int64 `yaml:"AutosaveEvery" env:"AUTOSAVE_EVERY"`
	// write component data to redis every N updates, used to repair the
	// scene after a crash between two saves
	CacheEvery int64 `yaml:"CacheEvery" env:"CACHE_EVERY"`

	Log     logger.Config `yaml:"Log" envPrefix:"LOG_"`
	Script  ScriptConfig  `yaml:"Script" envPrefix:"SCRIPT_"`
	Storage StorageConfig `yaml:"Storage" envPrefix:"STORAGE_"`
	Redis   RedisConfig   `yaml:"Redis" envPrefix:"REDIS_"`
	Scene   SceneConfig   `yaml:"Scene" envPrefix:"SCENE_"`
}

// ScriptConfig is passed through to the scripting side untouched.
type ScriptConfig struct {
	Version   string `yaml:"Version" env:"VERSION"`
	DebugPort int    `yaml:"DebugPort" env:"DEBUG_PORT"`
}

type StorageConfig struct {
	// sqlite or mongo
	Driver     string      `yaml:"Driver" env:"DRIVER"`
	SqlitePath string      `yaml:"SqlitePath" env:"SQLITE_PATH"`
	Mongo      MongoConfig `yaml:"Mongo" envPrefix:"MONGO_"`
}

type MongoConfig struct {
	Uri        string `yaml:"Uri" env:"URI"`
	Db         string `yaml:"Db" env:"DB"`
	Collection string `yaml:"Collection" env:"COLLECTION"`
}

type RedisConfig struct {
	Enabled  bool     `yaml:"Enabled" env:"ENABLED"`
	Uri      []string `yaml:"Uri" env:"URI"`
	UserName string   `yaml:"UserName" env:"USER_NAME"`
	Password string   `yaml:"Password" env:"PASSWORD"`
	Cluster  bool     `yaml:"Cluster" env:"CLUSTER"`
}

type SceneConfig struct {
	// the scene loaded at startup and saved under the same key
	Key string `yaml:"Key" env:"KEY"`
}

func DefaultHostConfig() *HostConfig {
	return &HostConfig{
		HostId:         1,
		UpdateInterval: 50 * time.Millisecond,
		EntityCapacity: 1024,
		AutosaveEvery:  1200,
		CacheEvery:     100,
		Log: logger.Config{
			Dir:        "log",
			Name:       "neonhost",
			Level:      "info",
			MaxSize:    100,
			MaxBackups: 10,
			MaxAge:     30,
		},
		Storage: StorageConfig{
			Driver:     StorageSqlite,
			SqlitePath: "neonhost.db",
			Mongo: MongoConfig{
				Uri:        "mongodb://localhost:27017",
				Db:         "neonhost",
				Collection: "scene",
			},
		},
		Scene: SceneConfig{
			Key: "main",
		},
	}
}

// LoadConfig reads the yaml file over the defaults, then applies NEON_*
// environment variables. An empty fileName skips the file.
func LoadConfig(fileName string) (*HostConfig, error) {
	config := DefaultHostConfig()
	if fileName != "" {
		fileData, err := os.ReadFile(fileName)
		if err != nil {
			return nil, fmt.Errorf("read config %v: %w", fileName, err)
		}
		if err = yaml.Unmarshal(fileData, config); err != nil {
			return nil, fmt.Errorf("decode config %v: %w", fileName, err)
		}
	}
	if err := env.ParseWithOptions(config, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (this *HostConfig) Validate() error {
	var errs []error
	if this.HostId < 0 || this.HostId > 1023 {
		errs = append(errs, fmt.Errorf("HostId %v out of range [0,1023]", this.HostId))
	}
	if this.UpdateInterval <= 0 {
		errs = append(errs, fmt.Errorf("UpdateInterval %v must be positive", this.UpdateInterval))
	}
	if this.AutosaveEvery < 0 || this.CacheEvery < 0 {
		errs = append(errs, fmt.Errorf("AutosaveEvery %v and CacheEvery %v must not be negative", this.AutosaveEvery, this.CacheEvery))
	}
	switch this.Storage.Driver {
	case StorageSqlite:
		if this.Storage.SqlitePath == "" {
			errs = append(errs, errors.New("Storage.SqlitePath is empty"))
		}
	case StorageMongo:
		if this.Storage.Mongo.Uri == "" || this.Storage.Mongo.Db == "" || this.Storage.Mongo.Collection == "" {
			errs = append(errs, errors.New("Storage.Mongo needs Uri, Db and Collection"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown Storage.Driver %q", this.Storage.Driver))
	}
	if this.Redis.Enabled && len(this.Redis.Uri) == 0 {
		errs = append(errs, errors.New("Redis.Uri is empty"))
	}
	if this.Scene.Key == "" {
		errs = append(errs, errors.New("Scene.Key is empty"))
	}
	return errors.Join(errs...)
}
