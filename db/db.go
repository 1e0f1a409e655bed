package db

import (
	"context"
	"errors"
	"time"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

var ErrEmptyKey = errors.New("db: empty scene key")

// SceneData is the saved form of a world
type SceneData struct {
	Key      string       `bson:"key"`
	Revision int64        `bson:"revision"`
	SavedAt  time.Time    `bson:"savedAt"`
	Entities []EntityData `bson:"entities"`
}

type EntityData struct {
	// raw entity handle id, restored as is
	Id     uint64          `bson:"id"`
	Name   string          `bson:"name"`
	Parent uint64          `bson:"parent"`
	// in attach order
	Components []ComponentData `bson:"components"`
}

type ComponentData struct {
	Name string         `bson:"name"`
	Data map[string]any `bson:"-"`
}

// SceneDb stores scenes by key
type SceneDb interface {
	// FindScene loads the scene into data, false if the key does not exist
	FindScene(ctx context.Context, key string, data *SceneData) (bool, error)

	// SaveScene inserts or replaces the scene
	SaveScene(ctx context.Context, data *SceneData) error

	DeleteScene(ctx context.Context, key string) error

	Close() error
}

// EncodeData serializes component data as a protobuf Struct
func EncodeData(data map[string]any) ([]byte, error) {
	if data == nil {
		return nil, nil
	}
	s, err := structpb.NewStruct(data)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(s)
}

// DecodeData is the reverse of EncodeData. Numbers come back as float64.
func DecodeData(bytes []byte) (map[string]any, error) {
	if len(bytes) == 0 {
		return nil, nil
	}
	s := &structpb.Struct{}
	if err := proto.Unmarshal(bytes, s); err != nil {
		return nil, err
	}
	return s.AsMap(), nil
}
