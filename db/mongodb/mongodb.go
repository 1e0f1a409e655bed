package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/neon-engine/neonhost/db"
	"github.com/neon-engine/neonhost/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var _ db.SceneDb = (*MongoDb)(nil)

// SceneDb implementation on mongo, one document per scene
type MongoDb struct {
	mongoClient   *mongo.Client
	mongoDatabase *mongo.Database

	uri            string
	dbName         string
	collectionName string
}

// stored form, component data kept as protobuf Struct bytes so nested values
// decode back to plain maps
type sceneDocument struct {
	Key      string           `bson:"key"`
	Revision int64            `bson:"revision"`
	SavedAt  time.Time        `bson:"savedAt"`
	Entities []entityDocument `bson:"entities"`
}

type entityDocument struct {
	Id         int64               `bson:"id"`
	Name       string              `bson:"name"`
	Parent     int64               `bson:"parent"`
	Components []componentDocument `bson:"components"`
}

type componentDocument struct {
	Name string `bson:"name"`
	Data []byte `bson:"data,omitempty"`
}

func NewMongoDb(uri, dbName, collectionName string) *MongoDb {
	if collectionName == "" {
		collectionName = db.SceneDbName
	}
	return &MongoDb{
		uri:            uri,
		dbName:         dbName,
		collectionName: collectionName,
	}
}

func (this *MongoDb) Connect(ctx context.Context) error {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(this.uri))
	if err != nil {
		return fmt.Errorf("mongo connect: %w", err)
	}
	// Ping the primary
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return fmt.Errorf("mongo ping: %w", err)
	}
	this.mongoClient = client
	this.mongoDatabase = this.mongoClient.Database(this.dbName)
	col := this.mongoDatabase.Collection(this.collectionName)
	indexName, indexErr := col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: db.SceneKeyName, Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if indexErr != nil {
		logger.Error("create index err:%v", indexErr)
	} else {
		logger.Info("mongo index:%v", indexName)
	}
	logger.Info("mongo Connected")
	return nil
}

func (this *MongoDb) Close() error {
	if this.mongoClient == nil {
		return nil
	}
	if err := this.mongoClient.Disconnect(context.Background()); err != nil {
		logger.Error(err.Error())
		return err
	}
	this.mongoClient = nil
	logger.Info("mongo Disconnected")
	return nil
}

func (this *MongoDb) collection() *mongo.Collection {
	return this.mongoDatabase.Collection(this.collectionName)
}

func (this *MongoDb) FindScene(ctx context.Context, key string, data *db.SceneData) (bool, error) {
	if key == "" {
		return false, db.ErrEmptyKey
	}
	result := this.collection().FindOne(ctx, bson.D{{Key: db.SceneKeyName, Value: key}})
	if errors.Is(result.Err(), mongo.ErrNoDocuments) {
		return false, nil
	}
	if result.Err() != nil {
		return false, result.Err()
	}
	doc := &sceneDocument{}
	if err := result.Decode(doc); err != nil {
		return false, err
	}
	return true, fromDocument(doc, data)
}

func (this *MongoDb) SaveScene(ctx context.Context, data *db.SceneData) error {
	if data.Key == "" {
		return db.ErrEmptyKey
	}
	doc, err := toDocument(data)
	if err != nil {
		return err
	}
	_, err = this.collection().ReplaceOne(ctx, bson.D{{Key: db.SceneKeyName, Value: data.Key}}, doc,
		options.Replace().SetUpsert(true))
	return err
}

func (this *MongoDb) DeleteScene(ctx context.Context, key string) error {
	if key == "" {
		return db.ErrEmptyKey
	}
	_, err := this.collection().DeleteOne(ctx, bson.D{{Key: db.SceneKeyName, Value: key}})
	return err
}

func toDocument(data *db.SceneData) (*sceneDocument, error) {
	doc := &sceneDocument{
		Key:      data.Key,
		Revision: data.Revision,
		SavedAt:  data.SavedAt,
	}
	if doc.SavedAt.IsZero() {
		doc.SavedAt = time.Now()
	}
	for _, entityData := range data.Entities {
		entityDoc := entityDocument{
			Id:     int64(entityData.Id),
			Name:   entityData.Name,
			Parent: int64(entityData.Parent),
		}
		for _, componentData := range entityData.Components {
			bytes, err := db.EncodeData(componentData.Data)
			if err != nil {
				return nil, fmt.Errorf("encode component %v: %w", componentData.Name, err)
			}
			entityDoc.Components = append(entityDoc.Components, componentDocument{
				Name: componentData.Name,
				Data: bytes,
			})
		}
		doc.Entities = append(doc.Entities, entityDoc)
	}
	return doc, nil
}

func fromDocument(doc *sceneDocument, data *db.SceneData) error {
	data.Key = doc.Key
	data.Revision = doc.Revision
	data.SavedAt = doc.SavedAt
	data.Entities = nil
	for _, entityDoc := range doc.Entities {
		entityData := db.EntityData{
			Id:     uint64(entityDoc.Id),
			Name:   entityDoc.Name,
			Parent: uint64(entityDoc.Parent),
		}
		for _, componentDoc := range entityDoc.Components {
			componentData, err := db.DecodeData(componentDoc.Data)
			if err != nil {
				return fmt.Errorf("decode component %v: %w", componentDoc.Name, err)
			}
			entityData.Components = append(entityData.Components, db.ComponentData{
				Name: componentDoc.Name,
				Data: componentData,
			})
		}
		data.Entities = append(data.Entities, entityData)
	}
	return nil
}
