// Package sqlite provides a SQLite-backed scene storage.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/neon-engine/neonhost/db"
	_ "modernc.org/sqlite"
)

var _ db.SceneDb = (*Store)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS scenes (
	key      TEXT PRIMARY KEY,
	revision INTEGER NOT NULL,
	saved_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS scene_entities (
	scene_key TEXT NOT NULL REFERENCES scenes(key) ON DELETE CASCADE,
	seq       INTEGER NOT NULL,
	entity_id INTEGER NOT NULL,
	name      TEXT NOT NULL,
	parent    INTEGER NOT NULL,
	PRIMARY KEY (scene_key, entity_id)
);
CREATE TABLE IF NOT EXISTS scene_components (
	scene_key TEXT NOT NULL REFERENCES scenes(key) ON DELETE CASCADE,
	entity_id INTEGER NOT NULL,
	seq       INTEGER NOT NULL,
	name      TEXT NOT NULL,
	data      BLOB,
	PRIMARY KEY (scene_key, entity_id, seq)
);
`

// Store persists scenes in SQLite.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a SQLite scene store and creates the schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// FindScene loads one scene by key.
func (s *Store) FindScene(ctx context.Context, key string, data *db.SceneData) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if key == "" {
		return false, db.ErrEmptyKey
	}
	var savedAt int64
	row := s.sqlDB.QueryRowContext(ctx, `SELECT revision, saved_at FROM scenes WHERE key = ?`, key)
	if err := row.Scan(&data.Revision, &savedAt); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("find scene: %w", err)
	}
	data.Key = key
	data.SavedAt = time.UnixMilli(savedAt).UTC()
	data.Entities = nil

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT entity_id, name, parent FROM scene_entities WHERE scene_key = ? ORDER BY seq`, key)
	if err != nil {
		return false, fmt.Errorf("find scene entities: %w", err)
	}
	index := make(map[uint64]int)
	for rows.Next() {
		var id, parent int64
		var name string
		if err := rows.Scan(&id, &name, &parent); err != nil {
			rows.Close()
			return false, fmt.Errorf("scan scene entity: %w", err)
		}
		index[uint64(id)] = len(data.Entities)
		data.Entities = append(data.Entities, db.EntityData{
			Id:     uint64(id),
			Name:   name,
			Parent: uint64(parent),
		})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("find scene entities: %w", err)
	}

	rows, err = s.sqlDB.QueryContext(ctx,
		`SELECT entity_id, name, data FROM scene_components WHERE scene_key = ? ORDER BY entity_id, seq`, key)
	if err != nil {
		return false, fmt.Errorf("find scene components: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var name string
		var blob []byte
		if err := rows.Scan(&id, &name, &blob); err != nil {
			return false, fmt.Errorf("scan scene component: %w", err)
		}
		i, ok := index[uint64(id)]
		if !ok {
			continue
		}
		componentData, err := db.DecodeData(blob)
		if err != nil {
			return false, fmt.Errorf("decode component %v: %w", name, err)
		}
		data.Entities[i].Components = append(data.Entities[i].Components, db.ComponentData{
			Name: name,
			Data: componentData,
		})
	}
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("find scene components: %w", err)
	}
	return true, nil
}

// SaveScene replaces the stored scene in one transaction.
func (s *Store) SaveScene(ctx context.Context, data *db.SceneData) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	if data.Key == "" {
		return db.ErrEmptyKey
	}
	savedAt := data.SavedAt
	if savedAt.IsZero() {
		savedAt = time.Now()
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save scene: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = deleteScene(ctx, tx, data.Key); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `INSERT INTO scenes (key, revision, saved_at) VALUES (?, ?, ?)`,
		data.Key, data.Revision, savedAt.UTC().UnixMilli()); err != nil {
		return fmt.Errorf("insert scene: %w", err)
	}
	for seq, entityData := range data.Entities {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO scene_entities (scene_key, seq, entity_id, name, parent) VALUES (?, ?, ?, ?, ?)`,
			data.Key, seq, int64(entityData.Id), entityData.Name, int64(entityData.Parent)); err != nil {
			return fmt.Errorf("insert scene entity %v: %w", entityData.Id, err)
		}
		for componentSeq, componentData := range entityData.Components {
			var blob []byte
			blob, err = db.EncodeData(componentData.Data)
			if err != nil {
				return fmt.Errorf("encode component %v: %w", componentData.Name, err)
			}
			if _, err = tx.ExecContext(ctx,
				`INSERT INTO scene_components (scene_key, entity_id, seq, name, data) VALUES (?, ?, ?, ?, ?)`,
				data.Key, int64(entityData.Id), componentSeq, componentData.Name, blob); err != nil {
				return fmt.Errorf("insert scene component %v: %w", componentData.Name, err)
			}
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit save scene: %w", err)
	}
	return nil
}

// DeleteScene removes a scene and its rows.
func (s *Store) DeleteScene(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if key == "" {
		return db.ErrEmptyKey
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete scene: %w", err)
	}
	if err := deleteScene(ctx, tx, key); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// children first, so it works with or without foreign key enforcement
func deleteScene(ctx context.Context, tx *sql.Tx, key string) error {
	for _, table := range []string{"scene_components", "scene_entities"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE scene_key = ?`, key); err != nil {
			return fmt.Errorf("clear %v: %w", table, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM scenes WHERE key = ?`, key); err != nil {
		return fmt.Errorf("clear scene: %w", err)
	}
	return nil
}
