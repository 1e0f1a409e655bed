package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/neon-engine/neonhost/db"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "scene.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveAndFindScene(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	scene := &db.SceneData{
		Key:      "level1",
		Revision: 7,
		SavedAt:  time.UnixMilli(1700000000000).UTC(),
		Entities: []db.EntityData{
			{Id: 3<<32 | 2, Name: "player", Components: []db.ComponentData{
				{Name: "Mover", Data: map[string]any{"speed": 2.5}},
				{Name: "Tag"},
			}},
			{Id: 1, Name: "camera", Parent: 3<<32 | 2},
			{Id: 1<<64 - 1, Name: "max"},
		},
	}
	if err := store.SaveScene(ctx, scene); err != nil {
		t.Fatal(err)
	}
	loaded := &db.SceneData{}
	has, err := store.FindScene(ctx, "level1", loaded)
	if err != nil || !has {
		t.Fatalf("find:%v %v", has, err)
	}
	if loaded.Revision != 7 || !loaded.SavedAt.Equal(scene.SavedAt) || len(loaded.Entities) != 3 {
		t.Fatalf("loaded:%+v", loaded)
	}
	player := loaded.Entities[0]
	if player.Id != 3<<32|2 || len(player.Components) != 2 {
		t.Fatalf("player:%+v", player)
	}
	if player.Components[0].Name != "Mover" || player.Components[0].Data["speed"] != 2.5 {
		t.Fatalf("mover:%+v", player.Components[0])
	}
	if player.Components[1].Name != "Tag" || player.Components[1].Data != nil {
		t.Fatalf("tag:%+v", player.Components[1])
	}
	if loaded.Entities[1].Parent != player.Id {
		t.Fatalf("camera parent:%v", loaded.Entities[1].Parent)
	}
	if loaded.Entities[2].Id != 1<<64-1 {
		t.Fatalf("high bit id:%v", loaded.Entities[2].Id)
	}

	// save again replaces rows
	scene.Revision = 8
	scene.Entities = scene.Entities[:1]
	if err := store.SaveScene(ctx, scene); err != nil {
		t.Fatal(err)
	}
	loaded = &db.SceneData{}
	store.FindScene(ctx, "level1", loaded)
	if loaded.Revision != 8 || len(loaded.Entities) != 1 {
		t.Fatalf("replaced:%+v", loaded)
	}
}

func TestFindMissingAndDelete(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	has, err := store.FindScene(ctx, "nope", &db.SceneData{})
	if err != nil || has {
		t.Fatalf("missing:%v %v", has, err)
	}
	if _, err := store.FindScene(ctx, "", &db.SceneData{}); err != db.ErrEmptyKey {
		t.Fatalf("empty key:%v", err)
	}
	store.SaveScene(ctx, &db.SceneData{Key: "tmp", Entities: []db.EntityData{{Id: 5}}})
	if err := store.DeleteScene(ctx, "tmp"); err != nil {
		t.Fatal(err)
	}
	has, _ = store.FindScene(ctx, "tmp", &db.SceneData{})
	if has {
		t.Fatal("scene not deleted")
	}
}
