package scene

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/neon-engine/neonhost/db"
	"github.com/neon-engine/neonhost/entity"
	"github.com/neon-engine/neonhost/script"
	"github.com/neon-engine/neonhost/util"
)

// Factory builds a fresh component for a saved component name. It is
// supplied by the embedding application.
type Factory func(name string) (script.Component, bool)

// Snapshot captures the entities and the data of their Saveable components.
func (this *World) Snapshot(key string) (*db.SceneData, error) {
	data := &db.SceneData{
		Key:      key,
		Revision: util.GenUniqueId(),
		SavedAt:  time.Now(),
	}
	var err error
	this.table.Range(func(h entity.Handle) bool {
		entityData := db.EntityData{
			Id:     h.ID(),
			Name:   this.table.Name(h),
			Parent: this.table.Parent(h).ID(),
		}
		for _, a := range this.components[h.ID()] {
			componentData := db.ComponentData{Name: a.name}
			if saveable, ok := a.component.(script.Saveable); ok {
				componentData.Data, err = saveable.SaveData()
				if err != nil {
					err = fmt.Errorf("save %v of %v: %w", a.name, h, err)
					return false
				}
			}
			entityData.Components = append(entityData.Components, componentData)
		}
		data.Entities = append(data.Entities, entityData)
		return true
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Restore rebuilds a saved scene into an empty world. Entity ids are kept as
// saved. Components are built with factory, loaded, then attached so that
// OnCreate sees the loaded state. Unknown component names are skipped.
func (this *World) Restore(data *db.SceneData, factory Factory) error {
	if this.table.Len() > 0 {
		return ErrWorldNotEmpty
	}
	handles := make(map[uint64]entity.Handle, len(data.Entities))
	for _, entityData := range data.Entities {
		h, err := this.table.Restore(entityData.Id, entityData.Name)
		if err != nil {
			return fmt.Errorf("restore entity %v: %w", entityData.Id, err)
		}
		handles[entityData.Id] = h
	}
	for _, entityData := range data.Entities {
		if entityData.Parent == 0 {
			continue
		}
		parent, ok := handles[entityData.Parent]
		if !ok {
			slog.Warn("RestoreMissingParent", "entity", entityData.Id, "parent", entityData.Parent)
			continue
		}
		if err := this.table.SetParent(handles[entityData.Id], parent); err != nil {
			return fmt.Errorf("restore parent of %v: %w", entityData.Id, err)
		}
	}
	for _, entityData := range data.Entities {
		h := handles[entityData.Id]
		for _, componentData := range entityData.Components {
			c, ok := factory(componentData.Name)
			if !ok || util.IsNil(c) {
				slog.Warn("RestoreUnknownComponent", "entity", h, "component", componentData.Name)
				continue
			}
			if saveable, ok := c.(script.Saveable); ok && componentData.Data != nil {
				if err := saveable.LoadData(componentData.Data); err != nil {
					return fmt.Errorf("load %v of %v: %w", componentData.Name, h, err)
				}
			}
			if _, err := this.Attach(h, c); err != nil {
				return fmt.Errorf("attach %v to %v: %w", componentData.Name, h, err)
			}
		}
	}
	slog.Info("Restore", "key", data.Key, "revision", data.Revision, "entities", len(data.Entities))
	return nil
}
