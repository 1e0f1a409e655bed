// Package script defines the base every user component embeds and the
// lifecycle calls the host makes on it.
package script

import (
	"reflect"
	"strings"
	"time"

	"github.com/neon-engine/neonhost/entity"
)

// State of a component instance, strictly Constructed -> Created -> Destroyed
type State int32

const (
	Constructed State = iota
	Created
	Destroyed
)

func (s State) String() string {
	switch s {
	case Constructed:
		return "Constructed"
	case Created:
		return "Created"
	case Destroyed:
		return "Destroyed"
	}
	return "Unknown"
}

// Object is the component base type. Embed it in a struct to make that struct
// a Component:
//
//	type Mover struct {
//	    script.Object
//	    Speed float64
//	}
//
//	func (m *Mover) OnCreate() {
//	    // m.Self() is bound and valid here
//	}
type Object struct {
	self  entity.Handle
	state State
}

// Self returns the entity this component is attached to. It is invalid until
// the host binds it and stays unchanged afterwards.
func (this *Object) Self() entity.Handle {
	return this.self
}

func (this *Object) State() State {
	return this.state
}

// OnCreate is called once after Self is bound. Default is a no-op.
func (this *Object) OnCreate() {}

// OnDestroy is called once before the component is released. Default is a
// no-op. Self must not be assumed valid after it returns.
func (this *Object) OnDestroy() {}

func (this *Object) object() *Object {
	return this
}

// Component is implemented by every struct embedding Object.
type Component interface {
	OnCreate()
	OnDestroy()
	object() *Object
}

// Updater components are ticked by the host once per frame while Created.
type Updater interface {
	OnUpdate(dt time.Duration)
}

// EventReceiver components receive events broadcast to their entity.
type EventReceiver interface {
	OnEvent(event any)
}

// Saveable components take part in scene snapshots.
// The data must only contain json-like values.
type Saveable interface {
	SaveData() (map[string]any, error)
	LoadData(data map[string]any) error
}

// Named overrides the default component name.
type Named interface {
	ComponentName() string
}

// NameOf returns the component name: ComponentName() if implemented,
// otherwise the struct type name, e.g. *game.Mover -> Mover
func NameOf(c Component) string {
	if named, ok := c.(Named); ok {
		return named.ComponentName()
	}
	typ := reflect.TypeOf(c)
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	name := typ.String()
	return name[strings.LastIndex(name, ".")+1:]
}

// SelfOf returns the handle bound to c.
func SelfOf(c Component) entity.Handle {
	return c.object().self
}

// StateOf returns the lifecycle state of c.
func StateOf(c Component) State {
	return c.object().state
}
