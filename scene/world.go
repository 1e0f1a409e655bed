// Package scene is the host side of the binding layer: it owns the entity
// table, attaches components to entities and drives their lifecycle.
package scene

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/neon-engine/neonhost/entity"
	"github.com/neon-engine/neonhost/logger"
	"github.com/neon-engine/neonhost/refs"
	"github.com/neon-engine/neonhost/script"
	"github.com/neon-engine/neonhost/util"
)

var (
	ErrNilComponent  = errors.New("scene: nil component")
	ErrUnknownRef    = errors.New("scene: unknown component reference")
	ErrWorldNotEmpty = errors.New("scene: world not empty")
)

// a component attached to an entity
type attachment struct {
	ref       refs.Ref
	name      string
	component script.Component
}

// World is owned by one goroutine, the host loop. Every method except Post
// must be called from it. Component hooks run on that goroutine only.
type World struct {
	table *entity.Table
	refs  *refs.Manager
	// raw entity id -> components in attach order
	components map[uint64][]*attachment
	timers     timerEntries

	postMu sync.Mutex
	posted []func(w *World)
}

func NewWorld(capacity int) *World {
	return &World{
		table:      entity.NewTable(capacity),
		refs:       refs.NewManager(),
		components: make(map[uint64][]*attachment),
	}
}

// Refs gives access to the reference table, the host may track its own
// objects there to get them reported at shutdown.
func (this *World) Refs() *refs.Manager {
	return this.refs
}

func (this *World) CreateEntity(name string) entity.Handle {
	h := this.table.Create(name)
	slog.Debug("CreateEntity", "entity", h, "name", this.table.Name(h))
	return h
}

func (this *World) CreateChild(parent entity.Handle, name string) (entity.Handle, error) {
	h, err := this.table.CreateChild(parent, name)
	if err != nil {
		return h, err
	}
	slog.Debug("CreateChild", "entity", h, "parent", parent, "name", this.table.Name(h))
	return h, nil
}

// DestroyEntity detaches every component of the entity (and of its children
// with withChildren) before the ids are freed. Components are destroyed in
// reverse attach order, children before parents.
func (this *World) DestroyEntity(h entity.Handle, withChildren bool) error {
	if err := this.checkAlive(h); err != nil {
		return err
	}
	order := []entity.Handle{h}
	if withChildren {
		order = this.table.Subtree(h)
	}
	var errs []error
	for _, e := range order {
		if err := this.detachAll(e); err != nil {
			errs = append(errs, err)
		}
	}
	if _, err := this.table.Destroy(h, withChildren); err != nil {
		errs = append(errs, err)
	}
	slog.Debug("DestroyEntity", "entity", h, "withChildren", withChildren, "count", len(order))
	return errors.Join(errs...)
}

func (this *World) detachAll(h entity.Handle) error {
	attachments := this.components[h.ID()]
	var errs []error
	for i := len(attachments) - 1; i >= 0; i-- {
		if err := this.detach(attachments[i]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (this *World) checkAlive(h entity.Handle) error {
	if !h.IsValid() {
		return entity.ErrInvalidHandle
	}
	if !this.table.Alive(h) {
		return fmt.Errorf("%w: %v", entity.ErrStaleHandle, h)
	}
	return nil
}

// Attach binds c to the entity and runs its OnCreate. When OnCreate panics
// the component is destroyed right away (OnDestroy runs) and the error is
// returned.
func (this *World) Attach(h entity.Handle, c script.Component) (refs.Ref, error) {
	if util.IsNil(c) {
		return 0, ErrNilComponent
	}
	if err := this.checkAlive(h); err != nil {
		return 0, err
	}
	if err := script.Bind(c, h); err != nil {
		return 0, err
	}
	a := &attachment{
		name:      script.NameOf(c),
		component: c,
	}
	a.ref = this.refs.AddReference(a, true)
	this.components[h.ID()] = append(this.components[h.ID()], a)
	if err := script.Create(c); err != nil {
		slog.Error("OnCreateErr", "entity", h, "component", a.name, "err", err)
		if destroyErr := this.detach(a); destroyErr != nil {
			err = errors.Join(err, destroyErr)
		}
		return 0, err
	}
	slog.Debug("Attach", "entity", h, "component", a.name, "ref", a.ref)
	return a.ref, nil
}

// Detach runs OnDestroy and releases the component.
func (this *World) Detach(ref refs.Ref) error {
	a, err := this.lookup(ref)
	if err != nil {
		return err
	}
	return this.detach(a)
}

func (this *World) detach(a *attachment) error {
	h := script.SelfOf(a.component)
	err := script.Destroy(a.component)
	if err != nil {
		slog.Error("OnDestroyErr", "entity", h, "component", a.name, "err", err)
	}
	list := slices.DeleteFunc(this.components[h.ID()], func(other *attachment) bool { return other == a })
	if len(list) == 0 {
		delete(this.components, h.ID())
	} else {
		this.components[h.ID()] = list
	}
	this.timers.remove(a.ref)
	if freeErr := this.refs.Free(a.ref); freeErr != nil {
		err = errors.Join(err, freeErr)
	}
	slog.Debug("Detach", "entity", h, "component", a.name, "ref", a.ref)
	return err
}

func (this *World) lookup(ref refs.Ref) (*attachment, error) {
	obj, ok := this.refs.Get(ref)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnknownRef, ref)
	}
	a, ok := obj.(*attachment)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnknownRef, ref)
	}
	return a, nil
}

// Component returns the component behind ref.
func (this *World) Component(ref refs.Ref) (script.Component, bool) {
	a, err := this.lookup(ref)
	if err != nil {
		return nil, false
	}
	return a.component, true
}

// Components returns the components of h in attach order.
func (this *World) Components(h entity.Handle) []script.Component {
	attachments := this.components[h.ID()]
	out := make([]script.Component, 0, len(attachments))
	for _, a := range attachments {
		out = append(out, a.component)
	}
	return out
}

// FindComponent returns the first component of h with that name.
func (this *World) FindComponent(h entity.Handle, name string) (script.Component, refs.Ref) {
	for _, a := range this.components[h.ID()] {
		if a.name == name {
			return a.component, a.ref
		}
	}
	return nil, 0
}

// Invoke calls fn on the component, only between its OnCreate and OnDestroy.
func (this *World) Invoke(ref refs.Ref, method string, fn func(c script.Component)) error {
	a, err := this.lookup(ref)
	if err != nil {
		return err
	}
	return script.Invoke(a.component, method, func() {
		fn(a.component)
	})
}

// Update ticks every created Updater, entities in index order, components in
// attach order. Failing components are logged and skipped.
func (this *World) Update(dt time.Duration) error {
	var errs []error
	this.table.Range(func(h entity.Handle) bool {
		for _, a := range slices.Clone(this.components[h.ID()]) {
			updater, ok := a.component.(script.Updater)
			if !ok || script.StateOf(a.component) != script.Created {
				continue
			}
			if err := script.Invoke(a.component, "OnUpdate", func() { updater.OnUpdate(dt) }); err != nil {
				slog.Error("OnUpdateErr", "entity", h, "component", a.name, "err", err)
				errs = append(errs, err)
			}
		}
		return true
	})
	return errors.Join(errs...)
}

// Broadcast delivers event to every EventReceiver attached to h.
func (this *World) Broadcast(h entity.Handle, event any) error {
	if err := this.checkAlive(h); err != nil {
		return err
	}
	var errs []error
	for _, a := range slices.Clone(this.components[h.ID()]) {
		receiver, ok := a.component.(script.EventReceiver)
		if !ok || script.StateOf(a.component) != script.Created {
			continue
		}
		if err := script.Invoke(a.component, "OnEvent", func() { receiver.OnEvent(event) }); err != nil {
			slog.Error("OnEventErr", "entity", h, "component", a.name, "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Post queues fn to run on the owning goroutine at the next Drain.
// It is safe to call from any goroutine and never blocks on the world.
func (this *World) Post(fn func(w *World)) {
	this.postMu.Lock()
	this.posted = append(this.posted, fn)
	this.postMu.Unlock()
}

// Drain runs the posted functions and returns how many ran. Functions posted
// while draining run at the next Drain.
func (this *World) Drain() int {
	this.postMu.Lock()
	posted := this.posted
	this.posted = nil
	this.postMu.Unlock()
	for _, fn := range posted {
		this.runPosted(fn)
	}
	return len(posted)
}

func (this *World) runPosted(fn func(w *World)) {
	defer func() {
		if err := recover(); err != nil {
			logger.Error("recover:%v", err)
			logger.LogStack()
		}
	}()
	fn(this)
}

// Shutdown destroys every entity and reports references still held.
func (this *World) Shutdown() []refs.Leak {
	var roots []entity.Handle
	this.table.Range(func(h entity.Handle) bool {
		if !this.table.Parent(h).IsValid() {
			roots = append(roots, h)
		}
		return true
	})
	for _, h := range roots {
		if err := this.DestroyEntity(h, true); err != nil {
			slog.Error("ShutdownDestroyErr", "entity", h, "err", err)
		}
	}
	return this.refs.Shutdown()
}
