package script

import (
	"errors"
	"fmt"

	"github.com/neon-engine/neonhost/entity"
	"github.com/neon-engine/neonhost/logger"
)

var (
	ErrInvalidHandle  = errors.New("script: bind to invalid handle")
	ErrAlreadyBound   = errors.New("script: component already bound")
	ErrNotBound       = errors.New("script: component not bound")
	ErrAlreadyCreated = errors.New("script: component already created")
	ErrNotCreated     = errors.New("script: component not created")
	ErrDestroyed      = errors.New("script: component destroyed")
)

// HookError carries a panic recovered from component code
type HookError struct {
	Component string
	Hook      string
	Value     any
	Stack     []byte
}

func (e *HookError) Error() string {
	return fmt.Sprintf("script: %v.%v panic: %v", e.Component, e.Hook, e.Value)
}

// Unwrap exposes the panic value when it was an error
func (e *HookError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// Bind sets the component's Self handle. It can be done once, before Create.
func Bind(c Component, h entity.Handle) error {
	o := c.object()
	if !h.IsValid() {
		return ErrInvalidHandle
	}
	if o.self.IsValid() {
		return fmt.Errorf("%w: %v", ErrAlreadyBound, o.self)
	}
	if o.state != Constructed {
		return stateError(o.state)
	}
	o.self = h
	return nil
}

// Create runs OnCreate. The component must be bound and not created yet.
// The state moves to Created even if the hook panics, in which case a
// *HookError is returned.
func Create(c Component) error {
	o := c.object()
	if o.state != Constructed {
		return stateError(o.state)
	}
	if !o.self.IsValid() {
		return ErrNotBound
	}
	o.state = Created
	return call(c, "OnCreate", c.OnCreate)
}

// Destroy runs OnDestroy. The component must be Created.
func Destroy(c Component) error {
	o := c.object()
	if o.state != Created {
		return stateError(o.state)
	}
	err := call(c, "OnDestroy", c.OnDestroy)
	o.state = Destroyed
	return err
}

// Invoke runs fn, typically a component method, only between OnCreate and
// OnDestroy.
func Invoke(c Component, method string, fn func()) error {
	o := c.object()
	if o.state != Created {
		return stateError(o.state)
	}
	return call(c, method, fn)
}

func stateError(state State) error {
	switch state {
	case Constructed:
		return ErrNotCreated
	case Created:
		return ErrAlreadyCreated
	}
	return ErrDestroyed
}

func call(c Component, hook string, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &HookError{
				Component: NameOf(c),
				Hook:      hook,
				Value:     r,
				Stack:     logger.Stack(),
			}
		}
	}()
	fn()
	return nil
}
