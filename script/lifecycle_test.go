package script_test

import (
	"errors"
	"testing"

	"github.com/neon-engine/neonhost/entity"
	"github.com/neon-engine/neonhost/script"
)

// records every call made on it
type recorder struct {
	script.Object
	calls     []string
	destroyID uint64
}

func (r *recorder) OnCreate() {
	r.calls = append(r.calls, "OnCreate")
}

func (r *recorder) OnDestroy() {
	r.destroyID = r.Self().ID()
	r.calls = append(r.calls, "OnDestroy")
}

func (r *recorder) Jump() {
	r.calls = append(r.calls, "Jump")
}

type plain struct {
	script.Object
}

type panicky struct {
	script.Object
}

func (p *panicky) OnCreate() {
	panic(errors.New("boom"))
}

func (p *panicky) ComponentName() string {
	return "Panicky"
}

func handle(t *testing.T, raw uint64) entity.Handle {
	t.Helper()
	h, err := entity.NewTable(0).Restore(raw, "")
	if err != nil {
		t.Fatal(err)
	}
	return h
}

func TestLifecycleScenario(t *testing.T) {
	c := &recorder{}
	if c.Self().IsValid() || c.State() != script.Constructed {
		t.Fatal("fresh component must be unbound and Constructed")
	}
	if err := script.Bind(c, handle(t, 42)); err != nil {
		t.Fatal(err)
	}
	if c.Self().ID() != 42 {
		t.Fatalf("self:%v", c.Self().ID())
	}
	if err := script.Create(c); err != nil {
		t.Fatal(err)
	}
	if err := script.Invoke(c, "Jump", c.Jump); err != nil {
		t.Fatal(err)
	}
	if err := script.Destroy(c); err != nil {
		t.Fatal(err)
	}
	if c.destroyID != 42 || c.Self().ID() != 42 {
		t.Fatalf("self changed before OnDestroy returned:%v", c.destroyID)
	}
	want := []string{"OnCreate", "Jump", "OnDestroy"}
	if len(c.calls) != len(want) {
		t.Fatalf("calls:%v", c.calls)
	}
	for i := range want {
		if c.calls[i] != want[i] {
			t.Fatalf("calls:%v", c.calls)
		}
	}
	if c.State() != script.Destroyed {
		t.Fatalf("state:%v", c.State())
	}
}

func TestLifecycleOrderingErrors(t *testing.T) {
	c := &recorder{}
	if err := script.Create(c); !errors.Is(err, script.ErrNotBound) {
		t.Fatalf("create unbound:%v", err)
	}
	if err := script.Bind(c, entity.Invalid()); !errors.Is(err, script.ErrInvalidHandle) {
		t.Fatalf("bind invalid:%v", err)
	}
	h := handle(t, 7)
	script.Bind(c, h)
	if err := script.Bind(c, h); !errors.Is(err, script.ErrAlreadyBound) {
		t.Fatalf("double bind:%v", err)
	}
	if err := script.Invoke(c, "Jump", c.Jump); !errors.Is(err, script.ErrNotCreated) {
		t.Fatalf("invoke before create:%v", err)
	}
	if err := script.Destroy(c); !errors.Is(err, script.ErrNotCreated) {
		t.Fatalf("destroy before create:%v", err)
	}
	script.Create(c)
	if err := script.Create(c); !errors.Is(err, script.ErrAlreadyCreated) {
		t.Fatalf("double create:%v", err)
	}
	script.Destroy(c)
	if err := script.Destroy(c); !errors.Is(err, script.ErrDestroyed) {
		t.Fatalf("double destroy:%v", err)
	}
	if err := script.Invoke(c, "Jump", c.Jump); !errors.Is(err, script.ErrDestroyed) {
		t.Fatalf("invoke after destroy:%v", err)
	}
	// rejected calls never ran a hook twice
	if len(c.calls) != 2 {
		t.Fatalf("calls:%v", c.calls)
	}
}

func TestDefaultHooks(t *testing.T) {
	c := &plain{}
	script.Bind(c, handle(t, 1))
	if err := script.Create(c); err != nil {
		t.Fatal(err)
	}
	if err := script.Destroy(c); err != nil {
		t.Fatal(err)
	}
	if script.NameOf(c) != "plain" {
		t.Fatalf("name:%v", script.NameOf(c))
	}
}

func TestHookPanic(t *testing.T) {
	c := &panicky{}
	script.Bind(c, handle(t, 3))
	err := script.Create(c)
	var hookErr *script.HookError
	if !errors.As(err, &hookErr) {
		t.Fatalf("expected hook error, got %v", err)
	}
	if hookErr.Component != "Panicky" || hookErr.Hook != "OnCreate" || len(hookErr.Stack) == 0 {
		t.Fatalf("hook error:%+v", hookErr)
	}
	if hookErr.Unwrap() == nil || hookErr.Unwrap().Error() != "boom" {
		t.Fatalf("unwrap:%v", hookErr.Unwrap())
	}
	if c.State() != script.Created {
		t.Fatalf("state:%v", c.State())
	}
	if err := script.Destroy(c); err != nil {
		t.Fatal(err)
	}
}
