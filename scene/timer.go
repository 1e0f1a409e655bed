package scene

import (
	"log/slog"
	"slices"
	"time"

	"github.com/neon-engine/neonhost/refs"
	"github.com/neon-engine/neonhost/script"
)

// TimerJob is a countdown callback. It returns the delay of its next run,
// 0 means it will not run again.
type TimerJob func() time.Duration

type timerEntry struct {
	next time.Time
	ref  refs.Ref
	job  TimerJob
}

// timers of the world's components, sorted by next run
type timerEntries struct {
	entries []*timerEntry
}

func (this *timerEntries) add(entry *timerEntry) {
	this.entries = append(this.entries, entry)
	this.sort()
}

func (this *timerEntries) remove(ref refs.Ref) {
	this.entries = slices.DeleteFunc(this.entries, func(entry *timerEntry) bool {
		return entry.ref == ref
	})
}

func (this *timerEntries) sort() {
	slices.SortStableFunc(this.entries, func(a, b *timerEntry) int {
		return a.next.Compare(b.next)
	})
}

// After runs job on the owning goroutine once d has passed, counted by the
// now values given to RunTimers. The timer belongs to the component behind
// ref and stops with it.
func (this *World) After(ref refs.Ref, d time.Duration, job TimerJob) error {
	return this.AddTimer(ref, time.Now().Add(d), job)
}

// AddTimer runs job at t.
func (this *World) AddTimer(ref refs.Ref, t time.Time, job TimerJob) error {
	if _, err := this.lookup(ref); err != nil {
		return err
	}
	this.timers.add(&timerEntry{next: t, ref: ref, job: job})
	return nil
}

// TimerCount returns the number of pending timers.
func (this *World) TimerCount() int {
	return len(this.timers.entries)
}

// RunTimers runs every job due at now and returns how many ran. Jobs of
// detached components are dropped without running. Timers added by a job
// run at the next RunTimers at the earliest.
func (this *World) RunTimers(now time.Time) int {
	entries := this.timers.entries
	due := 0
	for due < len(entries) && !entries[due].next.After(now) {
		due++
	}
	if due == 0 {
		return 0
	}
	ran := 0
	// jobs may add or drop timers
	for _, entry := range slices.Clone(entries[:due]) {
		a, err := this.lookup(entry.ref)
		if err != nil {
			entry.next = time.Time{}
			continue
		}
		var d time.Duration
		err = script.Invoke(a.component, "Timer", func() {
			d = entry.job()
		})
		ran++
		if err != nil {
			slog.Error("TimerErr", "entity", script.SelfOf(a.component), "component", a.name, "err", err)
			d = 0
		}
		if d > 0 {
			entry.next = now.Add(d)
		} else {
			entry.next = time.Time{}
		}
	}
	this.timers.entries = slices.DeleteFunc(this.timers.entries, func(entry *timerEntry) bool {
		return entry.next.IsZero()
	})
	this.timers.sort()
	return ran
}
