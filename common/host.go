package common

import (
	"context"
	"sync"
	"time"

	"github.com/neon-engine/neonhost/logger"
)

// Host is the process that owns a scene.
type Host interface {
	// Init loads the config file and opens every resource, false on failure.
	Init(ctx context.Context, configFile string) bool

	// Run starts the update loop and returns.
	Run(ctx context.Context)

	// OnUpdate is called from the update loop goroutine on every tick.
	OnUpdate(ctx context.Context, updateCount int64)

	// Exit waits for the update loop and releases resources.
	Exit()
}

// HostHook lets other modules follow the host lifecycle.
type HostHook interface {
	OnHostInit(host Host)
	OnHostExit()
}

// BaseHost runs the ticker loop. The concrete host embeds it and passes
// itself to SetUpdater so its OnUpdate is the one called.
type BaseHost struct {
	configFile     string
	updateInterval time.Duration
	updateCount    int64
	updater        func(ctx context.Context, updateCount int64)
	ctx            context.Context
	wg             sync.WaitGroup
	hooks          []HostHook
}

func (this *BaseHost) GetConfigFile() string {
	return this.configFile
}

func (this *BaseHost) GetContext() context.Context {
	return this.ctx
}

func (this *BaseHost) GetUpdateCount() int64 {
	return this.updateCount
}

func (this *BaseHost) SetUpdateInterval(updateInterval time.Duration) {
	this.updateInterval = updateInterval
}

func (this *BaseHost) SetUpdater(updater func(ctx context.Context, updateCount int64)) {
	this.updater = updater
}

func (this *BaseHost) AddHook(hooks ...HostHook) {
	this.hooks = append(this.hooks, hooks...)
}

func (this *BaseHost) GetHooks() []HostHook {
	return this.hooks
}

func (this *BaseHost) Init(ctx context.Context, configFile string) bool {
	logger.Info("BaseHost.Init")
	this.configFile = configFile
	this.ctx = ctx
	if this.updateInterval <= 0 {
		this.updateInterval = time.Second
	}
	return true
}

func (this *BaseHost) Run(ctx context.Context) {
	logger.Info("BaseHost.Run")
	this.wg.Add(1)
	go func(ctx context.Context) {
		defer this.wg.Done()
		this.updateLoop(ctx)
	}(ctx)
}

func (this *BaseHost) OnUpdate(ctx context.Context, updateCount int64) {
}

// Exit blocks until the update loop ends, the caller cancels its context
// first.
func (this *BaseHost) Exit() {
	logger.Info("BaseHost.Exit")
	for _, hook := range this.hooks {
		hook.OnHostExit()
	}
	logger.Info("wait update loop close")
	this.wg.Wait()
	logger.Info("update loop closed")
}

func (this *BaseHost) updateLoop(ctx context.Context) {
	logger.Info("updateLoop begin")
	updateTicker := time.NewTicker(this.updateInterval)
	defer func() {
		updateTicker.Stop()
		logger.Info("updateLoop end")
	}()
	for {
		select {
		case <-ctx.Done():
			logger.Info("exitNotify")
			return
		case <-updateTicker.C:
			this.update(ctx)
			this.updateCount++
		}
	}
}

// one tick, a panic is logged and the loop goes on
func (this *BaseHost) update(ctx context.Context) {
	defer func() {
		if err := recover(); err != nil {
			logger.Error("update recover:%v", err)
			logger.LogStack()
		}
	}()
	if this.updater != nil {
		this.updater(ctx, this.updateCount)
	} else {
		this.OnUpdate(ctx, this.updateCount)
	}
}
