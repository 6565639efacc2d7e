package registry

import (
	"context"
	"time"

	"github.com/zjrosen/entityreg/internal/domain/extension"
	"github.com/zjrosen/entityreg/internal/domain/registry"
	"github.com/zjrosen/entityreg/internal/log"
	"github.com/zjrosen/entityreg/internal/pubsub"
)

// buildObserver fans manager construction out to the tracing and metrics
// observers, then logs and publishes the outcome.
type buildObserver struct {
	observers []registry.Observer
	events    pubsub.Publisher[pubsub.RegistryEvent]
}

var _ registry.Observer = (*buildObserver)(nil)

func (o *buildObserver) BuildStarted(ctx context.Context, name string) (context.Context, func(error)) {
	start := time.Now()
	log.Debug(log.CatRegistry, "Building manager", "manager", name)

	dones := make([]func(error), 0, len(o.observers))
	for _, obs := range o.observers {
		var done func(error)
		ctx, done = obs.BuildStarted(ctx, name)
		dones = append(dones, done)
	}

	return ctx, func(err error) {
		for i := len(dones) - 1; i >= 0; i-- {
			dones[i](err)
		}
		if err != nil {
			log.ErrorErr(log.CatRegistry, "Manager build failed", err, "manager", name)
			o.events.Publish(pubsub.ManagerBuildFailedEvent, pubsub.RegistryEvent{Manager: name, Err: err.Error()})
			return
		}
		log.Info(log.CatRegistry, "Manager built", "manager", name, "duration", time.Since(start))
		o.events.Publish(pubsub.ManagerBuiltEvent, pubsub.RegistryEvent{Manager: name})
	}
}

// hookObserver does the same for extension hooks.
type hookObserver struct {
	observers []extension.Observer
}

var _ extension.Observer = (*hookObserver)(nil)

func (o *hookObserver) HookStarted(ctx context.Context, phase, runID, name string) (context.Context, func(error)) {
	dones := make([]func(error), 0, len(o.observers))
	for _, obs := range o.observers {
		var done func(error)
		ctx, done = obs.HookStarted(ctx, phase, runID, name)
		dones = append(dones, done)
	}

	return ctx, func(err error) {
		for i := len(dones) - 1; i >= 0; i-- {
			dones[i](err)
		}
		if err != nil {
			log.ErrorErr(log.CatExt, "Extension hook failed", err, "phase", phase, "extension", name, "run_id", runID)
			return
		}
		log.Debug(log.CatExt, "Extension hook done", "phase", phase, "extension", name, "run_id", runID)
	}
}
