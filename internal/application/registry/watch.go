package registry

import (
	"context"
	"fmt"

	"github.com/zjrosen/entityreg/internal/infrastructure/sqlite"
	"github.com/zjrosen/entityreg/internal/infrastructure/yamlmapping"
	"github.com/zjrosen/entityreg/internal/log"
	"github.com/zjrosen/entityreg/internal/pubsub"
	"github.com/zjrosen/entityreg/internal/watcher"
)

// MappingDirs returns every directory mapping files are read from: the
// locations of all chains followed by the engines' own mapping paths.
func (s *Service) MappingDirs() []string {
	seen := make(map[string]bool)
	var dirs []string
	add := func(paths ...string) {
		for _, p := range paths {
			if p != "" && !seen[p] {
				seen[p] = true
				dirs = append(dirs, p)
			}
		}
	}
	add(s.chains.Paths()...)
	for _, name := range s.registry.ManagerNames() {
		if d, ok := s.registry.Descriptor(name); ok {
			add(d.Settings.Strings(sqlite.SettingMappingPaths)...)
		}
	}
	return dirs
}

// WatchMappings invalidates cached metadata whenever a mapping file changes.
// It blocks until ctx is cancelled.
func (s *Service) WatchMappings(ctx context.Context) error {
	dirs := s.MappingDirs()
	if len(dirs) == 0 {
		return ErrNoMappingPaths
	}

	cfg := watcher.DefaultConfig(yamlmapping.Extension, dirs...)
	if s.cfg.Watch.Debounce > 0 {
		cfg.DebounceDur = s.cfg.Watch.Debounce
	}
	w, err := watcher.New(cfg)
	if err != nil {
		return err
	}
	changes, err := w.Start()
	if err != nil {
		_ = w.Stop()
		return fmt.Errorf("watch mappings: %w", err)
	}
	defer func() { _ = w.Stop() }()

	for {
		select {
		case <-ctx.Done():
			return nil
		case change := <-changes:
			s.applyChange(ctx, change)
		}
	}
}

func (s *Service) applyChange(ctx context.Context, change watcher.Change) {
	if err := s.Invalidate(ctx); err != nil {
		log.ErrorErr(log.CatCache, "Failed to invalidate metadata", err, "dirs", change.Dirs)
	}
	for _, dir := range change.Dirs {
		s.collector.IncMappingReload(dir)
	}
	log.Info(log.CatWatcher, "Mappings changed", "dirs", change.Dirs)
	s.events.Publish(pubsub.MappingsChangedEvent, pubsub.RegistryEvent{Dirs: change.Dirs})
}
