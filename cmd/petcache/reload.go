package main

import (
	"context"
	"reflect"

	"github.com/vyrodovalexey/petcache/internal/config"
	"github.com/vyrodovalexey/petcache/internal/observability"
)

// startConfigWatcher watches the configuration file when one was given.
func startConfigWatcher(ctx context.Context, app *application, configPath string) *config.Watcher {
	if configPath == "" {
		return nil
	}

	watcher, err := config.NewWatcher(configPath, app.applyConfig,
		config.WithLogger(app.logger),
		config.WithErrorCallback(func(err error) {
			app.logger.Warn("configuration reload failed", observability.Error(err))
		}),
	)
	if err != nil {
		app.logger.Warn("failed to create config watcher", observability.Error(err))
		return nil
	}

	if err := watcher.Start(ctx); err != nil {
		app.logger.Warn("failed to start config watcher", observability.Error(err))
		_ = watcher.Stop()
		return nil
	}

	// Start reads the file again; apply edits made since the startup load.
	if current := watcher.Current(); current != nil {
		app.applyConfig(current)
	}

	return watcher
}

// applyConfig applies a reloaded configuration after re-applying the
// command line overrides. Only the log level takes effect live; any other
// change is reported as needing a restart.
func (a *application) applyConfig(fileCfg *config.Config) {
	a.reloadMu.Lock()
	defer a.reloadMu.Unlock()

	next := *fileCfg
	newCfg := &next
	applyOverrides(newCfg, a.flags)

	if err := config.Validate(newCfg); err != nil {
		a.logger.Warn("ignoring invalid configuration", observability.Error(err))
		return
	}

	if newCfg.Log.Level != a.config.Log.Level {
		setter, ok := a.logger.(observability.LevelSetter)
		if !ok {
			a.logger.Warn("logger does not support level changes")
		} else if err := setter.SetLevel(newCfg.Log.Level); err != nil {
			a.logger.Warn("failed to change log level", observability.Error(err))
		} else {
			a.logger.Info("log level changed",
				observability.String("from", a.config.Log.Level),
				observability.String("to", newCfg.Log.Level),
			)
			a.config.Log.Level = newCfg.Log.Level
		}
	}

	if changed := restartRequired(a.config, newCfg); len(changed) > 0 {
		a.logger.Warn("configuration change requires restart",
			observability.Strings("sections", changed),
		)
	}
}

// restartRequired lists the top-level sections that differ, ignoring the
// log level.
func restartRequired(current, next *config.Config) []string {
	var changed []string

	if current.Log.Format != next.Log.Format {
		changed = append(changed, "log.format")
	}

	sections := []struct {
		name      string
		old, next interface{}
	}{
		{"cache", current.Cache, next.Cache},
		{"admin", current.Admin, next.Admin},
		{"metrics", current.Metrics, next.Metrics},
		{"statsReport", current.StatsReport, next.StatsReport},
		{"tracing", current.Tracing, next.Tracing},
	}
	for _, s := range sections {
		if !reflect.DeepEqual(s.old, s.next) {
			changed = append(changed, s.name)
		}
	}

	return changed
}
