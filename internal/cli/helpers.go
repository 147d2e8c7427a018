package cli

import (
	"context"

	"github.com/shahbhuwan/gridflow/internal/logger"
	"github.com/shahbhuwan/gridflow/pkg/config"
	"github.com/shahbhuwan/gridflow/pkg/stopflag"
	"github.com/shirou/gopsutil/v3/cpu"
)

// These variables are set by the main package.
var (
	SettingsPath *string
	LogLevel     *string
)

// loadSettings resolves the run configuration: YAML settings file (when
// given), GRIDFLOW_* environment overrides, then the global CLI flags.
func loadSettings() (*config.Config, error) {
	path := ""
	if SettingsPath != nil {
		path = *SettingsPath
	}
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, err
	}
	if LogLevel != nil && *LogLevel != "" {
		cfg.Settings.LogLevel = *LogLevel
	}
	logger.InitLogger(cfg.Settings.LogLevel)
	return cfg, nil
}

// demoWorkers sizes the pool at three quarters of the logical CPUs, so a
// demo run is visibly parallel without saturating the machine.
func demoWorkers() int {
	count, err := cpu.Counts(true)
	if err != nil || count <= 0 {
		return config.DefaultWorkers
	}
	workers := count * 3 / 4
	if workers < 1 {
		workers = 1
	}
	return workers
}

// wireStop raises the stop flag when the command context is cancelled, so a
// SIGINT reaches every checkpoint that polls the flag.
func wireStop(ctx context.Context, stop *stopflag.Flag) {
	go func() {
		<-ctx.Done()
		stop.Stop()
	}()
}
