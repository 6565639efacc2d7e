package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	appreg "github.com/zjrosen/entityreg/internal/application/registry"
	"github.com/zjrosen/entityreg/internal/config"
	"github.com/zjrosen/entityreg/internal/log"
	"github.com/zjrosen/entityreg/internal/metrics"
	"github.com/zjrosen/entityreg/internal/tracing"
)

// defaultConfigPath is where a config file is created when none is found.
const defaultConfigPath = ".entityreg/config.yaml"

var (
	version   = "dev"
	cfgFile   string
	debugFlag bool
	cfg       config.Config
)

var rootCmd = &cobra.Command{
	Use:   "entityreg",
	Short: "Named persistence managers with chained metadata discovery",
	Long: `entityreg builds named persistence managers on demand, resolves which
manager owns a class through per-manager metadata driver chains, and runs
extensions through a register/boot lifecycle.

All commands print JSON so their output can be piped into jq.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .entityreg/config.yaml or ~/.config/entityreg/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false,
		"write a debug log (also ENTITYREG_DEBUG=1)")
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("managers", defaults.Managers)
	viper.SetDefault("cache.ttl", defaults.Cache.TTL)
	viper.SetDefault("cache.sliding", defaults.Cache.Sliding)
	viper.SetDefault("watch.debounce", defaults.Watch.Debounce)
	viper.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
	viper.SetDefault("log.level", defaults.Log.Level)

	viper.SetEnvPrefix("ENTITYREG")
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .entityreg/config.yaml (current directory)
		// 2. ~/.config/entityreg/config.yaml (user config)
		if _, err := os.Stat(defaultConfigPath); err == nil {
			viper.SetConfigFile(defaultConfigPath)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "entityreg"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Warning: reading config: %v\n", err)
		}
		// No config file: run on defaults. `entityreg init` writes one.
	}

	if err := viper.Unmarshal(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: decoding config: %v\n", err)
	}
	if cfg.Tracing.FilePath == "" {
		cfg.Tracing.FilePath = config.DefaultTracesFilePath()
	}
}

// configPath returns the config file commands should write to.
func configPath() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return defaultConfigPath
}

// initLogging enables the debug log when --debug, ENTITYREG_DEBUG or
// log.path asks for it. The returned cleanup is always safe to call.
func initLogging() (func(), error) {
	debug := os.Getenv("ENTITYREG_DEBUG") != "" || debugFlag
	logPath := cfg.Log.Path
	if !debug && logPath == "" {
		return func() {}, nil
	}
	if logPath == "" {
		logPath = os.Getenv("ENTITYREG_LOG")
	}
	if logPath == "" {
		logPath = "debug.log"
	}

	cleanup, err := log.Init(logPath)
	if err != nil {
		return nil, fmt.Errorf("initializing logging: %w", err)
	}
	log.SetMinLevel(log.ParseLevel(cfg.Log.Level))
	log.Info(log.CatConfig, "entityreg starting", "version", version, "config", viper.ConfigFileUsed(), "logPath", logPath)
	return cleanup, nil
}

// runtime bundles what a command needs to talk to the registry.
type runtime struct {
	service  *appreg.Service
	provider *tracing.Provider
	metrics  *prometheus.Registry
	cleanup  func()
}

// Close shuts everything down in reverse order of creation.
func (r *runtime) Close() {
	if err := r.service.Close(); err != nil {
		log.ErrorErr(log.CatRegistry, "Failed to close managers", err)
	}
	if err := r.provider.Shutdown(context.Background()); err != nil {
		log.ErrorErr(log.CatTrace, "Failed to shut down tracing", err)
	}
	r.cleanup()
}

// newRuntime wires logging, tracing, metrics and the registry service from cfg.
func newRuntime() (*runtime, error) {
	cleanup, err := initLogging()
	if err != nil {
		return nil, err
	}

	provider, err := tracing.NewProvider(tracing.Config{
		Enabled:      cfg.Tracing.Enabled,
		Exporter:     cfg.Tracing.Exporter,
		FilePath:     cfg.Tracing.FilePath,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		SampleRate:   cfg.Tracing.SampleRate,
		ServiceName:  tracing.DefaultServiceName,
	})
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("creating tracing provider: %w", err)
	}

	opts := []appreg.Option{appreg.WithTracer(provider.Tracer())}

	var promReg *prometheus.Registry
	if cfg.Metrics.Enabled {
		promReg = prometheus.NewRegistry()
		collector, err := metrics.NewPrometheusCollector(promReg)
		if err != nil {
			_ = provider.Shutdown(context.Background())
			cleanup()
			return nil, fmt.Errorf("creating metrics collector: %w", err)
		}
		opts = append(opts, appreg.WithCollector(collector))
	}

	service, err := appreg.NewService(cfg, opts...)
	if err != nil {
		_ = provider.Shutdown(context.Background())
		cleanup()
		return nil, err
	}

	return &runtime{
		service:  service,
		provider: provider,
		metrics:  promReg,
		cleanup:  cleanup,
	}, nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
