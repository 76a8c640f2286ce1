package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/lexkit/internal/cachemanager"
	"github.com/zjrosen/lexkit/internal/config"
	"github.com/zjrosen/lexkit/internal/grammar"
	"github.com/zjrosen/lexkit/internal/log"
	"github.com/zjrosen/lexkit/internal/report"
)

// defaultConfigPath is where config:init writes when no path is given.
const defaultConfigPath = ".lexkit/config.yaml"

var (
	version     = "dev"
	cfgFile     string
	debugFlag   bool
	verboseFlag bool
	cfg         config.Config

	// cleanup runs after every command; set by setupLogging.
	cleanup = func() {}
)

var rootCmd = &cobra.Command{
	Use:   "lexkit",
	Short: "Pluggable tokenizer and grammar-driven scanner",
	Long: `lexkit tokenizes text with regex and balanced-pair lexers and drives
a small state machine over the tokens to capture identifiers, for
example the names of C++ template classes.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
	PersistentPostRun: func(*cobra.Command, []string) { cleanup() },
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .lexkit/config.yaml, then ~/.config/lexkit/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false,
		"write debug log to the configured log path")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false,
		"stream log entries to stderr")
}

func initConfig() {
	v := viper.GetViper()
	setDefaults(v, config.Defaults())

	v.SetEnvPrefix("LEXKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .lexkit/config.yaml (current directory)
		// 2. ~/.config/lexkit/config.yaml (user config)
		if _, err := os.Stat(defaultConfigPath); err == nil {
			v.SetConfigFile(defaultConfigPath)
		} else {
			home, _ := os.UserHomeDir()
			v.AddConfigPath(filepath.Join(home, ".config", "lexkit"))
			v.SetConfigName("config")
			v.SetConfigType("yaml")
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "lexkit: reading config: %v\n", err)
		}
	}

	_ = v.Unmarshal(&cfg)
}

func setDefaults(v *viper.Viper, d config.Config) {
	v.SetDefault("grammar", d.Grammar)
	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("output.color", d.Output.Color)
	v.SetDefault("index.enabled", d.Index.Enabled)
	v.SetDefault("index.path", d.Index.Path)
	v.SetDefault("watch.debounce", d.Watch.Debounce)
	v.SetDefault("cache.expiration", d.Cache.Expiration)
	v.SetDefault("cache.cleanup_interval", d.Cache.CleanupInterval)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.file_path", d.Tracing.FilePath)
	v.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	v.SetDefault("log.debug", d.Log.Debug)
	v.SetDefault("log.path", d.Log.Path)
	v.SetDefault("log.level", d.Log.Level)
}

// setupLogging installs the logger chosen by --debug and --verbose.
func setupLogging(cmd *cobra.Command, _ []string) error {
	debug := debugFlag || cfg.Log.Debug || os.Getenv("LEXKIT_DEBUG") != ""
	if !debug && !verboseFlag {
		return nil
	}

	var closers []func()
	if debug {
		path := cfg.Log.Path
		if path == "" {
			path = "lexkit-debug.log"
		}
		closeLog, err := log.InitWithTeaLog(path, "lexkit")
		if err != nil {
			return fmt.Errorf("initializing debug log: %w", err)
		}
		closers = append(closers, closeLog)
	} else {
		log.InitBrokerOnly()
	}

	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	log.SetMinLevel(level)

	if verboseFlag {
		closers = append(closers, streamLogs(cmd.Context(), cmd.ErrOrStderr()))
	}

	cleanup = func() {
		// Stop streaming before the log file closes.
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
		log.Reset()
		cleanup = func() {}
	}
	log.Debug(log.CatCLI, "Logging initialized", "command", cmd.Name(), "debug", debug, "verbose", verboseFlag)
	return nil
}

// streamLogs copies log entries to w until the returned stop function is called.
func streamLogs(ctx context.Context, w io.Writer) func() {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	entries := log.Subscribe(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for ev := range entries {
			_, _ = io.WriteString(w, ev.Payload)
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

// commandContext returns the command's context, or Background outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// outputFormat prefers the command's --format flag over the config.
func outputFormat(cmd *cobra.Command) (report.Format, error) {
	format := cfg.Output.Format
	if f := cmd.Flags().Lookup("format"); f != nil && f.Changed {
		format = f.Value.String()
	}
	return report.ParseFormat(format)
}

// loadProgram compiles the configured grammar, or the built-in one.
func loadProgram(ctx context.Context, path string) (*grammar.Program, error) {
	spec := grammar.Default()
	if path != "" {
		var err error
		if spec, err = grammar.Load(path); err != nil {
			return nil, err
		}
	}
	cache := cachemanager.NewPatternCache(cfg.Cache.Expiration, cfg.Cache.CleanupInterval)
	program, err := grammar.Compile(ctx, spec, cache)
	if err != nil {
		return nil, err
	}
	log.Debug(log.CatCache, "Compiled grammar patterns", "grammar", spec.Name, "compiles", cache.Compiles())
	return program, nil
}

// readInput reads path, or stdin for "" and "-".
func readInput(cmd *cobra.Command, path string) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path) //nolint:gosec // G304: user-supplied input path
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
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
