package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/lexkit/internal/config"
	"github.com/zjrosen/lexkit/internal/grammar"
	"github.com/zjrosen/lexkit/internal/index"
	"github.com/zjrosen/lexkit/internal/log"
	"github.com/zjrosen/lexkit/internal/pubsub"
	"github.com/zjrosen/lexkit/internal/report"
	"github.com/zjrosen/lexkit/internal/tracing"
	"github.com/zjrosen/lexkit/internal/watcher"
)

var scanWatch bool

var scanCmd = &cobra.Command{
	Use:   "scan [files...]",
	Short: "Run the grammar over files and print the captures",
	Long: `Run the configured grammar over each file and print what its capture
rules collected. Files are scanned concurrently; output follows argument
order. With no files, stdin is scanned.

Examples:
  # Template class names in a header
  lexkit scan include/Callable.hpp

  # Several files as JSON, with a custom grammar
  lexkit scan --grammar grammars/cpp.yaml --format json a.hpp b.hpp

  # Rescan on every save and print what changed
  lexkit scan --watch a.hpp`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringP("grammar", "g", "", "grammar file (default: built-in cpp-template grammar)")
	scanCmd.Flags().StringP("format", "f", "", "output format: text or json")
	scanCmd.Flags().Bool("index", false, "record captures in the index database")
	scanCmd.Flags().BoolVarP(&scanWatch, "watch", "w", false, "rescan files when they change")

	_ = viper.BindPFlag("grammar", scanCmd.Flags().Lookup("grammar"))
	_ = viper.BindPFlag("index.enabled", scanCmd.Flags().Lookup("index"))
	rootCmd.AddCommand(scanCmd)
}

// scanner runs one compiled grammar over files.
type scanner struct {
	program *grammar.Program
	tracer  trace.Tracer
	index   *index.Index // nil when indexing is off
	events  *pubsub.Broker[report.File]
	read    func(path string) (string, error)
}

func runScan(cmd *cobra.Command, args []string) error {
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		if scanWatch {
			return fmt.Errorf("--watch needs at least one file")
		}
		args = []string{"-"}
	}

	ctx := commandContext(cmd)

	program, err := loadProgram(ctx, cfg.Grammar)
	if err != nil {
		return err
	}

	provider, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	defer func() { _ = provider.Shutdown(context.Background()) }()

	s := &scanner{
		program: program,
		tracer:  provider.Tracer(),
		events:  pubsub.NewBroker[report.File](),
		read:    func(path string) (string, error) { return readInput(cmd, path) },
	}
	defer s.events.Close()

	if cfg.Index.Enabled {
		idx, err := index.NewDB(cfg.Index.Path)
		if err != nil {
			return fmt.Errorf("opening index: %w", err)
		}
		defer func() { _ = idx.Close() }()
		s.index = idx
	}

	files := s.scanAll(ctx, args, pubsub.ScannedEvent)
	if err := report.Write(cmd.OutOrStdout(), format, files); err != nil {
		return err
	}

	if scanWatch {
		return s.watch(ctx, cmd.OutOrStdout(), files)
	}
	return failures(files)
}

// scanAll scans paths concurrently and returns reports in path order.
func (s *scanner) scanAll(ctx context.Context, paths []string, kind pubsub.EventType) []report.File {
	out := make([]report.File, len(paths))
	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out[i] = s.scanFile(ctx, path)
		}()
	}
	wg.Wait()

	for _, f := range out {
		if f.Err != "" {
			s.events.Publish(pubsub.FailedEvent, f)
		} else {
			s.events.Publish(kind, f)
		}
	}
	return out
}

func (s *scanner) scanFile(ctx context.Context, path string) report.File {
	ctx, span := tracing.StartScan(ctx, s.tracer, path, s.program.Name())

	f := report.File{Path: path}
	text, err := s.read(path)
	if err == nil {
		f.Report, err = s.program.Run(text)
	}
	tracing.EndScan(span, f.Report, err)

	if err != nil {
		log.ErrorErr(log.CatScan, "Scan failed", err, "file", path)
		f.Err = err.Error()
		return f
	}
	log.Debug(log.CatScan, "Scanned file", "file", path, "captures", len(f.Report.Captures), "steps", f.Report.Steps)

	if s.index != nil {
		if _, err := s.index.RecordRun(ctx, path, f.Report); err != nil {
			log.ErrorErr(log.CatIndex, "Failed to record run", err, "file", path)
			f.Err = err.Error()
		}
	}
	return f
}

// watch rescans files on change and prints capture diffs until interrupted.
func (s *scanner) watch(ctx context.Context, w io.Writer, initial []report.File) error {
	paths := make([]string, len(initial))
	for i, f := range initial {
		paths[i] = f.Path
	}

	wt, err := watcher.New(watcher.Config{Files: paths, DebounceDur: cfg.Watch.Debounce})
	if err != nil {
		return err
	}
	defer func() { _ = wt.Stop() }()

	changes, err := wt.Start()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	fmt.Fprintf(w, "watching %d file(s), ctrl-c to stop\n", len(paths))

	events := s.events.Subscribe(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		printChanges(w, events, initial)
	}()

	for {
		select {
		case <-ctx.Done():
			<-done
			return nil
		case changed := <-changes:
			log.Info(log.CatWatcher, "Rescanning", "files", changed)
			s.scanAll(ctx, changed, pubsub.RescanEvent)
		}
	}
}

// printChanges prints a diff for every rescanned file against its previous report.
func printChanges(w io.Writer, events <-chan pubsub.Event[report.File], initial []report.File) {
	prev := make(map[string]grammar.Report, len(initial))
	for _, f := range initial {
		prev[f.Path] = f.Report
	}

	for ev := range events {
		f := ev.Payload
		switch ev.Type {
		case pubsub.FailedEvent:
			fmt.Fprintf(w, "%s: %s\n", f.Path, f.Err)
		case pubsub.RescanEvent:
			diff := report.Diff(prev[f.Path], f.Report)
			prev[f.Path] = f.Report
			if diff == "" {
				fmt.Fprintf(w, "%s: no change\n", f.Path)
				continue
			}
			fmt.Fprintf(w, "%s:\n%s", f.Path, diff)
		}
	}
}

func failures(files []report.File) error {
	n := 0
	for _, f := range files {
		if f.Err != "" {
			n++
		}
	}
	if n > 0 {
		return fmt.Errorf("%d of %d file(s) failed", n, len(files))
	}
	return nil
}
