// sysgraph samples CPU, memory, GPU, network and disk counters on a fixed
// cadence, keeps a rolling history per device and renders it as a
// terminal dashboard, one-shot text lines or SVG thumbnails.
//
// Usage:
//
//	sysgraph [flags]
//
// Flags:
//
//	-config string    Path to configuration file (default: ~/.config/sysgraph/config.yaml)
//	-once             Sample -ticks times, print one line per device and exit
//	-ticks int        Number of ticks for -once (default 3)
//	-svg-dir string   Write <domain>-<index>.svg after every tick
//	-domains string   Comma separated domains to poll (cpu,memory,gpu,network,disk)
//	-env-file string  Load SYSGRAPH_* variables from a dotenv file
//	-init-config      Write the default configuration file and exit
//	-verbose          Enable debug logging
//	-version          Print version and exit
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/term"

	"gitlab.com/tinyland/lab/sysgraph/artifact"
	"gitlab.com/tinyland/lab/sysgraph/collectors/system"
	"gitlab.com/tinyland/lab/sysgraph/config"
	"gitlab.com/tinyland/lab/sysgraph/display/color"
	"gitlab.com/tinyland/lab/sysgraph/display/tui"
)

// options holds the parsed command line.
type options struct {
	configPath string
	once       bool
	ticks      int
	svgDir     string
	domains    string
	envFile    string
	initConfig bool
	noColor    bool
	verbose    bool
	version    bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("sysgraph", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.configPath, "config", "", "Path to configuration file (default: "+config.DefaultPath()+")")
	fs.BoolVar(&o.once, "once", false, "Sample -ticks times, print one line per device and exit")
	fs.IntVar(&o.ticks, "ticks", 3, "Number of ticks for -once")
	fs.StringVar(&o.svgDir, "svg-dir", "", "Write <domain>-<index>.svg after every tick")
	fs.StringVar(&o.domains, "domains", "", "Comma separated domains to poll")
	fs.StringVar(&o.envFile, "env-file", "", "Load SYSGRAPH_* variables from a dotenv file")
	fs.BoolVar(&o.initConfig, "init-config", false, "Write the default configuration file and exit")
	fs.BoolVar(&o.noColor, "no-color", false, "Print -once output without color")
	fs.BoolVar(&o.verbose, "verbose", false, "Enable debug logging")
	fs.BoolVar(&o.version, "version", false, "Print version and exit")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.ticks < 1 {
		return o, fmt.Errorf("-ticks must be at least 1, got %d", o.ticks)
	}
	return o, nil
}

// loadConfig reads the configuration and applies flag overrides.
func loadConfig(o options) (*config.Config, error) {
	if o.envFile != "" {
		if err := config.LoadEnvFile(o.envFile); err != nil {
			return nil, err
		}
	}

	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFromFile(o.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if o.domains != "" {
		cfg.Domains = config.SplitList(o.domains)
	}
	if o.svgDir != "" {
		cfg.Output.SVGDir = o.svgDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "sysgraph: %v\n", err)
		return 2
	}

	if o.version {
		fmt.Fprintln(stdout, versionString())
		return 0
	}

	if o.initConfig {
		path := o.configPath
		if path == "" {
			path = config.DefaultPath()
		}
		if err := config.SaveConfig(config.DefaultConfig(), path); err != nil {
			fmt.Fprintf(stderr, "sysgraph: write config: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "wrote %s\n", path)
		return 0
	}

	cfg, err := loadConfig(o)
	if err != nil {
		fmt.Fprintf(stderr, "sysgraph: %v\n", err)
		return 1
	}

	// The dashboard owns the terminal, so its logs always go to a file.
	logger, logCloser, err := newLogger(cfg.Log, o.verbose, !o.once, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "sysgraph: %v\n", err)
		return 1
	}
	if logCloser != nil {
		defer logCloser.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg, o, logger, stdout); err != nil {
		logger.Error("sysgraph failed", "error", err)
		fmt.Fprintf(stderr, "sysgraph: %v\n", err)
		return 1
	}
	return 0
}

// serve runs the monitor in the selected mode until it finishes or ctx ends.
func serve(ctx context.Context, cfg *config.Config, o options, logger *slog.Logger, stdout io.Writer) error {
	domains, err := cfg.ParsedDomains()
	if err != nil {
		return err
	}

	var store *artifact.Store
	if cfg.Output.SVGDir != "" {
		store, err = openStore(cfg.Output.SVGDir, logger)
		if err != nil {
			return err
		}
	}

	data := system.New(cfg.CollectorOptions(logger))
	defer data.Close()

	mon := newMonitor(data, domains, cfg.Interval.Duration, store, logger)
	mon.start(ctx)
	defer mon.stop()

	if o.once {
		if err := mon.waitTicks(ctx, uint64(o.ticks)); err != nil {
			logger.Info("interrupted before all ticks completed", "error", err)
		}
		mon.stop()

		width := 80
		f, isFile := stdout.(*os.File)
		if isFile && !o.noColor {
			color.Apply(f)
		} else {
			color.ForceDisable()
		}
		if isFile {
			if w, _, err := term.GetSize(f.Fd()); err == nil && w > 0 {
				width = w
			}
		}
		return printOnce(stdout, data, domains, width)
	}

	model := tui.NewModel(data, domains, mon.updates, tui.WithInterval(cfg.Interval.Duration))
	defer model.Close()

	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}
