// Command macroforecast writes the inflation report or serves it as a dashboard api.
//
//	macroforecast report [--config file] [--offline] [--countries AT,EA20] [--output-dir dir]
//	macroforecast serve  [--config file] [--offline] [--addr :8000]
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/aouyang1/go-macroforecast/config"
	"github.com/aouyang1/go-macroforecast/metrics"
	"github.com/aouyang1/go-macroforecast/pipeline"
	"github.com/aouyang1/go-macroforecast/report"
	"github.com/aouyang1/go-macroforecast/server"
	"github.com/goccy/go-json"
	"github.com/pkg/profile"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

const usage = `usage: macroforecast <command> [flags]

commands:
  report   fetch the series, write report.txt, report.html and report.json
  serve    serve the dashboard and json api
`

var errUsage = errors.New("unknown command")

// commonFlags are shared by every subcommand
type commonFlags struct {
	configPath string
	envFile    string
	logLevel   string
	offline    bool
	countries  []string
}

func (c *commonFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&c.configPath, "config", "c", "", "YAML config file")
	fs.StringVar(&c.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	fs.StringVar(&c.logLevel, "log-level", "", "overrides the configured log level")
	fs.BoolVar(&c.offline, "offline", false, "use the built in sample series instead of fetching")
	fs.StringSliceVar(&c.countries, "countries", nil, "countries to compare, e.g. AT,EA20")
}

// load reads the config and applies the flags set on the command line
func (c *commonFlags) load(fs *pflag.FlagSet) (*config.Config, error) {
	config.LoadEnvFiles(c.envFile)
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	if fs.Changed("countries") {
		if cfg, err = cfg.WithCountries(c.countries); err != nil {
			return nil, err
		}
	}
	if fs.Changed("offline") {
		cfg.Offline = c.offline
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = c.logLevel
	}
	return cfg.Validate()
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "report":
		err = runReport(ctx, os.Args[2:])
	case "serve":
		err = runServe(ctx, os.Args[2:])
	case "-h", "--help", "help":
		fmt.Fprint(os.Stdout, usage)
		return
	default:
		err = fmt.Errorf("%q, %w", os.Args[1], errUsage)
	}
	if err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
		}
		log.Fatal().Err(err).Msg("macroforecast failed")
	}
}

func setupLogging(level string) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

func runReport(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("report", pflag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	outputDir := fs.StringP("output-dir", "o", "", "directory the report files are written to")
	profileDir := fs.String("cpu-profile", "", "write a cpu profile to this directory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := common.load(fs)
	if err != nil {
		return err
	}
	setupLogging(cfg.LogLevel)
	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}
	if *profileDir != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(*profileDir), profile.Quiet).Stop()
	}

	p, err := pipeline.New(cfg, pipeline.Options{})
	if err != nil {
		return err
	}
	rep, err := p.Run(ctx)
	if err != nil {
		return err
	}
	return writeReport(cfg.OutputDir, rep)
}

func writeReport(dir string, rep *pipeline.Report) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("unable to create output directory, %w", err)
	}

	writers := map[string]func(*os.File) error{
		"report.txt":  func(f *os.File) error { return report.WriteText(f, rep) },
		"report.html": func(f *os.File) error { return report.WriteHTML(f, rep) },
		"report.json": func(f *os.File) error {
			data, err := json.MarshalIndent(rep, "", "  ")
			if err != nil {
				return err
			}
			_, err = f.Write(data)
			return err
		},
	}
	for name, write := range writers {
		path := filepath.Join(dir, name)
		if err := writeFile(path, write); err != nil {
			return fmt.Errorf("unable to write %s, %w", path, err)
		}
		log.Info().Str("path", path).Msg("report written")
	}
	return nil
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func runServe(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	addr := fs.String("addr", "", "listen address, overrides the configured one")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := common.load(fs)
	if err != nil {
		return err
	}
	setupLogging(cfg.LogLevel)
	if *addr != "" {
		cfg.ListenAddr = *addr
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	exporter := metrics.NewExporter(registry)

	p, err := pipeline.New(cfg, pipeline.Options{Metrics: exporter})
	if err != nil {
		return err
	}
	log.Info().
		Strs("countries", cfg.Countries).
		Str("indicator", cfg.Indicator).
		Bool("offline", cfg.Offline).
		Str("schedule", cfg.RefreshSchedule).
		Msg("starting server")

	return server.New(p, server.Options{Metrics: exporter, Gatherer: registry}).Run(ctx)
}
