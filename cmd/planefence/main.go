package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/unklstewy/planefence/internal/fence"
	"github.com/unklstewy/planefence/internal/logsource"
	"github.com/unklstewy/planefence/internal/sink"
	"github.com/unklstewy/planefence/pkg/config"
	"github.com/unklstewy/planefence/pkg/coordinates"
	"github.com/unklstewy/planefence/pkg/logger"
	"github.com/unklstewy/planefence/pkg/tracklink"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// options mirrors the command line. Only flags given explicitly override
// the configuration file.
type options struct {
	configPath   string
	logFile      string
	outFile      string
	distance     float64
	lat          float64
	lon          float64
	maxAlt       float64
	altCorr      int
	distUnit     string
	trackService string
	calcDist     bool
	verbose      bool
	header       bool
	sqlitePath   string
	postgres     bool
	natsURL      string
	logFormat    string
	summary      bool
}

// Planefence reduces a day of receiver log into the list of aircraft that
// came within range of the receiver.
func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func newFlagSet(o *options, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("planefence", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&o.configPath, "config", "", "Path to a JSON or TOML configuration file")
	fs.StringVar(&o.logFile, "logfile", "", "Receiver CSV log to read (.gz and .zst are decompressed, - is stdin)")
	fs.StringVar(&o.logFile, "log", "", "Alias for --logfile")
	fs.StringVar(&o.outFile, "outfile", "", "Event CSV to write (default stdout)")
	fs.Float64Var(&o.distance, "distance", 0, "Maximum distance from the receiver")
	fs.Float64Var(&o.distance, "dist", 0, "Alias for --distance")
	fs.Float64Var(&o.lat, "lat", 0, "Receiver latitude")
	fs.Float64Var(&o.lon, "lon", 0, "Receiver longitude")
	fs.Float64Var(&o.maxAlt, "maxalt", 0, "Maximum altitude in feet")
	fs.IntVar(&o.altCorr, "altcorr", 0, "Feet subtracted from every reported altitude")
	fs.StringVar(&o.distUnit, "distunit", "", "Distance unit: km, nm, mi or m")
	fs.StringVar(&o.trackService, "trackservice", "", "Track link service: adsbexchange or flightaware")
	fs.BoolVar(&o.calcDist, "calcdist", false, "Compute distance from coordinates instead of the logged value")
	fs.BoolVar(&o.verbose, "verbose", false, "Log every new event and flight number")
	fs.BoolVar(&o.verbose, "v", false, "Alias for --verbose")
	fs.BoolVar(&o.header, "header", false, "Write a header row to the event CSV")
	fs.StringVar(&o.sqlitePath, "sqlite", "", "Also archive events in this SQLite database")
	fs.BoolVar(&o.postgres, "postgres", false, "Also archive events in the configured PostgreSQL database")
	fs.StringVar(&o.natsURL, "nats-url", "", "Also publish events to this NATS server")
	fs.StringVar(&o.logFormat, "log-format", "", "Log format: console or json")
	fs.BoolVar(&o.summary, "summary", false, "Print a run summary table to stderr")

	return fs
}

// apply copies explicitly set flags onto cfg.
func (o *options) apply(fs *flag.FlagSet, cfg *config.Config) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "logfile", "log":
			cfg.Input.LogFile = o.logFile
		case "outfile":
			cfg.Output.File = o.outFile
		case "distance", "dist":
			cfg.Fence.MaxDistance = o.distance
		case "lat":
			cfg.Observer.Latitude = o.lat
		case "lon":
			cfg.Observer.Longitude = o.lon
		case "maxalt":
			cfg.Fence.MaxAltitude = o.maxAlt
		case "altcorr":
			cfg.Fence.AltitudeCorrection = o.altCorr
		case "distunit":
			cfg.Fence.DistanceUnit = o.distUnit
		case "trackservice":
			cfg.Tracking.Service = o.trackService
		case "calcdist":
			cfg.Fence.CalcDistance = o.calcDist
		case "verbose", "v":
			if o.verbose {
				cfg.Log.Level = "debug"
			}
		case "header":
			cfg.Output.Header = o.header
		case "sqlite":
			cfg.SQLite.Path = o.sqlitePath
		case "postgres":
			cfg.Database.Enabled = o.postgres
		case "nats-url":
			cfg.NATS.URL = o.natsURL
		case "log-format":
			cfg.Log.Format = o.logFormat
		}
	})
}

func run(args []string, stderr io.Writer) int {
	var o options
	fs := newFlagSet(&o, stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	cfg, err := config.Load(o.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load configuration: %v\n", err)
		return exitUsage
	}
	o.apply(fs, cfg)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		fs.Usage()
		return exitUsage
	}

	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: stderr})
	if err != nil {
		fmt.Fprintf(stderr, "Failed to create logger: %v\n", err)
		return exitUsage
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := reduce(ctx, cfg, o.summary, log, stderr); err != nil {
		log.Error("Planefence failed", logger.Error(err))
		return exitFailure
	}
	return exitOK
}

// newEngine builds the filter and link generator described by cfg.
// Validate has already checked every value it parses.
func newEngine(cfg *config.Config, log *logger.Logger) (*fence.Engine, error) {
	unit, err := coordinates.ParseDistanceUnit(cfg.Fence.DistanceUnit)
	if err != nil {
		return nil, err
	}
	service, err := tracklink.ParseService(cfg.Tracking.Service)
	if err != nil {
		return nil, err
	}

	observer := cfg.ObserverLocation()
	links, err := tracklink.New(service, observer)
	if err != nil {
		return nil, err
	}

	filter := fence.Filter{
		MaxDistance:        cfg.Fence.MaxDistance,
		MaxAltitude:        cfg.Fence.MaxAltitude,
		AltitudeCorrection: float64(cfg.Fence.AltitudeCorrection),
	}
	if cfg.Fence.CalcDistance {
		filter.Distance = fence.GreatCircleDistance(observer, unit)
	}

	return fence.NewEngine(filter, links, log), nil
}

// openSinks connects every configured output. The CSV sink is always first.
func openSinks(ctx context.Context, cfg *config.Config, log *logger.Logger) (sink.Multi, error) {
	sinks := sink.Multi{sink.NewCSV(cfg.Output.File, cfg.Output.Header, log)}

	if cfg.SQLite.Path != "" {
		s, err := sink.NewSQLite(ctx, cfg.SQLite.Path, log)
		if err != nil {
			sinks.Close()
			return nil, fmt.Errorf("failed to open sqlite archive: %w", err)
		}
		sinks = append(sinks, s)
	}

	if cfg.Database.Enabled {
		s, err := sink.NewPostgres(ctx, cfg.Database, log)
		if err != nil {
			sinks.Close()
			return nil, err
		}
		sinks = append(sinks, s)
	}

	if cfg.NATS.URL != "" {
		s, err := sink.NewNATS(cfg.NATS.URL, cfg.NATS.Subject, log)
		if err != nil {
			sinks.Close()
			return nil, err
		}
		sinks = append(sinks, s)
	}

	return sinks, nil
}

func reduce(ctx context.Context, cfg *config.Config, summary bool, log *logger.Logger, stderr io.Writer) error {
	start := time.Now()

	engine, err := newEngine(cfg, log)
	if err != nil {
		return err
	}

	// Open outputs before reading so a bad connection fails fast.
	sinks, err := openSinks(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer sinks.Close()

	src, err := logsource.Open(cfg.Input.LogFile, log)
	if err != nil {
		return err
	}
	runErr := engine.Run(src)
	if err := src.Close(); err != nil {
		log.Warn("Failed to close log", logger.Error(err))
	}
	if runErr != nil {
		return runErr
	}

	records := fence.Finalize(engine.Table())
	if err := sinks.Write(ctx, records); err != nil {
		return err
	}

	stats := engine.Stats()
	elapsed := time.Since(start)
	log.Info("Run complete",
		logger.String("logfile", cfg.Input.LogFile),
		logger.Int("sightings", stats.Sightings),
		logger.Int("unreadable_rows", src.Skipped()),
		logger.Int("malformed", stats.Malformed),
		logger.Int("in_range", stats.InRange),
		logger.Int("events", len(records)),
		logger.Int("out_of_order", stats.OutOfOrder),
		logger.Duration("elapsed", elapsed))

	if summary {
		fmt.Fprintln(stderr, renderSummary(cfg, stats, src.Skipped(), len(records), elapsed))
	}
	return nil
}
