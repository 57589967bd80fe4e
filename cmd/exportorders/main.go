package main

import (
	"flag"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"

	"orderview/internal/export"
	"orderview/internal/locale"
	"orderview/internal/logger"
	"orderview/internal/metrics"
)

// Config holds CLI flags for the exporter.
type Config struct {
	Inputs      []string
	Output      string
	IndexDir    string
	AfterID     string
	Incremental bool
	// Sinks
	Sink           string // comma list of file, kafka, sheet; "both" is file,kafka
	SheetOutput    string
	TimeZone       string
	KafkaBootstrap string
	Topic          string
	MetricsAddr    string
	LogLevel       string
	LogPretty      bool
}

func main() {
	cfg := readFlags()
	log := logger.New(logger.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty, Out: os.Stderr})
	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("export failed")
	}
}

func readFlags() Config {
	var cfg Config
	var inputs string
	flag.StringVar(&inputs, "input", "merged_orders.json", "comma-separated merged page files")
	flag.StringVar(&cfg.Output, "output", "optimized_orders.json", "export file")
	flag.StringVar(&cfg.IndexDir, "index-dir", "", "pebble directory remembering exported order IDs (in-memory when empty)")
	flag.StringVar(&cfg.AfterID, "after-id", "", "only export orders with a numeric ID greater than this")
	flag.BoolVar(&cfg.Incremental, "incremental", false, "append to the export file, continuing after the last exported order ID")
	flag.StringVar(&cfg.Sink, "sink", "file", "comma-separated sinks: file, kafka, sheet (both = file,kafka)")
	flag.StringVar(&cfg.SheetOutput, "sheet-output", "orders.xlsx", "spreadsheet written by the sheet sink")
	flag.StringVar(&cfg.TimeZone, "tz", "Local", "time zone of spreadsheet dates")
	flag.StringVar(&cfg.KafkaBootstrap, "kafka-bootstrap", "", "kafka bootstrap servers, e.g. localhost:9092")
	flag.StringVar(&cfg.Topic, "topic", "orderview.orders", "kafka topic for exported orders")
	flag.StringVar(&cfg.MetricsAddr, "metrics-addr", "", "serve /metrics on this address while exporting")
	flag.StringVar(&cfg.LogLevel, "log-level", "info", "log level")
	flag.BoolVar(&cfg.LogPretty, "log-pretty", false, "human-readable logs")
	flag.Parse()
	for _, in := range strings.Split(inputs, ",") {
		if in = strings.TrimSpace(in); in != "" {
			cfg.Inputs = append(cfg.Inputs, in)
		}
	}
	cfg.Inputs = append(cfg.Inputs, flag.Args()...)
	return cfg
}

func run(cfg Config, log zerolog.Logger) error {
	if len(cfg.Inputs) == 0 {
		return errors.New("no input files")
	}
	outDir := filepath.Dir(cfg.Output)

	if cfg.Incremental && cfg.AfterID == "" {
		m, err := export.ReadManifest(outDir)
		if err != nil {
			log.Info().Err(err).Msg("no previous manifest, exporting everything")
		} else {
			cfg.AfterID = m.LastOrderID
			log.Info().Str("after_id", m.LastOrderID).Msg("continuing previous export")
		}
	}

	mreg := metrics.NewRegistry()
	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", mreg.Handler())
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				log.Warn().Err(err).Msg("metrics server stopped")
			}
		}()
	}

	idx, err := export.OpenIndex(cfg.IndexDir)
	if err != nil {
		return err
	}
	defer idx.Close()
	sink, err := openSink(cfg)
	if err != nil {
		return err
	}

	var (
		pages   []export.Page
		skipped int
	)
	for _, in := range cfg.Inputs {
		ps, notes, err := export.ReadPages(in)
		if err != nil {
			return err
		}
		for _, n := range notes {
			log.Warn().Str("file", in).Msg("skipped page: " + n)
		}
		skipped += len(notes)
		pages = append(pages, ps...)
		log.Info().Str("file", in).Int("pages", len(ps)).Msg("read merged pages")
	}

	res, err := export.Export(pages, export.Options{
		AfterID: cfg.AfterID,
		Index:   idx,
		Sink:    sink,
		Metrics: mreg,
		Log:     log,
	})
	if err != nil {
		return err
	}

	if err := export.WriteManifest(outDir, export.Manifest{
		Output:      cfg.Output,
		Count:       res.Exported,
		Duplicates:  res.Duplicates,
		Skipped:     res.Skipped + skipped,
		LastOrderID: res.LastOrderID,
	}); err != nil {
		return errors.Wrap(err, "write manifest")
	}

	log.Info().
		Str("output", cfg.Output).
		Int("exported", res.Exported).
		Int("duplicates", res.Duplicates).
		Int("filtered", res.Filtered).
		Int("skipped", res.Skipped+skipped).
		Str("last_order_id", res.LastOrderID).
		Msg("export completed")
	return nil
}

func openSink(cfg Config) (export.Sink, error) {
	want := map[string]bool{}
	for _, name := range strings.Split(cfg.Sink, ",") {
		switch name = strings.TrimSpace(name); name {
		case "", "file", "kafka", "sheet":
			want[name] = true
		case "both":
			want["file"], want["kafka"] = true, true
		default:
			return nil, errors.Newf("unknown sink %q", name)
		}
	}
	if len(want) == 1 && want[""] {
		want["file"] = true
	}

	var sinks []export.Sink
	if want["file"] {
		fs, err := export.NewFileSink(cfg.Output, cfg.Incremental)
		if err != nil {
			return nil, errors.Wrap(err, "init file sink")
		}
		sinks = append(sinks, fs)
	}
	if want["kafka"] {
		if cfg.KafkaBootstrap == "" {
			return nil, errors.New("-kafka-bootstrap is required for the kafka sink")
		}
		sinks = append(sinks, export.NewKafkaSink(cfg.KafkaBootstrap, cfg.Topic))
	}
	if want["sheet"] {
		loc, err := time.LoadLocation(cfg.TimeZone)
		if err != nil {
			return nil, errors.Wrapf(err, "time zone %q", cfg.TimeZone)
		}
		ss, err := export.NewSheetSink(cfg.SheetOutput, locale.New("zh-CN", loc))
		if err != nil {
			return nil, errors.Wrap(err, "init sheet sink")
		}
		sinks = append(sinks, ss)
	}
	switch len(sinks) {
	case 0:
		return nil, errors.Newf("unknown sink %q", cfg.Sink)
	case 1:
		return sinks[0], nil
	}
	return export.NewMultiSink(sinks...), nil
}
