package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/cwbudde/algo-spectra/internal/config"
	"github.com/cwbudde/algo-spectra/internal/pipeline"
	"github.com/cwbudde/algo-spectra/internal/specio"
	"github.com/cwbudde/algo-spectra/internal/telemetry"
	"github.com/cwbudde/algo-spectra/spectra/band"
	"github.com/cwbudde/algo-spectra/spectra/noise"
	"github.com/cwbudde/algo-spectra/stats/spectrum"
)

// Build information, set via ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
)

func newApp() *cli.App {
	return &cli.App{
		Name:    "speccoadd",
		Usage:   "coadd multi-exposure spectra and merge spectrograph bands",
		Version: fmt.Sprintf("%s (commit: %s)", Version, Commit),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML configuration file",
				EnvVars: []string{config.DefaultEnvPrefix + "CONFIG"},
			},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
			&cli.StringFlag{Name: "log-format", Usage: "text or json"},
		},
		Commands: []*cli.Command{
			runCommand(),
			infoCommand(),
			bandsCommand(),
		},
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "coadd, merge and write a product document",
		ArgsUsage: "<input.json[.zst]>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "product path (.zst compresses)", Value: "coadd.json"},
			&cli.IntFlag{Name: "workers", Aliases: []string{"j"}, Usage: "targets coadded concurrently (0: all CPUs)"},
			&cli.StringFlag{Name: "bands", Usage: "comma-separated bands to merge, e.g. b,r,z"},
			&cli.Int64SliceFlag{Name: "targets", Aliases: []string{"t"}, Usage: "target ids to keep, in output order"},
			&cli.BoolFlag{Name: "no-coadd", Usage: "merge input rows without coadding exposures"},
			&cli.IntFlag{Name: "thumb-factor", Usage: "thumbnail decimation factor (0: none)"},
			&cli.Float64Flag{Name: "noise-sentinel", Usage: "sigma reported where ivar is zero"},
			&cli.StringFlag{Name: "metrics-file", Usage: "write Prometheus metrics to this textfile"},
			&cli.IntFlag{Name: "start", Usage: "first input row to read"},
			&cli.IntFlag{Name: "nspec", Usage: "number of input rows to read (0: through the last row)"},
			&cli.BoolFlag{Name: "air", Usage: "input wavelengths are in air; convert them to vacuum"},
		},
		Action: runAction,
	}
}

// overrides collects explicitly set flags in the nested layout of the
// configuration file.
func overrides(c *cli.Context) map[string]any {
	out := make(map[string]any)
	if c.IsSet("workers") {
		out["workers"] = c.Int("workers")
	}
	if c.IsSet("bands") {
		out["bands"] = strings.Split(c.String("bands"), ",")
	}
	if c.IsSet("no-coadd") {
		out["coadd"] = !c.Bool("no-coadd")
	}
	if c.IsSet("thumb-factor") {
		out["thumb_factor"] = c.Int("thumb-factor")
	}
	if c.IsSet("noise-sentinel") {
		out["noise_sentinel"] = c.Float64("noise-sentinel")
	}
	if c.IsSet("metrics-file") {
		out["metrics_file"] = c.String("metrics-file")
	}
	if c.IsSet("air") {
		out["air_wavelengths"] = c.Bool("air")
	}
	logCfg := make(map[string]any)
	if c.IsSet("log-level") {
		logCfg["level"] = c.String("log-level")
	}
	if c.IsSet("log-format") {
		logCfg["format"] = c.String("log-format")
	}
	if len(logCfg) > 0 {
		out["log"] = logCfg
	}
	return out
}

func loadConfig(c *cli.Context) (config.Config, error) {
	return config.NewLoader(
		config.WithConfigFile(c.String("config")),
		config.WithOverrides(overrides(c)),
	).Load()
}

func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func readInput(c *cli.Context) (*specio.Document, error) {
	if c.NArg() != 1 {
		return nil, fmt.Errorf("expected one input document, got %d arguments", c.NArg())
	}
	var doc specio.Document
	if err := specio.ReadFile(c.Args().First(), &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func runAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger := newLogger(c.App.ErrWriter, cfg.Log)

	doc, err := readInput(c)
	if err != nil {
		return err
	}
	s, err := doc.Spectra()
	if err != nil {
		return err
	}

	metrics := telemetry.NewRegistry()
	p, err := pipeline.New(cfg, pipeline.WithLogger(logger), pipeline.WithMetrics(metrics))
	if err != nil {
		return err
	}

	prod, err := p.Run(c.Context, pipeline.Input{
		Spectra:   s,
		Templates: doc.ModelTemplates(),
		Targets:   c.Int64Slice("targets"),
		Start:     c.Int("start"),
		Count:     c.Int("nspec"),
	})
	var skip *pipeline.SkipError
	if errors.As(err, &skip) {
		logger.Warn("skipping input", "input", c.Args().First(), "reason", skip.Error())
		return writeMetrics(metrics, cfg.MetricsFile)
	}
	if err != nil {
		return err
	}

	out := c.String("output")
	if err := specio.WriteFile(out, prod.Document()); err != nil {
		return err
	}
	logger.Info("product written", "path", out, "rows", prod.Merged.NumRows())

	return writeMetrics(metrics, cfg.MetricsFile)
}

func writeMetrics(metrics *telemetry.Registry, path string) error {
	if path == "" {
		return nil
	}
	return metrics.WriteTextfile(path)
}

func infoCommand() *cli.Command {
	return &cli.Command{
		Name:      "info",
		Usage:     "print per-row, per-band statistics",
		ArgsUsage: "<input.json[.zst]>",
		Flags: []cli.Flag{
			&cli.Float64Flag{Name: "pmin", Usage: "lower fractional rank of the flux range", Value: 0.01},
			&cli.Float64Flag{Name: "pmax", Usage: "upper fractional rank of the flux range", Value: 0.99},
		},
		Action: func(c *cli.Context) error {
			doc, err := readInput(c)
			if err != nil {
				return err
			}
			s, err := doc.Spectra()
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "Row\tTarget\tBand\tGood\tMean\tMedian SNR\tNoise\tRange\n")
			fmt.Fprintf(tw, "---\t------\t----\t----\t----\t----------\t-----\t-----\n")
			for row, id := range s.TargetIDs {
				for _, b := range s.BandList() {
					d := s.Bands[b]
					st := spectrum.Calculate(d.Flux[row], d.Ivar[row])
					lo, hi := spectrum.PercentileRange(d.Flux[row], c.Float64("pmin"), c.Float64("pmax"))
					fmt.Fprintf(tw, "%d\t%d\t%v\t%d/%d\t%.4g\t%.3g\t%.3g\t[%.4g, %.4g]\n",
						row, id, b, st.Good, st.Length, st.Mean,
						noise.MedianSNR(d.Flux[row], d.Ivar[row]), st.NoiseLevel, lo, hi)
				}
			}
			return tw.Flush()
		},
	}
}

func bandsCommand() *cli.Command {
	return &cli.Command{
		Name:  "bands",
		Usage: "print the spectrograph bands",
		Action: func(c *cli.Context) error {
			tw := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "Band\tMin [A]\tMax [A]\n")
			fmt.Fprintf(tw, "----\t-------\t-------\n")
			for _, b := range band.All() {
				cov := b.Coverage()
				fmt.Fprintf(tw, "%v\t%.0f\t%.0f\n", b, cov.Min, cov.Max)
			}
			return tw.Flush()
		},
	}
}
