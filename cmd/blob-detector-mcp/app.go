package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/ironsheep/blob-detector-mcp/internal/config"
	"github.com/ironsheep/blob-detector-mcp/internal/detector"
	"github.com/ironsheep/blob-detector-mcp/internal/imaging"
	"github.com/ironsheep/blob-detector-mcp/internal/server"
)

const (
	// Flags.
	flagDebug       = "debug"
	flagLogLevel    = "log-level"
	flagConfig      = "config"
	flagConcurrency = "concurrency"
	flagAnnotate    = "annotate"
	flagMarkColor   = "mark-color"
	flagForce       = "force"

	envLogLevel = "BLOB_MCP_LOG_LEVEL"
)

// cliState carries what the Before hook sets up to the actions.
type cliState struct {
	log      *logrus.Logger
	registry *config.Registry
}

// newApp builds the command line application. MCP traffic uses in and out,
// so logs and diagnostics go to errOut.
func newApp(in io.Reader, out, errOut io.Writer) *cli.App {
	st := &cliState{registry: config.DefaultRegistry()}

	configFlag := &cli.StringFlag{
		Name:    flagConfig,
		Aliases: []string{"c"},
		Usage:   "load the detector configuration from `FILE` (default: $" + config.EnvConfigPath + " or built-in)",
	}
	concurrencyFlag := &cli.IntFlag{
		Name:  flagConcurrency,
		Value: 1,
		Usage: "number of threshold levels to extract in parallel",
	}

	return &cli.App{
		Name:            "blob-detector-mcp",
		Usage:           "detect repeatable blobs in images, as an MCP server or from the command line",
		Version:         Version,
		HideHelpCommand: true,
		Reader:          in,
		Writer:          out,
		ErrWriter:       errOut,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  flagDebug,
				Usage: "enable debug logging",
			},
			&cli.StringFlag{
				Name:    flagLogLevel,
				Value:   "info",
				EnvVars: []string{envLogLevel},
				Usage:   "log `LEVEL` (debug, info, warn, error)",
			},
		},
		Before: func(c *cli.Context) error {
			log, err := newLogger(errOut, c.String(flagLogLevel), c.Bool(flagDebug))
			if err != nil {
				return err
			}
			st.log = log
			return nil
		},
		Action: func(c *cli.Context) error {
			return st.serve(c)
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the MCP server on stdin/stdout (default)",
				Flags:  []cli.Flag{configFlag, concurrencyFlag},
				Action: st.serve,
			},
			{
				Name:      "detect",
				Usage:     "detect objects in an image and print them as JSON",
				ArgsUsage: "<image>",
				Flags: []cli.Flag{
					configFlag,
					concurrencyFlag,
					&cli.StringFlag{
						Name:  flagAnnotate,
						Usage: "write a PNG with the detected objects circled to `FILE`",
					},
					&cli.StringFlag{
						Name:  flagMarkColor,
						Value: "#FF0000",
						Usage: "hex color of the annotation circles",
					},
				},
				Action: st.detect,
			},
			{
				Name:            "config",
				Usage:           "work with detector configuration files",
				HideHelpCommand: true,
				Subcommands: []*cli.Command{
					{
						Name:      "init",
						Usage:     "write the default configuration",
						ArgsUsage: "<path.yaml>",
						Flags: []cli.Flag{
							&cli.BoolFlag{
								Name:  flagForce,
								Usage: "overwrite an existing file",
							},
						},
						Action: st.configInit,
					},
					{
						Name:      "check",
						Usage:     "validate a configuration file",
						ArgsUsage: "<path.yaml>",
						Action:    st.configCheck,
					},
				},
			},
			{
				Name:   "filters",
				Usage:  "list the available filters and threshold policies",
				Action: st.filters,
			},
			{
				Name:  "version",
				Usage: "print version info for this program",
				Action: func(c *cli.Context) error {
					fmt.Fprintf(c.App.Writer, "blob-detector-mcp %s\n", Version)
					fmt.Fprintf(c.App.Writer, "  Build time: %s\n", BuildTime)
					fmt.Fprintf(c.App.Writer, "  Git commit: %s\n", GitCommit)
					return nil
				},
			},
		},
	}
}

// newLogger returns a logger writing to w. Debug output uses the text
// formatter with full timestamps, everything else is JSON.
func newLogger(w io.Writer, level string, debug bool) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetOutput(w)

	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	if debug {
		lvl = logrus.DebugLevel
	}
	log.SetLevel(lvl)

	if lvl >= logrus.DebugLevel {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return log, nil
}

// loadConfig reads --config, falling back to the environment and then the
// built-in default.
func (st *cliState) loadConfig(c *cli.Context) (*config.Config, error) {
	if path := c.String(flagConfig); path != "" {
		return config.Load(path, st.registry)
	}
	return config.LoadFromEnv(st.registry)
}

func (st *cliState) serve(c *cli.Context) error {
	cfg, err := st.loadConfig(c)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	st.log.WithFields(logrus.Fields{
		"version":    Version,
		"build_time": BuildTime,
		"commit":     GitCommit,
		"policy":     cfg.Threshold.Type,
	}).Debug("Starting MCP server")

	srv := server.New(
		server.WithLogger(st.log),
		server.WithRegistry(st.registry),
		server.WithConfig(cfg),
		server.WithConcurrency(c.Int(flagConcurrency)),
	)
	if err := srv.Serve(ctx, c.App.Reader, c.App.Writer); err != nil && ctx.Err() == nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// detectOutput is printed by the detect command.
type detectOutput struct {
	Path    string                `json:"path"`
	Count   int                   `json:"count"`
	Objects []server.ObjectResult `json:"objects"`
}

func (st *cliState) detect(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one image path, got %d arguments", c.NArg())
	}
	path := c.Args().First()

	cfg, err := st.loadConfig(c)
	if err != nil {
		return err
	}
	d, err := cfg.Build(st.registry,
		detector.WithLogger(st.log),
		detector.WithConcurrency(c.Int(flagConcurrency)),
	)
	if err != nil {
		return err
	}

	img, err := imaging.NewImageCache().Load(path)
	if err != nil {
		return err
	}
	objects, err := d.Detect(c.Context, img)
	if err != nil {
		return fmt.Errorf("detection failed: %w", err)
	}

	result := detectOutput{Path: path, Count: len(objects), Objects: make([]server.ObjectResult, 0, len(objects))}
	marks := make([]imaging.Mark, 0, len(objects))
	for _, o := range objects {
		result.Objects = append(result.Objects, server.ObjectResult{
			X:             o.Location.X,
			Y:             o.Location.Y,
			Size:          o.Size,
			Repeatability: o.Repeatability,
		})
		marks = append(marks, imaging.Mark{
			X:      o.Location.X,
			Y:      o.Location.Y,
			Radius: o.Size / 2,
			Label:  strconv.Itoa(o.Repeatability),
		})
	}

	if out := c.String(flagAnnotate); out != "" {
		if err := writeAnnotated(out, img, marks, c.String(flagMarkColor)); err != nil {
			return err
		}
		st.log.WithField("path", out).Info("Wrote annotated image")
	}

	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func writeAnnotated(path string, img image.Image, marks []imaging.Mark, markColor string) error {
	annotated, err := imaging.Annotate(img, marks, markColor)
	if err != nil {
		return err
	}
	data, err := base64.StdEncoding.DecodeString(annotated.ImageBase64)
	if err != nil {
		return fmt.Errorf("failed to decode annotated image: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write annotated image: %w", err)
	}
	return nil
}

func (st *cliState) configInit(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one output path, got %d arguments", c.NArg())
	}
	path := c.Args().First()

	if !c.Bool(flagForce) {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists, use --%s to overwrite", path, flagForce)
		}
	}
	if err := config.Save(path, config.Default()); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Wrote default configuration to %s\n", path)
	return nil
}

func (st *cliState) configCheck(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one config path, got %d arguments", c.NArg())
	}
	cfg, err := config.Load(c.Args().First(), st.registry)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "OK: %s policy, %d filters\n", cfg.Threshold.Type, len(cfg.Filters))
	return nil
}

func (st *cliState) filters(c *cli.Context) error {
	fmt.Fprintln(c.App.Writer, "Filters:")
	for _, name := range st.registry.FilterNames() {
		fmt.Fprintf(c.App.Writer, "  %s\n", name)
	}
	fmt.Fprintln(c.App.Writer, "Threshold policies:")
	for _, name := range st.registry.PolicyNames() {
		fmt.Fprintf(c.App.Writer, "  %s\n", name)
	}
	return nil
}
