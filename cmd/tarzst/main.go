package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/rillanetwork/tarzst/pkg/builder"
	"github.com/rillanetwork/tarzst/pkg/compress"
)

const appVersion = "0.1.0"

const (
	exitOK = iota
	exitFailure
	exitUsage
	exitToolchainMissing
	exitCompressFailed
)

const usageLine = "usage: tarzst <output.tar.zst> <config> [<config> ...]"

type usageError struct {
	msg string
}

func (e usageError) Error() string {
	return e.msg
}

func main() {
	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)
	code := run(ctx, os.Args, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(
	ctx context.Context,
	args []string,
	stdout, stderr io.Writer,
) int {
	app := newApp(stdout, stderr)
	if err := app.RunContext(ctx, args); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitCode(err)
	}
	return exitOK
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:            "tarzst",
		Usage:           "build reproducible tar.zst archives from manifests",
		ArgsUsage:       "<output.tar.zst> <config> [<config> ...]",
		HideHelpCommand: true,
		Writer:          stdout,
		ErrWriter:       stderr,
		Before: func(c *cli.Context) error {
			configureLogging(stderr, c.Bool("verbose"))
			return nil
		},
		OnUsageError: func(
			c *cli.Context, err error, _ bool,
		) error {
			return usageError{msg: err.Error()}
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "compressor",
				EnvVars: []string{"TARZST_COMPRESSOR"},
				Value:   compress.BackendZstd,
				Usage:   "compression backend (zstd or builtin)",
			},
			&cli.StringFlag{
				Name:    "zstd",
				EnvVars: []string{"ZSTD"},
				Value:   compress.DefaultBinary,
				Usage:   "zstd binary used by the zstd backend",
			},
			&cli.IntFlag{
				Name:  "level",
				Value: compress.MaxLevel,
				Usage: "zstd compression level (1-22)",
			},
			&cli.BoolFlag{
				Name:  "list",
				Usage: "print the archive contents after building",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "verbose output",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "version",
				Usage: "print version",
				Action: func(c *cli.Context) error {
					fmt.Fprintln(c.App.Writer, appVersion)
					return nil
				},
			},
		},
		Action: buildAction,
	}
}

func buildAction(c *cli.Context) error {
	if c.NArg() < 2 {
		return usageError{msg: usageLine}
	}
	level := c.Int("level")
	if level < 1 || level > compress.MaxLevel {
		return usageError{
			msg: fmt.Sprintf("level %d out of range 1-22", level),
		}
	}
	comp, err := compress.New(
		c.String("compressor"), c.String("zstd"), level,
	)
	if err != nil {
		return usageError{msg: err.Error()}
	}

	output := c.Args().First()
	configs := c.Args().Tail()
	slog.Debug("building",
		"output", output,
		"configs", configs,
		"compressor", comp.Name(),
	)

	res, err := builder.Build(c.Context, builder.Options{
		Output:     output,
		Configs:    configs,
		Compressor: comp,
		Index:      c.Bool("list"),
	})
	if err != nil {
		return err
	}

	for _, e := range res.Index {
		fmt.Fprintln(c.App.Writer, e.String())
	}
	fmt.Fprintf(c.App.Writer,
		"Created %s (%d entries, %s)\n",
		res.Output, res.Entries,
		humanize.Bytes(uint64(res.Size)),
	)
	return nil
}

func exitCode(err error) int {
	var (
		usage   usageError
		exitErr *compress.ExitError
	)
	switch {
	case errors.As(err, &usage):
		return exitUsage
	case errors.Is(err, compress.ErrToolchainMissing):
		return exitToolchainMissing
	case errors.As(err, &exitErr):
		return exitCompressFailed
	}
	return exitFailure
}

func configureLogging(w io.Writer, verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(
		slog.NewTextHandler(w, &slog.HandlerOptions{
			Level: level,
		}),
	))
}
