package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/urfave/cli"

	"github.com/valerio/go-skyboy/skyboy/romtest"
)

var testROMFlags = []cli.Flag{
	cli.IntFlag{
		Name:  "frames",
		Usage: "Frame budget per ROM",
		Value: 3000,
	},
	cli.IntFlag{
		Name:  "parallel",
		Usage: "ROMs run at once (0 = one per CPU)",
	},
	cli.StringFlag{
		Name:  "report",
		Usage: "Write a JSON report to this file",
	},
	cli.BoolFlag{
		Name:  "verbose",
		Usage: "Log serial output line by line",
	},
}

func runTestROMs(c *cli.Context) error {
	if err := setupLogging(globalString(c, "log-level")); err != nil {
		return err
	}
	if c.NArg() == 0 {
		return errors.New("no ROM paths provided")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := romtest.Options{
		Config:   cfg,
		Frames:   c.Int("frames"),
		Parallel: c.Int("parallel"),
	}
	if c.Bool("verbose") {
		opts.Logger = slog.Default()
	}

	results, err := romtest.Run(ctx, c.Args(), opts)
	if err != nil {
		return err
	}

	w := c.App.Writer
	for _, r := range results {
		line := fmt.Sprintf("%-8s %-40s %5d frames %v", r.Status, filepath.Base(r.ROM), r.Frames, r.Duration.Round(time.Millisecond))
		if r.Err != nil {
			line += "  " + r.Err.Error()
		}
		fmt.Fprintln(w, line)
	}

	if path := c.String("report"); path != "" {
		if err := os.WriteFile(path, romtest.EncodeReport(results), 0o644); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		slog.Info("Report written", "path", path)
	}

	summary := romtest.Summary(results)
	slog.Info("Test roms finished", "passed", summary[romtest.StatusPassed], "total", len(results))
	if summary[romtest.StatusPassed] != len(results) {
		return fmt.Errorf("%d of %d roms did not pass", len(results)-summary[romtest.StatusPassed], len(results))
	}
	return nil
}
