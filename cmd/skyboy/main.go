package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli"

	"github.com/valerio/go-skyboy/skyboy/config"
)

func main() {
	app := cli.NewApp()
	app.Name = "skyboy"
	app.Description = "A Game Boy emulator with a terminal front-end, rewind and a debug view"
	app.Usage = "skyboy [options] <ROM file>"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config",
			Usage: "Path to the TOML configuration file",
			Value: config.DefaultPath(),
		},
		cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn or error",
			Value: "info",
		},
	}
	app.Flags = append(app.Flags, runFlags...)
	app.Action = runEmulator
	app.Commands = []cli.Command{
		{
			Name:      "run",
			Usage:     "Run a ROM (default command)",
			ArgsUsage: "<ROM file>",
			Flags:     runFlags,
			Action:    runEmulator,
		},
		{
			Name:      "info",
			Usage:     "Print the cartridge header of a ROM",
			ArgsUsage: "<ROM file>",
			Action:    showInfo,
		},
		{
			Name:      "testroms",
			Usage:     "Run test ROMs concurrently and report the serial verdicts",
			ArgsUsage: "<ROM file>...",
			Flags:     testROMFlags,
			Action:    runTestROMs,
		},
		{
			Name:   "init-config",
			Usage:  "Write the default configuration to the config path",
			Action: initConfig,
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Error running emulator", "error", err)
		os.Exit(1)
	}
}

// setupLogging installs a text handler on stderr at the requested level.
func setupLogging(level string) error {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})
	slog.SetDefault(slog.New(handler))
	return nil
}

// globalString reads a flag defined on the app, from the app action or a command.
func globalString(c *cli.Context, name string) string {
	if c.IsSet(name) || c.GlobalString(name) == "" {
		return c.String(name)
	}
	return c.GlobalString(name)
}

func loadConfig(c *cli.Context) (config.Config, error) {
	path := globalString(c, "config")
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return cfg, err
	}
	slog.Debug("Configuration loaded", "path", path)
	return cfg, nil
}

func initConfig(c *cli.Context) error {
	path := globalString(c, "config")
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if err := config.Save(path, config.Default()); err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}
