package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/agora/cmd"
)

const (
	version = "1.0.0"
)

func main() {
	app := &cli.App{
		Name:    "agora",
		Usage:   "Social-posting service with conviction-based engagement and realtime notifications",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE`",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
			if c.Bool("debug") {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
			if _, err := os.Stat(".env"); err == nil {
				if err := cmd.LoadEnvFile(".env"); err != nil {
					return err
				}
			}
			return nil
		},
		Commands: []*cli.Command{
			cmd.APICommand(),
			cmd.MigrateCommand(),
			cmd.ConfigCommand(),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
