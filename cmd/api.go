package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/agora/internal/api"
	"github.com/agora/internal/config"
	"github.com/agora/internal/store"
)

// APICommand returns the CLI command for starting the API server
func APICommand() *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Start the Agora API server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port for the API server (overrides config)",
			},
			&cli.BoolFlag{
				Name:  "memory",
				Usage: "Run against the in-memory store instead of Postgres",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.LoadConfig(c.String("config"))
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if c.IsSet("port") {
				cfg.Server.Port = c.Int("port")
			}
			if err := config.Validate(cfg); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			var st store.Store
			if c.Bool("memory") || cfg.Database.URL == "" {
				log.Info().Msg("no database configured, using in-memory store")
				st = store.NewMemoryStore()
			} else {
				pg, err := store.OpenPostgres(cfg.Database.URL)
				if err != nil {
					return fmt.Errorf("failed to open store: %w", err)
				}
				defer pg.Close()
				st = pg
			}

			fmt.Printf("Starting Agora API server on port %d...\n", cfg.Server.Port)

			server := api.NewServer(cfg.Server.Port, st, cfg.SendTimeout())
			return server.Start()
		},
	}
}
