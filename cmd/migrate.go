package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/agora/internal/config"
	"github.com/agora/internal/store"
)

// MigrateCommand returns the CLI command for applying the database schema
func MigrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply the database schema",
		Action: func(c *cli.Context) error {
			cfg, err := config.LoadConfig(c.String("config"))
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cfg.Database.URL == "" {
				return fmt.Errorf("database.url is not configured (set AGORA_DATABASE_URL or add it to agora.toml)")
			}

			pg, err := store.OpenPostgres(cfg.Database.URL)
			if err != nil {
				return fmt.Errorf("failed to open store: %w", err)
			}
			defer pg.Close()

			if err := pg.Migrate(context.Background()); err != nil {
				return err
			}
			fmt.Println("Schema applied")
			return nil
		},
	}
}
