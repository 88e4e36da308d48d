package cmd

import (
	"stuti/config"
	"stuti/database"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func migrateCmd() *cli.Command {
	return &cli.Command{
		Name:        "migrate",
		Usage:       "Run database migrations",
		Description: `Creates or updates every table on the configured database.`,
		Flags:       append(config.DBFlags(), config.LogFlags()...),
		Action: func(ctx *cli.Context) error {
			if err := config.ConfigureLogging(ctx.String("log-level"), ctx.String("log-format")); err != nil {
				return err
			}
			dbCfg := config.DBFromContext(ctx)
			db, err := database.Open(ctx.Context, dbCfg)
			if err != nil {
				return err
			}
			defer database.Close(db)

			if err := database.Migrate(db); err != nil {
				return err
			}
			log.WithField("driver", dbCfg.Driver).Info("Database migrated")
			return nil
		},
	}
}
