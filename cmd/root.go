package cmd

import (
	"stuti/config"

	"github.com/urfave/cli/v2"
)

func RootApp() *cli.App {
	return &cli.App{
		Name:  "stuti",
		Usage: "Study group and feed backend",
		Description: `Serves the stuti HTTP API: member accounts, a paged post feed
with images, comments and likes, and study groups with applications and
questions.

Flags can generally be set via environment variables or a .env file in the
working directory, e.g.:

--db-dsn => STUTI_DB_DSN=...
--addr   => STUTI_ADDR=:8080
`,
		Commands: []*cli.Command{
			serveCmd(),
			migrateCmd(),
			tokenCmd(),
		},
		Action: func(ctx *cli.Context) error {
			return ctx.App.Run([]string{"", "help"})
		},
	}
}

// Run loads .env before flags are parsed so its values act as env vars.
func Run(args []string) error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}
	return RootApp().Run(args)
}
