package cmd

import (
	"fmt"
	"time"

	"stuti/auth"
	"stuti/config"
	"stuti/models"

	"github.com/urfave/cli/v2"
)

func tokenCmd() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Print an access token for a member",
		Description: `Signs an access token for the given member id with the configured
secret. Useful for calling the API from scripts during development.`,
		Flags: append(config.JWTFlags(),
			&cli.Int64Flag{
				Name:     "member-id",
				Usage:    "Member the token is issued for",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "role",
				Usage: "Role claim",
				Value: string(models.RoleMember),
			},
		),
		Action: func(ctx *cli.Context) error {
			jwtCfg := config.JWTFromContext(ctx)
			token, expires, err := auth.NewTokenManager(jwtCfg.Secret, jwtCfg.TTL).
				Issue(ctx.Int64("member-id"), ctx.String("role"))
			if err != nil {
				return err
			}
			fmt.Fprintln(ctx.App.Writer, token)
			fmt.Fprintf(ctx.App.ErrWriter, "expires %s\n", expires.Format(time.RFC3339))
			return nil
		},
	}
}
