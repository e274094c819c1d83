package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/capsulen/capsulen/cmd/app/commands"
	"github.com/capsulen/capsulen/internal/app"
	"github.com/capsulen/capsulen/internal/config"
)

func getAdminCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-invite",
			Usage: "Generate a single-use invite code",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				inviteUseCase, err := container.InviteUseCase()
				if err != nil {
					return err
				}

				return commands.RunCreateInvite(
					ctx,
					inviteUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "create-signing-key",
			Usage: "Generate a new Ed25519 token signing key seed",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "kms-key-uri",
					Aliases: []string{"k"},
					Value:   "",
					Usage:   "Optional KMS key URI to additionally print the seed wrapped (e.g., awskms://..., base64key://...)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunCreateSigningKey(ctx, commands.DefaultIO().Writer, cmd.String("kms-key-uri"))
			},
		},
	}
}
