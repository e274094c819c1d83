package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/capsulen/capsulen/cmd/app/commands"
	"github.com/capsulen/capsulen/internal/client"
	"github.com/capsulen/capsulen/internal/config"
)

func serverFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "server",
		Aliases: []string{"s"},
		Value:   "http://localhost:8080",
		Usage:   "Base URL of the server",
	}
}

func tokenFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "token",
		Aliases:  []string{"t"},
		Required: true,
		Usage:    "Session token obtained via 'client-login'",
	}
}

func newAPIClient(cmd *cli.Command) *client.Client {
	cfg := config.Load()
	return commands.NewAPIClient(cmd.String("server"), cmd.String("token"), cfg.KDFIterations)
}

func getClientCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "client-register",
			Usage: "Register a new account against a running server",
			Flags: []cli.Flag{
				serverFlag(),
				&cli.StringFlag{
					Name:     "username",
					Aliases:  []string{"u"},
					Required: true,
					Usage:    "Username to register",
				},
				&cli.StringFlag{
					Name:    "invite-code",
					Aliases: []string{"i"},
					Value:   "",
					Usage:   "Invite code (required when the server gates registration)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunClientRegister(
					ctx,
					newAPIClient(cmd),
					commands.DefaultIO(),
					cmd.String("username"),
					cmd.String("invite-code"),
				)
			},
		},
		{
			Name:  "client-login",
			Usage: "Log in and print a session token",
			Flags: []cli.Flag{
				serverFlag(),
				&cli.StringFlag{
					Name:     "username",
					Aliases:  []string{"u"},
					Required: true,
					Usage:    "Username to log in as",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunClientLogin(
					ctx,
					newAPIClient(cmd),
					commands.DefaultIO(),
					cmd.String("username"),
				)
			},
		},
		{
			Name:  "client-create-post",
			Usage: "Seal content with the passphrase and store it",
			Flags: []cli.Flag{
				serverFlag(),
				tokenFlag(),
				&cli.StringFlag{
					Name:     "content",
					Aliases:  []string{"c"},
					Required: true,
					Usage:    "Post content (encrypted locally before upload)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunClientCreatePost(
					ctx,
					newAPIClient(cmd),
					commands.DefaultIO(),
					cmd.String("content"),
				)
			},
		},
		{
			Name:  "client-list-posts",
			Usage: "List posts, decrypting them locally",
			Flags: []cli.Flag{
				serverFlag(),
				tokenFlag(),
				&cli.StringFlag{
					Name:  "from",
					Value: "",
					Usage: "Opaque cursor: list posts older than this id",
				},
				&cli.IntFlag{
					Name:    "limit",
					Aliases: []string{"l"},
					Value:   0,
					Usage:   "Page size (server default when 0)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunClientListPosts(
					ctx,
					newAPIClient(cmd),
					commands.DefaultIO(),
					cmd.String("from"),
					int(cmd.Int("limit")),
				)
			},
		},
		{
			Name:  "client-delete-post",
			Usage: "Delete a post by its opaque id",
			Flags: []cli.Flag{
				serverFlag(),
				tokenFlag(),
				&cli.StringFlag{
					Name:     "id",
					Required: true,
					Usage:    "Opaque post id",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunClientDeletePost(
					ctx,
					newAPIClient(cmd),
					commands.DefaultIO(),
					cmd.String("id"),
				)
			},
		},
	}
}
