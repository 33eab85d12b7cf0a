// Command vault-server runs the vault's HTTP server. It takes no
// arguments: listen port, storage root, and TLS material all come from
// configuration.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/allisson/vault/internal/servercli"
)

func main() {
	cmd := &cli.Command{
		Name:  "vault-server",
		Usage: "Run the multi-tenant encrypted document vault server",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return servercli.Run(ctx)
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("vault-server exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}
