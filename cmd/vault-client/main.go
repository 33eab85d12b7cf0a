// Command vault-client is the interactive terminal client for the vault.
// Its two top-level choices are creating an organization and logging
// into one, after which the user drives documents through a menu loop.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/allisson/vault/internal/clientcli"
	"github.com/allisson/vault/internal/config"
	"github.com/allisson/vault/internal/transport"
)

func main() {
	cmd := &cli.Command{
		Name:  "vault-client",
		Usage: "Interactive client for the multi-tenant encrypted document vault",
		Commands: []*cli.Command{
			{
				Name:  "create-organization",
				Usage: "Create a new organization with at least two members",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					t, err := buildTransport()
					if err != nil {
						return err
					}
					p := clientcli.NewStdPrompter(os.Stdin, os.Stdout)
					return clientcli.RunCreateOrganization(p, t)
				},
			},
			{
				Name:  "log-in",
				Usage: "Log into an organization and manage its documents",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					t, err := buildTransport()
					if err != nil {
						return err
					}
					p := clientcli.NewStdPrompter(os.Stdin, os.Stdout)
					logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
					return clientcli.RunLogin(p, t, logger)
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func buildTransport() (transport.Transport, error) {
	cfg, err := config.LoadClientConfig()
	if err != nil {
		return nil, fmt.Errorf("load client config: %w", err)
	}

	caCertPEM, err := os.ReadFile(cfg.CACertFile)
	if err != nil {
		return nil, fmt.Errorf("read CA certificate: %w", err)
	}

	baseURL := fmt.Sprintf("https://%s:%d", cfg.ServerHost, cfg.ServerPort)
	return transport.NewHTTPSTransport(baseURL, caCertPEM)
}
