package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/raido/internal"
	pkgconfig "github.com/starford/raido/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, string, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(configPath, cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, configPath, nil
}

func appOptions(cfg *internal.Config, configPath string) []internal.Option {
	return []internal.Option{
		internal.WithConfig(cfg),
		internal.WithConfigPath(configPath),
	}
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, path, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, appOptions(cfg, path)...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func main() {
	configFlag := &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}

	cmd := &cli.Command{
		Name:   "raido",
		Usage:  "Incremental sync of a read-it-later library into a Markdown vault",
		Action: serve,
		Flags:  []cli.Flag{configFlag},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API, SSE stream, vault watcher, and sync scheduler",
				Action: serve,
			},
			{
				Name:  "sync",
				Usage: "Run one incremental sync and exit",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, path, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					return internal.RunSync(ctx, false, appOptions(cfg, path)...)
				},
			},
			{
				Name:  "resync",
				Usage: "Clear the sync cursor and re-fetch the whole library",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, path, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					return internal.RunSync(ctx, true, appOptions(cfg, path)...)
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete an article remotely and remove its vault file",
				ArgsUsage: "<vault-path>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.Args().Len() != 1 {
						return fmt.Errorf("expected exactly one vault path argument")
					}
					cfg, path, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					return internal.RunDelete(ctx, cmd.Args().First(), appOptions(cfg, path)...)
				},
			},
			{
				Name:      "search",
				Usage:     "Full-text search across synced articles",
				ArgsUsage: "<query>",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Usage: "Max results", Value: 20},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.Args().Len() != 1 {
						return fmt.Errorf("expected exactly one query argument")
					}
					cfg, path, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					return internal.RunSearch(ctx, cmd.Args().First(), int(cmd.Int("limit")), appOptions(cfg, path)...)
				},
			},
			{
				Name:  "list",
				Usage: "List synced articles",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "label", Usage: "Filter by label"},
					&cli.StringFlag{Name: "state", Usage: "Filter by reading state"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, path, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					return internal.RunList(ctx, cmd.String("label"), cmd.String("state"), appOptions(cfg, path)...)
				},
			},
			{
				Name:  "mcp",
				Usage: "Serve the article library over MCP stdio",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, path, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					return internal.RunMCP(ctx, appOptions(cfg, path)...)
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
