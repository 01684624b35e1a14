package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Gammanik/media-edge/internal/catalog"
	"github.com/Gammanik/media-edge/internal/config"
	"github.com/Gammanik/media-edge/internal/group"
	"github.com/Gammanik/media-edge/internal/logging"
)

// commandContext общие флаги и ленивые загрузчики для подкоманд
type commandContext struct {
	configPath string
	cfg        *config.Config
}

func (c *commandContext) loadConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

func (c *commandContext) logger() (*slog.Logger, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	return logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "media-edge",
		Short:         "Edge proxy for numbered media resources",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&ctx.configPath, "config", "c", "", "Configuration file path (TOML)")

	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newResolveCommand(ctx))
	rootCmd.AddCommand(newGroupsCommand(ctx))
	rootCmd.AddCommand(newCatalogCommand(ctx))
	rootCmd.AddCommand(newConfigCommand())

	return rootCmd
}

// loadGroupTable выбирает источник таблицы: каталог bbolt, [[groups]] из
// конфигурации или встроенная таблица.
func loadGroupTable(cfg *config.Config) (*group.Table, string, error) {
	var (
		ranges []group.Range
		source string
	)

	switch {
	case cfg.Catalog.Path != "":
		store, err := catalog.OpenReadOnly(cfg.Catalog.Path)
		if err != nil {
			return nil, "", err
		}
		defer store.Close()

		ranges, err = catalogRanges(store, cfg.Catalog.Path)
		if err != nil {
			return nil, "", err
		}
		source = "catalog:" + cfg.Catalog.Path
	case len(cfg.Groups) > 0:
		ranges = cfg.Groups
		source = "config"
	default:
		ranges = config.DefaultGroups()
		source = "builtin"
	}

	table, err := group.NewTable(ranges)
	if err != nil {
		return nil, "", fmt.Errorf("group table from %s: %w", source, err)
	}
	return table, source, nil
}

// catalogRanges читает таблицу групп из любого хранилища каталога
func catalogRanges(store catalog.Store, path string) ([]group.Range, error) {
	ranges, err := store.LoadGroups()
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}
	return ranges, nil
}
