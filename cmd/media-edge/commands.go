package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/Gammanik/media-edge/internal/catalog"
	"github.com/Gammanik/media-edge/internal/config"
	"github.com/Gammanik/media-edge/internal/group"
	"github.com/Gammanik/media-edge/internal/upstream"
)

func newResolveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <id>",
		Short: "Show the group and upstream URLs for a resource id (no network access)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.loadConfig()
			if err != nil {
				return err
			}
			table, _, err := loadGroupTable(cfg)
			if err != nil {
				return err
			}
			urls, err := upstream.NewURLBuilder(cfg.Upstream.BaseURL)
			if err != nil {
				return err
			}

			id, album, err := table.ResolveString(args[0])
			if err != nil {
				return err
			}

			idStr := strconv.Itoa(id)
			fmt.Fprintln(cmd.OutOrStdout(), renderPairs([][2]string{
				{"id", idStr},
				{"album", strconv.Itoa(album)},
				{"json", urls.Build(upstream.KindMetadata, album, idStr)},
				{"audio", urls.Build(upstream.KindAudio, album, idStr+".mp3")},
				{"cover", urls.Build(upstream.KindCover, album, idStr+".jpg")},
			}))
			return nil
		},
	}
}

func newGroupsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "groups",
		Short: "Print the active group table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.loadConfig()
			if err != nil {
				return err
			}
			table, source, err := loadGroupTable(cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "source: %s\n", source)
			fmt.Fprintln(cmd.OutOrStdout(), renderGroups(table.Ranges()))
			return nil
		},
	}
}

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the bbolt group catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newCatalogImportCommand(ctx))
	cmd.AddCommand(newCatalogShowCommand())
	return cmd
}

func newCatalogImportCommand(ctx *commandContext) *cobra.Command {
	var dbPath, fromPath string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Write a group table into the catalog, replacing the previous one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				ranges []group.Range
				source string
			)
			if fromPath != "" {
				loaded, err := config.LoadGroupsFile(fromPath)
				if err != nil {
					return err
				}
				ranges, source = loaded, fromPath
			} else {
				cfg, err := ctx.loadConfig()
				if err != nil {
					return err
				}
				ranges, source = cfg.Groups, "config"
				if len(ranges) == 0 {
					ranges, source = config.DefaultGroups(), "builtin"
				}
			}

			store, err := catalog.NewBoltStore(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			return importGroups(cmd.OutOrStdout(), store, ranges, source, dbPath)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "Catalog file path")
	cmd.Flags().StringVar(&fromPath, "from", "", "TOML file with [[groups]] (default: config or built-in table)")
	_ = cmd.MarkFlagRequired("db")
	return cmd
}

func newCatalogShowCommand() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the group table stored in a catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := catalog.OpenReadOnly(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			return writeCatalogSummary(cmd.OutOrStdout(), store)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "Catalog file path")
	_ = cmd.MarkFlagRequired("db")
	return cmd
}

// importGroups заменяет таблицу в хранилище и сообщает об этом
func importGroups(out io.Writer, store catalog.Store, ranges []group.Range, source, dbPath string) error {
	if err := store.ReplaceGroups(ranges, source); err != nil {
		return err
	}
	fmt.Fprintf(out, "imported %d groups from %s into %s\n", len(ranges), source, dbPath)
	return nil
}

// writeCatalogSummary печатает сведения об импорте и таблицу групп
func writeCatalogSummary(out io.Writer, store catalog.Store) error {
	info, err := store.Info()
	if err != nil {
		return err
	}
	ranges, err := store.LoadGroups()
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "source: %s\nimported: %s\n", info.Source, info.ImportedAt.Format(time.RFC3339))
	fmt.Fprintln(out, renderGroups(ranges))
	return nil
}

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration helpers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init <path>",
		Short: "Write a sample configuration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.CreateSample(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote sample config to %s\n", args[0])
			return nil
		},
	})
	return cmd
}
