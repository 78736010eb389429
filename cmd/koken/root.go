package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"koken/internal/browse"
	"koken/internal/config"
	"koken/internal/logging"
	"koken/internal/recipe"
	"koken/internal/source"
	"koken/internal/storage"
	"koken/internal/ui"
)

type options struct {
	configPath string
	offline    bool
	dir        string
}

// app is what every command needs once flags and config are resolved.
type app struct {
	cfg       config.Config
	collation recipe.Collation
	closers   []io.Closer
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i].Close()
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "koken",
		Short:         "Browse a recipe collection in the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				src, err := a.source(opts)
				if err != nil {
					return err
				}
				return ui.Run(src, a.cfg, a.collation)
			})
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/koken/config.toml)")
	flags.BoolVar(&opts.offline, "offline", false, "browse the last saved snapshot instead of fetching")
	flags.StringVar(&opts.dir, "dir", "", "read recipe documents from a local directory")

	root.AddCommand(newListCmd(opts), newCategoriesCmd(opts), newSnapshotCmd(opts))
	return root
}

func newListCmd(opts *options) *cobra.Command {
	var (
		search     string
		categories []string
		pins       []string
		width      int
		asJSON     bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the recipe list for a search and category filter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				store, err := a.load(commandContext(cmd), opts)
				if err != nil {
					return err
				}

				st := browse.NewState()
				st.SetSearch(search)
				st.Active = browse.NewSet(categories...)
				st.Pinned = browse.NewSet(pins...)
				view := browse.Compute(store, st, width >= a.cfg.WideWidth)

				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(view)
				}
				return printList(cmd.OutOrStdout(), view)
			})
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "match against titles and ingredients")
	cmd.Flags().StringSliceVarP(&categories, "category", "c", nil, "only show recipes in these categories")
	cmd.Flags().StringSliceVarP(&pins, "pin", "p", nil, "pin recipes by title")
	cmd.Flags().IntVarP(&width, "width", "w", 80, "terminal width used to decide whether pinned pairs are shown")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the computed view as JSON")
	return cmd
}

func newCategoriesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "Print the category vocabulary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				store, err := a.load(commandContext(cmd), opts)
				if err != nil {
					return err
				}
				for _, c := range store.Categories {
					fmt.Fprintln(cmd.OutOrStdout(), c)
				}
				return nil
			})
		},
	}
}

func newSnapshotCmd(opts *options) *cobra.Command {
	var infoOnly bool
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Refresh the offline snapshot from the configured source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				snap, err := a.openSnapshot()
				if err != nil {
					return err
				}
				ctx := commandContext(cmd)

				if !infoOnly {
					base, err := a.base(opts)
					if err != nil {
						return err
					}
					ctx, cancel := a.withTimeout(ctx)
					defer cancel()
					records, err := base.Fetch(ctx)
					if err != nil {
						return fmt.Errorf("failed to load recipes: %w", err)
					}
					if err := snap.SaveSnapshot(ctx, base.Name(), records); err != nil {
						return fmt.Errorf("save snapshot: %w", err)
					}
				}

				info, err := snap.SnapshotInfo(ctx)
				if errors.Is(err, storage.ErrNoSnapshot) {
					fmt.Fprintln(cmd.OutOrStdout(), "No snapshot saved.")
					return nil
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d recipes from %s, saved %s\n",
					info.Count, info.Source, info.TakenAt.Local().Format(time.DateTime))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&infoOnly, "info", false, "only print what the current snapshot holds")
	return cmd
}

func withApp(opts *options, fn func(a *app) error) error {
	path := opts.configPath
	if path == "" {
		path = config.ResolveConfigPath()
	}
	cfg, err := config.LoadOrCreate(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	a := &app{cfg: cfg}
	defer a.Close()

	closer, err := logging.Setup(logging.Config{
		Level:  cfg.LogLevel,
		Format: "json",
		Path:   cfg.LogPath,
	})
	if err != nil {
		return fmt.Errorf("failed to open log: %w", err)
	}
	a.closers = append(a.closers, closer)

	a.collation, err = recipe.NewCollation(cfg.Locale)
	if err != nil {
		return err
	}
	logging.Debug().Str("config", path).Msg("starting")
	return fn(a)
}

// base is the configured live source: --dir, then source_dir, then the
// remote listing.
func (a *app) base(opts *options) (source.Source, error) {
	dir := opts.dir
	if dir == "" {
		dir = a.cfg.SourceDir
	}
	if dir != "" {
		return source.Dir{Root: dir, Extension: a.cfg.Extension, Limit: a.cfg.Concurrency}, nil
	}
	r := source.NewRemote(a.cfg.SourceURL, a.cfg.Extension, a.cfg.Timeout())
	r.Limit = a.cfg.Concurrency
	return r, nil
}

// source picks what the browser reads. Remote loads are recorded to the
// snapshot so they can be browsed with --offline later.
func (a *app) source(opts *options) (source.Source, error) {
	if opts.offline {
		snap, err := a.openSnapshot()
		if err != nil {
			return nil, err
		}
		return source.Snapshot{Store: snap}, nil
	}

	base, err := a.base(opts)
	if err != nil {
		return nil, err
	}
	if _, remote := base.(*source.Remote); !remote {
		return base, nil
	}
	snap, err := a.openSnapshot()
	if err != nil {
		logging.Warn().Err(err).Msg("snapshot unavailable, loads will not be saved")
		return base, nil
	}
	return source.Recording{Source: base, Store: snap}, nil
}

func (a *app) openSnapshot() (*storage.Store, error) {
	snap, err := storage.Open(a.cfg.SnapshotPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	a.closers = append(a.closers, snap)
	return snap, nil
}

func (a *app) load(ctx context.Context, opts *options) (*recipe.Store, error) {
	src, err := a.source(opts)
	if err != nil {
		return nil, err
	}
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	raw, err := src.Fetch(ctx)
	if err != nil {
		logging.Error().Err(err).Str("source", src.Name()).Msg("recipe load failed")
		return nil, fmt.Errorf("failed to load recipes: %w", err)
	}
	return recipe.NewStore(raw, a.collation), nil
}

func (a *app) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if t := a.cfg.Timeout(); t > 0 {
		return context.WithTimeout(ctx, t)
	}
	return context.WithCancel(ctx)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func printList(w io.Writer, view browse.View) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	if view.Pinned.Visible {
		for _, row := range view.Pinned.Rows() {
			fmt.Fprintf(tw, "* %s\t| * %s\n", row[0].Title, row[1].Title)
		}
		fmt.Fprintln(tw)
	}
	if view.Empty {
		fmt.Fprintln(tw, "No recipes found.")
	}
	for _, r := range view.Main {
		fmt.Fprintf(tw, "%s\t%s\n", r.Title, strings.Join(r.Category, ", "))
	}
	return tw.Flush()
}
