package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cognicore/keggnet/internal/fetch"
	"github.com/cognicore/keggnet/internal/logger"
	"github.com/cognicore/keggnet/pkg/keggnet"
	"github.com/cognicore/keggnet/pkg/keggnet/config"
	"github.com/cognicore/keggnet/pkg/keggnet/output"
	"github.com/cognicore/keggnet/pkg/keggnet/store"
	"github.com/cognicore/keggnet/pkg/keggnet/store/sqlite"
)

var catalogs = []string{config.Enzyme, config.Compound}

// app carries the state shared by all subcommands.
type app struct {
	configPath string
	envFile    string
	logEnv     string
	verbose    bool

	cfg *config.Config
	log *zap.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "keggnet",
		Short:         "Build organism-specific bipartite metabolic networks from KEGG",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&a.envFile, "env", ".env", "dotenv file with KEGGNET_* overrides")
	rootCmd.PersistentFlags().StringVar(&a.logEnv, "log", "development", "logger preset (development|production)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(a.fetchCmd())
	rootCmd.AddCommand(a.buildCmd())
	rootCmd.AddCommand(a.showCmd())
	return rootCmd
}

func (a *app) init() error {
	log, err := logger.New(a.logEnv, a.verbose)
	if err != nil {
		return err
	}
	a.log = log

	loader := config.Loader{Path: a.configPath, EnvFile: a.envFile}
	cfg, err := loader.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

func (a *app) fetcher() *fetch.Fetcher {
	return fetch.New(a.cfg.DataDir, a.cfg.Sources,
		fetch.WithTimeout(a.cfg.HTTPTimeout),
		fetch.WithLogger(a.log))
}

func (a *app) fetchCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "fetch [resource...]",
		Short: "Download the enzyme and compound catalogs",
		Long:  "Download catalogs into the data directory. Without --force only missing files are fetched.",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := args
			if len(names) == 0 {
				names = catalogs
			}
			f := a.fetcher()
			if force {
				return f.Fetch(cmd.Context(), names)
			}
			return f.FetchIfMissing(cmd.Context(), names)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "re-download files that already exist")
	return cmd
}

func (a *app) buildCmd() *cobra.Command {
	var (
		forceUpdate bool
		offline     bool
		organism    string
		outPath     string
		dbPath      string
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the network and write it to disk",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if organism != "" {
				a.cfg.Organism = organism
				if err := a.cfg.Validate(); err != nil {
					return err
				}
			}
			if outPath != "" {
				a.cfg.Output = outPath
			}
			if cmd.Flags().Changed("db") {
				a.cfg.Database = dbPath
			}

			if !offline {
				f := a.fetcher()
				var err error
				if forceUpdate {
					err = f.Fetch(ctx, catalogs)
				} else {
					err = f.FetchIfMissing(ctx, catalogs)
				}
				if err != nil {
					return fmt.Errorf("update catalogs: %w", err)
				}
			}

			b := keggnet.New(keggnet.Options{Organism: a.cfg.Organism, Logger: a.log})
			res, err := b.BuildFiles(ctx,
				a.cfg.CatalogPath(config.Enzyme),
				a.cfg.CatalogPath(config.Compound))
			if err != nil {
				return err
			}

			sum, err := output.NewWriter(a.log).WriteFiles(res.Network, a.cfg.Output)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Organism:  %s\n", res.Organism)
			fmt.Fprintf(cmd.OutOrStdout(), "Enzymes:   %d\n", res.Connect.Enzymes)
			fmt.Fprintf(cmd.OutOrStdout(), "Compounds: %d (of %d, %d pruned)\n",
				res.Connect.CompoundsAfter, res.Connect.CompoundsBefore, res.Connect.Pruned())
			fmt.Fprintf(cmd.OutOrStdout(), "Links:     %d written to %s\n", sum.Links, a.cfg.Output)

			if a.cfg.Database == "" {
				return nil
			}
			return a.persist(ctx, cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().BoolVar(&forceUpdate, "force-update", false, "re-download catalogs before building")
	cmd.Flags().BoolVar(&offline, "offline", false, "never download; fail if a catalog is missing")
	cmd.Flags().StringVar(&organism, "organism", "", "KEGG organism code (overrides config)")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "id file path; names go to <path>_withname.<ext>")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database to record the build in")
	return cmd
}

func (a *app) persist(ctx context.Context, w io.Writer, res *keggnet.Result) error {
	st, err := sqlite.OpenSQLite(ctx, a.cfg.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	b, err := st.SaveNetwork(ctx, store.FromNetwork(res.Network, res.Organism))
	if err != nil {
		return fmt.Errorf("save network: %w", err)
	}
	a.log.Info("saved build", zap.String("build", b.ID), zap.String("db", a.cfg.Database))
	fmt.Fprintf(w, "Build:     %s\n", b.ID)
	return nil
}

func (a *app) showCmd() *cobra.Command {
	var (
		dbPath  string
		buildID string
	)

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show an enzyme or compound from a saved build",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if dbPath == "" {
				dbPath = a.cfg.Database
			}
			if dbPath == "" {
				return fmt.Errorf("no database configured; pass --db")
			}

			st, err := sqlite.OpenSQLite(ctx, dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			return show(ctx, cmd.OutOrStdout(), st, buildID, args[0])
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database (defaults to config)")
	cmd.Flags().StringVar(&buildID, "build", "", "build id (defaults to latest)")
	return cmd
}

func show(ctx context.Context, w io.Writer, st store.Store, buildID, id string) error {
	if buildID == "" {
		b, found, err := st.LatestBuild(ctx)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("no builds recorded")
		}
		buildID = b.ID
	}

	n, found, err := st.Node(ctx, buildID, id)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%s not in build %s", id, buildID)
	}

	neighbors, err := st.Neighbors(ctx, buildID, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s (%s)\n", n.ID, n.Kind)
	if len(n.Names) > 0 {
		fmt.Fprintf(w, "  names:    %s\n", strings.Join(n.Names, "; "))
	}
	for _, p := range n.Pathways {
		fmt.Fprintf(w, "  pathway:  %s %s\n", p.ID, p.Name)
	}
	fmt.Fprintf(w, "  linked:   %d\n", len(neighbors))
	for _, nb := range neighbors {
		fmt.Fprintf(w, "    %s\n", nb)
	}
	return nil
}
