// Command ettlectl is the thin CLI shell over the command façade
// (internal/facade): it parses flags, loads the policy/profile catalog,
// wires a ledger and blob store, and calls exactly one façade verb per
// invocation. No command logic lives here, mirroring how cmd/bd keeps its
// subcommand files thin wrappers over internal/* packages.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/NickOut/EttleX-R-sub001/internal/blobstore"
	"github.com/NickOut/EttleX-R-sub001/internal/commit"
	"github.com/NickOut/EttleX-R-sub001/internal/config"
	"github.com/NickOut/EttleX-R-sub001/internal/errtax"
	"github.com/NickOut/EttleX-R-sub001/internal/facade"
	"github.com/NickOut/EttleX-R-sub001/internal/ledger"
	"github.com/NickOut/EttleX-R-sub001/internal/ledger/memledger"
	"github.com/NickOut/EttleX-R-sub001/internal/ledger/sqlledger"
	"github.com/NickOut/EttleX-R-sub001/internal/manifest"
)

var (
	catalogPath string
	storePath   string
	blobPath    string
	serverMode  bool
	jsonOutput  bool

	rootCtx    context.Context
	rootCancel context.CancelFunc

	cat *config.Catalog
	app *facade.Facade
)

var rootCmd = &cobra.Command{
	Use:   "ettlectl",
	Short: "ettlectl - semantic architecture ledger CLI",
	Long:  `Drives the refinement-tree ledger's snapshot commit and constraint preview operations.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		rootCtx, rootCancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

		v := viper.New()
		config.BindEnvOverrides(v)

		loaded, err := config.Load(catalogPath)
		if err != nil {
			return err
		}
		cat = loaded

		l, err := openLedger(rootCtx)
		if err != nil {
			return err
		}

		orch := commit.NewOrchestrator(l, blobstore.New(blobPath), manifest.NewMapConstraintIndex())
		app = facade.New(orch)
		return nil
	},
}

func openLedger(ctx context.Context) (ledger.Ledger, error) {
	if storePath == ":memory:" || storePath == "" {
		return memledger.New("1"), nil
	}
	l, err := sqlledger.Open(ctx, sqlledger.Config{Path: storePath, ServerMode: serverMode}, "1")
	if err != nil {
		return nil, err
	}
	return l, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "catalog.toml", "path to the policy/profile catalog file")
	rootCmd.PersistentFlags().StringVar(&storePath, "store", ":memory:", "ledger store path, or :memory: for an in-memory ledger")
	rootCmd.PersistentFlags().StringVar(&blobPath, "blobs", "./blobs", "content-addressed blob store root")
	rootCmd.PersistentFlags().BoolVar(&serverMode, "server-mode", false, "connect to the store over the MySQL protocol instead of opening it embedded")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "emit machine-readable JSON output")
}

func exitOnError(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "ettlectl: %s: %v\n", errtax.KindOf(err).Code(), err)
	os.Exit(1)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		exitOnError(err)
	}
	if rootCancel != nil {
		rootCancel()
	}
}
