// Command sweeper runs one trash expiry sweep and prints the summary as
// JSON. With -reconcile it instead compares the trash table with the trash
// prefix of one workspace.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/wsdrive/internal/flagx"
	"github.com/dmitrijs2005/wsdrive/internal/server"
	"github.com/dmitrijs2005/wsdrive/internal/server/config"
	"github.com/dmitrijs2005/wsdrive/internal/server/services"
)

type trashMaintainer interface {
	Sweep(ctx context.Context) (*services.SweepSummary, error)
	Reconcile(ctx context.Context, ws string) (*services.ReconcileReport, error)
}

func main() {
	ctx := context.Background()

	cfg := config.LoadConfig()
	cfg.SweepSchedule = ""

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	code := run(ctx, app.TrashService(), flagx.FilterArgs(os.Args[1:], []string{"-reconcile"}), os.Stdout)
	app.Close()
	os.Exit(code)
}

// run returns 1 when the sweep itself fails or any entry could not be
// purged, so schedulers can alert on it.
func run(ctx context.Context, t trashMaintainer, args []string, out io.Writer) int {
	fs := flag.NewFlagSet("sweeper", flag.ContinueOnError)
	reconcile := fs.String("reconcile", "", "workspace to reconcile instead of sweeping")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	if *reconcile != "" {
		report, err := t.Reconcile(ctx, *reconcile)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		_ = enc.Encode(report)
		return 0
	}

	summary, err := t.Sweep(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	_ = enc.Encode(summary)
	if summary.FailCount > 0 {
		return 1
	}
	return 0
}
