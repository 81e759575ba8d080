package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"
)

func (a *App) Trash(ctx context.Context, args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "Usage: trash <path>")
		return nil
	}
	if !a.requireWorkspace() {
		return nil
	}
	e, err := a.api.MoveToTrash(ctx, a.workspace, args[0])
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintf(a.out, "Moved to trash as %s, restorable until %s\n", e.ID, e.ExpiresAt.Local().Format(time.DateOnly))
	return nil
}

func (a *App) TrashList(ctx context.Context) error {
	if !a.requireWorkspace() {
		return nil
	}
	entries, err := a.api.ListTrash(ctx, a.workspace)
	if err != nil {
		return a.report(err)
	}
	if len(entries) == 0 {
		fmt.Fprintln(a.out, "Trash is empty")
		return nil
	}
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tORIGINAL PATH\tSIZE\tDELETED\tEXPIRES")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", e.ID, e.OriginalPath, e.FileSize,
			e.DeletedAt.Local().Format("2006-01-02 15:04"), e.ExpiresAt.Local().Format(time.DateOnly))
	}
	w.Flush()
	return nil
}

func (a *App) Restore(ctx context.Context, args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "Usage: restore <id>")
		return nil
	}
	if !a.requireWorkspace() {
		return nil
	}
	e, err := a.api.Restore(ctx, a.workspace, args[0])
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintf(a.out, "Restored %s\n", e.OriginalPath)
	return nil
}

func (a *App) Purge(ctx context.Context, args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "Usage: purge <id>")
		return nil
	}
	if !a.requireWorkspace() {
		return nil
	}
	if !Confirm(a.reader, "Delete permanently? This cannot be undone.", a.out) {
		return nil
	}
	if err := a.api.Purge(ctx, a.workspace, args[0]); err != nil {
		return a.report(err)
	}
	fmt.Fprintln(a.out, "Deleted permanently")
	return nil
}
