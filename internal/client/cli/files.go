package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/dmitrijs2005/wsdrive/internal/client/models"
	"github.com/dmitrijs2005/wsdrive/internal/common"
	"github.com/dmitrijs2005/wsdrive/internal/filex"
	"github.com/dmitrijs2005/wsdrive/internal/netx"
)

func (a *App) Folders(ctx context.Context) error {
	if !a.requireWorkspace() {
		return nil
	}
	folders, err := a.api.ListFolders(ctx, a.workspace)
	if err != nil {
		return a.report(err)
	}
	if len(folders) == 0 {
		fmt.Fprintln(a.out, "No folders")
		return nil
	}
	for _, f := range folders {
		fmt.Fprintln(a.out, f+"/")
	}
	return nil
}

func (a *App) Mkdir(ctx context.Context, args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "Usage: mkdir <name>")
		return nil
	}
	if !a.requireWorkspace() {
		return nil
	}
	name, err := a.api.CreateFolder(ctx, a.workspace, args[0])
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintf(a.out, "Folder %s created\n", name)
	return nil
}

func (a *App) Rmdir(ctx context.Context, args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "Usage: rmdir <name>")
		return nil
	}
	if !a.requireWorkspace() {
		return nil
	}
	if !Confirm(a.reader, fmt.Sprintf("Delete folder %s and everything in it?", args[0]), a.out) {
		return nil
	}
	res, err := a.api.DeleteFolder(ctx, a.workspace, args[0])
	if err != nil {
		return a.report(err)
	}
	a.printBatch(res)
	return nil
}

// List shows files in a folder. "-r" includes subfolders.
func (a *App) List(ctx context.Context, args []string) error {
	if !a.requireWorkspace() {
		return nil
	}
	var folder string
	recursive := false
	for _, arg := range args {
		if arg == "-r" {
			recursive = true
			continue
		}
		folder = arg
	}
	files, err := a.api.ListFiles(ctx, a.workspace, folder, recursive, "")
	if err != nil {
		return a.report(err)
	}
	a.printFiles(files)
	return nil
}

func (a *App) Find(ctx context.Context, args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "Usage: find <text>")
		return nil
	}
	if !a.requireWorkspace() {
		return nil
	}
	files, err := a.api.ListFiles(ctx, a.workspace, "", true, args[0])
	if err != nil {
		return a.report(err)
	}
	a.printFiles(files)
	return nil
}

func (a *App) Upload(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		fmt.Fprintln(a.out, "Usage: upload <file> [folder]")
		return nil
	}
	if !a.requireWorkspace() {
		return nil
	}
	var folder string
	if len(args) == 2 {
		folder = args[1]
	}

	f, err := os.Open(args[0])
	if err != nil {
		return a.report(err)
	}
	defer f.Close()

	item, err := a.api.Upload(ctx, a.workspace, folder, filepath.Base(args[0]), f)
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintf(a.out, "Uploaded %s (%d bytes)\n", item.Path, item.Size)
	return nil
}

// Get downloads a file through a signed URL into the download directory.
func (a *App) Get(ctx context.Context, args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "Usage: get <path>")
		return nil
	}
	if !a.requireWorkspace() {
		return nil
	}

	u, err := a.api.SignedURL(ctx, a.workspace, args[0])
	if err != nil {
		return a.report(err)
	}

	dir, err := filex.EnsureSubdDir(a.config.DownloadDir)
	if err != nil {
		return a.report(err)
	}
	f, err := filex.CreateUnique(dir, filepath.Base(args[0]))
	if err != nil {
		return a.report(err)
	}
	defer f.Close()

	n, err := netx.DownloadURL(ctx, a.http, u, f)
	if err != nil {
		f.Close()
		os.Remove(f.Name())
		return a.report(err)
	}
	fmt.Fprintf(a.out, "Saved %s (%d bytes)\n", f.Name(), n)
	return nil
}

func (a *App) Remove(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "Usage: rm <path>...")
		return nil
	}
	if !a.requireWorkspace() {
		return nil
	}
	if !Confirm(a.reader, fmt.Sprintf("Permanently delete %d file(s)? Use 'trash' to keep them restorable.", len(args)), a.out) {
		return nil
	}
	res, err := a.api.DeleteFiles(ctx, a.workspace, args)
	if err != nil {
		return a.report(err)
	}
	a.printBatch(res)
	return nil
}

func (a *App) Move(ctx context.Context, args []string) error {
	if len(args) != 2 {
		fmt.Fprintln(a.out, "Usage: mv <path> <folder>")
		return nil
	}
	if !a.requireWorkspace() {
		return nil
	}
	target := args[1]
	if target == "/" {
		target = ""
	}
	to, err := a.api.MoveFile(ctx, a.workspace, args[0], target)
	if errors.Is(err, common.ErrorConflict) {
		fmt.Fprintln(a.out, "A file with that name already exists in the target folder")
		return err
	}
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintf(a.out, "Moved to %s\n", to)
	return nil
}

func (a *App) URL(ctx context.Context, args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "Usage: url <path>")
		return nil
	}
	if !a.requireWorkspace() {
		return nil
	}
	u, err := a.api.SignedURL(ctx, a.workspace, args[0])
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintln(a.out, u)
	return nil
}

func (a *App) printFiles(files []models.FileItem) {
	if len(files) == 0 {
		fmt.Fprintln(a.out, "No files")
		return
	}
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PATH\tNAME\tSIZE\tTYPE\tUPDATED")
	for _, f := range files {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", f.Path, f.Name, f.Size, f.Type, f.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	w.Flush()
}

func (a *App) printBatch(res *models.BatchResult) {
	fmt.Fprintf(a.out, "Deleted %d\n", len(res.Deleted))
	for _, f := range res.Failed {
		fmt.Fprintf(a.out, "Failed %s: %s\n", f.Path, f.Error)
	}
	if len(res.Failed) > 0 {
		fmt.Fprintln(a.out, "Some paths were not deleted; list the folder again to see what is left")
	}
}
