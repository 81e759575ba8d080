package services

import (
	"errors"

	"github.com/dmitrijs2005/wsdrive/internal/common"
	"github.com/dmitrijs2005/wsdrive/internal/server/storage"
)

// BatchFailure describes one path a batch removal could not delete.
type BatchFailure struct {
	Path     string `json:"path"`
	Message  string `json:"error"`
	NotFound bool   `json:"notFound"`
	err      error
}

func (f BatchFailure) Error() string { return f.Path + ": " + f.Message }

// Unwrap exposes the underlying store error for errors.Is.
func (f BatchFailure) Unwrap() error { return f.err }

// BatchResult is the per-path outcome of a multi-path removal. Removals are
// not atomic: successes are kept even when other paths fail, so callers
// re-list to reconcile their view.
type BatchResult struct {
	Deleted []string       `json:"deleted"`
	Failed  []BatchFailure `json:"failed"`
	// Missing lists paths already gone when the batch ran, when the
	// operation tolerates that (folder delete racing another writer).
	Missing []string `json:"missing,omitempty"`
}

// Partial reports whether at least one path failed.
func (r *BatchResult) Partial() bool {
	return len(r.Failed) > 0
}

func newBatchResult(results []storage.RemoveResult, tolerateMissing bool) *BatchResult {
	out := &BatchResult{Deleted: []string{}, Failed: []BatchFailure{}}
	for _, res := range results {
		switch {
		case res.Err == nil:
			out.Deleted = append(out.Deleted, res.Path)
		case tolerateMissing && errors.Is(res.Err, common.ErrorNotFound):
			out.Missing = append(out.Missing, res.Path)
		default:
			out.Failed = append(out.Failed, BatchFailure{
				Path:     res.Path,
				Message:  res.Err.Error(),
				NotFound: errors.Is(res.Err, common.ErrorNotFound),
				err:      res.Err,
			})
		}
	}
	return out
}
