// Package replay turns a sequence of text snapshots into weave edits: each
// consecutive pair of snapshots is diffed, and the resulting insert/delete
// script is applied to a textview.Document one character at a time. This is
// how an external collaborator feeds pre-existing document history (e.g. a
// version-control log) into a weave, since the core itself only ever sees
// individual atom operations.
package replay

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ctweave/weave"
	"github.com/ctweave/weave/diff"
	"github.com/ctweave/weave/internal/textview"
)

// Snapshot is one named point in a document's history.
type Snapshot struct {
	Label string
	Text  string
}

// Result carries the final document and how many atoms were produced
// overall, for reporting.
type Result struct {
	Document  *textview.Document
	AtomCount int
}

// Replay applies snapshots in order to a fresh document owned by owner,
// logging each snapshot transition. Snapshots must be supplied oldest-first;
// the first snapshot's text is inserted into the empty document as-is.
func Replay(logger *zap.Logger, owner weave.SiteID, snapshots []Snapshot) (*Result, error) {
	doc := textview.New(owner)
	var clock weave.Clock
	atomCount := 0

	prev := ""
	for i, snap := range snapshots {
		script, err := diff.Script(prev, snap.Text)
		if err != nil {
			return nil, fmt.Errorf("replay: snapshot %d (%s): %w", i, snap.Label, err)
		}

		pos := 0
		inserted, deleted := 0, 0
		for _, op := range script {
			clock++
			switch op.Op {
			case diff.Keep:
				pos++
			case diff.Insert:
				if _, ok := doc.InsertChar(pos, op.Char, clock); !ok {
					return nil, fmt.Errorf("replay: snapshot %d (%s): insert at %d failed", i, snap.Label, pos)
				}
				atomCount++
				inserted++
				pos++
			case diff.Delete:
				if _, ok := doc.DeleteChar(pos, clock); !ok {
					return nil, fmt.Errorf("replay: snapshot %d (%s): delete at %d failed", i, snap.Label, pos)
				}
				atomCount++
				deleted++
			}
		}

		if logger != nil {
			logger.Info("replayed snapshot",
				zap.Int("index", i),
				zap.String("label", snap.Label),
				zap.Int("inserted", inserted),
				zap.Int("deleted", deleted),
			)
		}
		prev = snap.Text
	}

	return &Result{Document: doc, AtomCount: atomCount}, nil
}
