// Package batch contains the resumable row-processing engine: a single
// driver that walks a table row by row, delegates each row to a Processor,
// persists a cursor after every row and throttles itself to stay under an
// execution-time budget.
package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"steam_sheet_enrich/internal/columns"
	"steam_sheet_enrich/internal/progress"
	"steam_sheet_enrich/internal/table"

	"github.com/rs/zerolog/log"
)

// RowOutcome classifies the handling of one row.
type RowOutcome int

const (
	Success RowOutcome = iota
	Skipped
	Failed
)

func (o RowOutcome) String() string {
	switch o {
	case Success:
		return "success"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// RowResult is what a Processor reports back for one row. Reason is set for
// Failed rows only.
type RowResult struct {
	Outcome RowOutcome
	Reason  string
}

// Processor is one enrichment pipeline. ProcessRow must never return an
// error for per-row provider failures; those are written into the row and
// reported as Failed.
type Processor interface {
	Kind() progress.Kind
	Fields() []columns.FieldSpec
	ProcessRow(ctx context.Context, store table.Store, cols map[string]int, rowIndex int, row []interface{}) RowResult
}

// Decision is the synchronous continue/pause prompt the driver blocks on at
// periodic checkpoints. Tests supply a scripted implementation.
type Decision interface {
	Confirm(prompt string) bool
}

// DecisionFunc adapts a function to the Decision interface.
type DecisionFunc func(prompt string) bool

func (f DecisionFunc) Confirm(prompt string) bool { return f(prompt) }

type Status int

const (
	Completed Status = iota
	Paused
)

// Outcome summarises one batch run.
type Outcome struct {
	Status    Status
	PausedAt  int
	Succeeded int
	Skipped   int
	Failed    int
}

// ErrNothingToResume is returned when a resume is requested but no cursor
// was saved for the batch kind.
var ErrNothingToResume = errors.New("nothing to resume")

// ErrAborted is returned when the user declines to continue a saved cursor
// on a different sheet.
var ErrAborted = errors.New("aborted by user")

// Driver iterates rows strictly in ascending order, one at a time. Rows are
// never processed concurrently; the cursor commit after every row is what
// makes interruption safe.
type Driver struct {
	Table    table.Store
	Progress *progress.Store
	Decide   Decision

	// RowDelay is slept between consecutive rows to respect upstream rate
	// limits.
	RowDelay time.Duration
	// CheckEvery is how many rows pass between time-budget checkpoints.
	CheckEvery int
	// TimeBudget is the soft wall-clock limit; once exceeded, the driver
	// blocks on Decide before continuing.
	TimeBudget time.Duration

	// sleep is swappable for tests.
	sleep func(time.Duration)
}

func NewDriver(store table.Store, cursor *progress.Store, decide Decision, rowDelay time.Duration, checkEvery int, timeBudget time.Duration) *Driver {
	return &Driver{
		Table:      store,
		Progress:   cursor,
		Decide:     decide,
		RowDelay:   rowDelay,
		CheckEvery: checkEvery,
		TimeBudget: timeBudget,
		sleep:      time.Sleep,
	}
}

// Run executes one batch over data rows [startRow, endRow). endRow <= 0
// means the end of the table. With resume set, the saved cursor decides the
// start position instead of startRow.
func (d *Driver) Run(ctx context.Context, proc Processor, resume bool, startRow, endRow int) (Outcome, error) {
	kind := proc.Kind()
	identity := d.Table.Identity()

	// The cursor is settled first: a declined sheet-mismatch resume must
	// abort before anything is written into the new sheet.
	first, err := d.startPosition(kind, identity, resume, startRow)
	if err != nil {
		return Outcome{}, err
	}

	grid, err := d.Table.ReadAll(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to read table: %w", err)
	}

	var header []string
	if len(grid) > 0 {
		header = table.HeaderStrings(grid[0])
	}
	cols, err := columns.Resolve(ctx, d.Table, header, proc.Fields())
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to resolve columns: %w", err)
	}

	dataRows := len(grid) - 1
	if dataRows < 0 {
		dataRows = 0
	}
	last := dataRows
	if endRow > 0 && endRow < last {
		last = endRow
	}

	log.Info().
		Str("kind", string(kind)).
		Str("sheet", identity).
		Int("from_row", first).
		Int("to_row", last).
		Msg("Starting batch run")

	if d.sleep == nil {
		d.sleep = time.Sleep
	}

	began := time.Now()
	var outcome Outcome
	for i := first; i < last; i++ {
		if err := ctx.Err(); err != nil {
			return outcome, err
		}

		var row []interface{}
		if i+1 < len(grid) {
			row = grid[i+1]
		}

		result := proc.ProcessRow(ctx, d.Table, cols, i, row)
		switch result.Outcome {
		case Success:
			outcome.Succeeded++
		case Skipped:
			outcome.Skipped++
		case Failed:
			outcome.Failed++
			log.Warn().
				Int("row", i).
				Str("reason", result.Reason).
				Msg("Row failed; continuing")
		}

		// Whatever the outcome, the row counts as completed: resume must
		// start strictly after it.
		if err := d.Progress.Commit(kind, identity, i); err != nil {
			return outcome, fmt.Errorf("failed to commit cursor at row %d: %w", i, err)
		}

		log.Debug().
			Int("row", i).
			Str("outcome", result.Outcome.String()).
			Msg("Row committed")

		done := i + 1
		if done < last && d.checkpointDue(done-first) {
			elapsed := time.Since(began)
			if elapsed > d.TimeBudget {
				prompt := fmt.Sprintf("Elapsed %s exceeds the %s budget at row %d. Continue?",
					elapsed.Round(time.Second), d.TimeBudget, i)
				if !d.Decide.Confirm(prompt) {
					outcome.Status = Paused
					outcome.PausedAt = i
					log.Debug().
						Int("row", i).
						Dur("elapsed", elapsed).
						Msg("Batch paused at checkpoint")
					return outcome, nil
				}
			}
		}

		if done < last && d.RowDelay > 0 {
			d.sleep(d.RowDelay)
		}
	}

	if err := d.Progress.Clear(kind); err != nil {
		return outcome, fmt.Errorf("failed to clear cursor: %w", err)
	}
	outcome.Status = Completed
	log.Debug().
		Str("kind", string(kind)).
		Int("succeeded", outcome.Succeeded).
		Int("skipped", outcome.Skipped).
		Int("failed", outcome.Failed).
		Msg("Batch run finished")
	return outcome, nil
}

func (d *Driver) startPosition(kind progress.Kind, identity string, resume bool, startRow int) (int, error) {
	if !resume {
		if err := d.Progress.Start(kind, identity); err != nil {
			return 0, fmt.Errorf("failed to start cursor: %w", err)
		}
		if startRow < 0 {
			startRow = 0
		}
		return startRow, nil
	}

	cursor, ok, err := d.Progress.Load(kind)
	if err != nil {
		return 0, fmt.Errorf("failed to load cursor: %w", err)
	}
	if !ok {
		return 0, ErrNothingToResume
	}
	if cursor.SheetID != identity {
		prompt := fmt.Sprintf("Saved progress is for sheet %q but the active sheet is %q. Continue here?",
			cursor.SheetID, identity)
		if !d.Decide.Confirm(prompt) {
			return 0, ErrAborted
		}
		if err := d.Progress.Rebind(kind, identity); err != nil {
			return 0, fmt.Errorf("failed to rebind cursor: %w", err)
		}
		log.Info().
			Str("kind", string(kind)).
			Str("sheet", identity).
			Int("last_row", cursor.LastRow).
			Msg("Cursor rebound to active sheet")
	}
	return cursor.LastRow + 1, nil
}

func (d *Driver) checkpointDue(processed int) bool {
	return d.CheckEvery > 0 && processed%d.CheckEvery == 0
}
