package batch_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"steam_sheet_enrich/internal/batch"
	"steam_sheet_enrich/internal/columns"
	"steam_sheet_enrich/internal/progress"
	"steam_sheet_enrich/internal/table"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingProcessor counts visits per row and reports scripted outcomes.
type recordingProcessor struct {
	visited []int
	failAt  map[int]bool
}

func (p *recordingProcessor) Kind() progress.Kind { return progress.KindOwnership }

func (p *recordingProcessor) Fields() []columns.FieldSpec {
	return []columns.FieldSpec{
		{Name: "id", Label: "ID", Match: [][]string{{"id"}}},
	}
}

func (p *recordingProcessor) ProcessRow(ctx context.Context, store table.Store, cols map[string]int, rowIndex int, row []interface{}) batch.RowResult {
	p.visited = append(p.visited, rowIndex)
	if table.CellTrimmed(row, cols["id"]) == "" {
		return batch.RowResult{Outcome: batch.Skipped}
	}
	if p.failAt[rowIndex] {
		return batch.RowResult{Outcome: batch.Failed, Reason: "scripted failure"}
	}
	return batch.RowResult{Outcome: batch.Success}
}

func tenRowTable(id string) *table.Fake {
	cells := [][]interface{}{{"ID"}}
	for i := 0; i < 10; i++ {
		cells = append(cells, []interface{}{string(rune('a' + i))})
	}
	return table.NewFake(id, cells)
}

func cursorStore(t *testing.T) *progress.Store {
	t.Helper()
	return progress.NewStore(filepath.Join(t.TempDir(), "progress.json"))
}

func alwaysContinue() batch.Decision {
	return batch.DecisionFunc(func(string) bool { return true })
}

func TestRunCompletesAndClearsCursor(t *testing.T) {
	fake := tenRowTable("sheet-A")
	cursor := cursorStore(t)
	proc := &recordingProcessor{}
	driver := batch.NewDriver(fake, cursor, alwaysContinue(), 0, 10, time.Hour)

	outcome, err := driver.Run(context.Background(), proc, false, 0, 0)
	require.NoError(t, err)

	assert.Equal(t, batch.Completed, outcome.Status)
	assert.Equal(t, 10, outcome.Succeeded)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, proc.visited)

	_, ok, err := cursor.Load(progress.KindOwnership)
	require.NoError(t, err)
	assert.False(t, ok, "natural completion must clear the cursor")
}

func TestRunPauseThenResumeRoundTrip(t *testing.T) {
	fake := tenRowTable("sheet-A")
	cursor := cursorStore(t)
	proc := &recordingProcessor{}

	// Zero budget forces the checkpoint after row 4 to prompt; the scripted
	// decision declines.
	pauseAll := batch.DecisionFunc(func(string) bool { return false })
	driver := batch.NewDriver(fake, cursor, pauseAll, 0, 5, 0)

	outcome, err := driver.Run(context.Background(), proc, false, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, batch.Paused, outcome.Status)
	assert.Equal(t, 4, outcome.PausedAt)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, proc.visited)

	saved, ok, err := cursor.Load(progress.KindOwnership)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 4, saved.LastRow)

	// Resume picks up strictly after the last committed row.
	resumed := &recordingProcessor{}
	driver2 := batch.NewDriver(fake, cursor, alwaysContinue(), 0, 10, time.Hour)
	outcome2, err := driver2.Run(context.Background(), resumed, true, 0, 0)
	require.NoError(t, err)

	assert.Equal(t, batch.Completed, outcome2.Status)
	assert.Equal(t, []int{5, 6, 7, 8, 9}, resumed.visited, "rows 0..4 must never be reprocessed")
}

func TestRunResumeWithoutCursor(t *testing.T) {
	fake := tenRowTable("sheet-A")
	driver := batch.NewDriver(fake, cursorStore(t), alwaysContinue(), 0, 10, time.Hour)

	_, err := driver.Run(context.Background(), &recordingProcessor{}, true, 0, 0)
	assert.ErrorIs(t, err, batch.ErrNothingToResume)
}

func TestRunResumeOnDifferentSheet(t *testing.T) {
	cursor := cursorStore(t)
	require.NoError(t, cursor.Commit(progress.KindOwnership, "sheet-OLD", 6))

	var prompted string
	confirm := batch.DecisionFunc(func(prompt string) bool {
		prompted = prompt
		return true
	})

	fake := tenRowTable("sheet-NEW")
	proc := &recordingProcessor{}
	driver := batch.NewDriver(fake, cursor, confirm, 0, 10, time.Hour)

	outcome, err := driver.Run(context.Background(), proc, true, 0, 0)
	require.NoError(t, err)

	assert.NotEmpty(t, prompted, "sheet switch must be confirmed explicitly")
	assert.Equal(t, batch.Completed, outcome.Status)
	assert.Equal(t, []int{7, 8, 9}, proc.visited, "rebind keeps the row position")
}

func TestRunResumeOnDifferentSheetDeclined(t *testing.T) {
	cursor := cursorStore(t)
	require.NoError(t, cursor.Commit(progress.KindOwnership, "sheet-OLD", 6))

	// The header deliberately lacks the processor's column so a run that got
	// as far as column resolution would append one.
	fake := table.NewFake("sheet-NEW", [][]interface{}{{"Player"}, {"a"}, {"b"}})
	decline := batch.DecisionFunc(func(string) bool { return false })
	driver := batch.NewDriver(fake, cursor, decline, 0, 10, time.Hour)

	_, err := driver.Run(context.Background(), &recordingProcessor{}, true, 0, 0)
	assert.ErrorIs(t, err, batch.ErrAborted)
	assert.Empty(t, fake.Writes, "declining must leave the new sheet untouched")

	saved, ok, loadErr := cursor.Load(progress.KindOwnership)
	require.NoError(t, loadErr)
	require.True(t, ok)
	assert.Equal(t, "sheet-OLD", saved.SheetID, "declining must not touch the cursor")
}

func TestRunFailureIsolation(t *testing.T) {
	fake := tenRowTable("sheet-A")
	proc := &recordingProcessor{failAt: map[int]bool{3: true}}
	driver := batch.NewDriver(fake, cursorStore(t), alwaysContinue(), 0, 10, time.Hour)

	outcome, err := driver.Run(context.Background(), proc, false, 0, 0)
	require.NoError(t, err)

	assert.Equal(t, batch.Completed, outcome.Status)
	assert.Equal(t, 1, outcome.Failed)
	assert.Equal(t, 9, outcome.Succeeded)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, proc.visited, "a failed row must not stop the batch")
}

func TestRunSkippedRowsAdvanceCursor(t *testing.T) {
	fake := table.NewFake("sheet-A", [][]interface{}{
		{"ID"},
		{"a"},
		{"   "},
		{"c"},
	})
	cursor := cursorStore(t)
	proc := &recordingProcessor{}

	// Pause right after the blank row so the commit-on-skip is observable.
	pauseAll := batch.DecisionFunc(func(string) bool { return false })
	driver := batch.NewDriver(fake, cursor, pauseAll, 0, 2, 0)
	outcome, err := driver.Run(context.Background(), proc, false, 0, 0)
	require.NoError(t, err)

	assert.Equal(t, batch.Paused, outcome.Status)
	assert.Equal(t, 1, outcome.PausedAt)
	assert.Equal(t, 1, outcome.Skipped)

	saved, ok, err := cursor.Load(progress.KindOwnership)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, saved.LastRow, "a skipped row still advances the cursor")

	// Resume never re-offers the permanently blank row.
	resumed := &recordingProcessor{}
	driver2 := batch.NewDriver(fake, cursor, alwaysContinue(), 0, 10, time.Hour)
	_, err = driver2.Run(context.Background(), resumed, true, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, resumed.visited)
}

func TestRunHonorsExplicitRange(t *testing.T) {
	fake := tenRowTable("sheet-A")
	proc := &recordingProcessor{}
	driver := batch.NewDriver(fake, cursorStore(t), alwaysContinue(), 0, 10, time.Hour)

	outcome, err := driver.Run(context.Background(), proc, false, 2, 5)
	require.NoError(t, err)

	assert.Equal(t, batch.Completed, outcome.Status)
	assert.Equal(t, []int{2, 3, 4}, proc.visited)
}
