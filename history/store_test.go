package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/agentpipe/engine"
	"github.com/BaSui01/agentpipe/pipeline"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func finishedRun(runID string, errs []string) *engine.RunHistory {
	h := engine.NewRunHistory(runID, "staged")
	nr := h.RecordNodeStart("q", pipeline.KindQuery)
	h.RecordNodeEnd(nr, nil)
	h.Finish(errs)
	return h
}

func TestStore_SaveAndLoad(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveRun(ctx, finishedRun("run-1", nil)))

	rec, err := store.ByRunID(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", rec.RunID)
	assert.Equal(t, "staged", rec.Schema)
	assert.Equal(t, "completed", rec.Status)
	assert.Equal(t, 1, rec.NodeCount)
	assert.Empty(t, rec.ErrorText)
	assert.Contains(t, rec.NodesJSON, `"node_id":"q"`)
}

func TestStore_FailedRunKeepsErrors(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	errs := []string{"node c: backend down", "node s: blocked"}
	require.NoError(t, store.SaveRun(ctx, finishedRun("run-2", errs)))

	rec, err := store.ByRunID(ctx, "run-2")
	require.NoError(t, err)
	assert.Equal(t, "failed", rec.Status)
	assert.Equal(t, "node c: backend down\nnode s: blocked", rec.ErrorText)
}

func TestStore_RecentNewestFirst(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"old", "mid", "new"} {
		h := finishedRun(id, nil)
		require.NoError(t, store.SaveRun(ctx, h))
		time.Sleep(5 * time.Millisecond)
	}

	recent, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "new", recent[0].RunID)
	assert.Equal(t, "mid", recent[1].RunID)
}

func TestStore_DuplicateRunIDRejected(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveRun(ctx, finishedRun("dup", nil)))
	assert.Error(t, store.SaveRun(ctx, finishedRun("dup", nil)))
}

func TestStore_ByRunIDMissing(t *testing.T) {
	store := openTestStore(t)
	_, err := store.ByRunID(context.Background(), "nope")
	assert.Error(t, err)
}

func TestStore_ImplementsRunSink(t *testing.T) {
	var _ engine.RunSink = (*Store)(nil)
}
