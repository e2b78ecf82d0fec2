package kb

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novel-kb-api/internal/domain/entity"
)

func newTestIndexer(source DocumentSource, store SectionStore, registry *entity.Registry) *Indexer {
	classifier := NewClassifier(registry)
	return NewIndexer(source, store, NewSectionizer(classifier), registry)
}

func TestSyncAll_WritesAllDocuments(t *testing.T) {
	registry := newScanRegistry()
	store := newFakeStore()
	ix := newTestIndexer(newScanSource(), store, registry)

	report, err := ix.SyncAll(context.Background())

	require.NoError(t, err)
	require.Len(t, report.Docs, 2)
	assert.Empty(t, report.Failed())
	assert.Equal(t, report.Total, len(store.replaced["geo_travel"])+len(store.replaced["martial_system"]))
	assert.Greater(t, report.Total, 0)

	// 章节已打上文档键与关键词
	for _, s := range store.replaced["geo_travel"] {
		assert.Equal(t, "geo_travel", s.DocKey)
		assert.NotEmpty(t, s.Keywords)
	}
}

func TestSyncAll_SourceFailureIsolated(t *testing.T) {
	registry := newScanRegistry()
	src := newScanSource()
	delete(src.files, "world_db/지리_이동_DB.md")
	store := newFakeStore()
	ix := newTestIndexer(src, store, registry)

	report, err := ix.SyncAll(context.Background())

	require.NoError(t, err)
	require.Len(t, report.Docs, 2)
	assert.Equal(t, []string{"geo_travel"}, report.Failed())

	// 失败文档不中断后续文档
	assert.NotEmpty(t, store.replaced["martial_system"])
	assert.Greater(t, report.Total, 0)
}

func TestSyncAll_WriteFailureIsolated(t *testing.T) {
	registry := newScanRegistry()
	store := newFakeStore()
	store.replaceErr["geo_travel"] = errors.New("insert failed")
	ix := newTestIndexer(newScanSource(), store, registry)

	report, err := ix.SyncAll(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"geo_travel"}, report.Failed())
	assert.NotEmpty(t, store.replaced["martial_system"])
}

func TestSync_UnknownDocKeyRejected(t *testing.T) {
	ix := newTestIndexer(newScanSource(), newFakeStore(), newScanRegistry())

	_, err := ix.Sync(context.Background(), []string{"martial_system", "없는_문서"})

	assert.Error(t, err)
}

func TestSync_SubsetOnly(t *testing.T) {
	store := newFakeStore()
	ix := newTestIndexer(newScanSource(), store, newScanRegistry())

	report, err := ix.Sync(context.Background(), []string{"martial_system"})

	require.NoError(t, err)
	require.Len(t, report.Docs, 1)
	assert.Equal(t, "martial_system", report.Docs[0].Key)
	assert.NotContains(t, store.replaced, "geo_travel")
}

func TestSync_CancelledContextStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ix := newTestIndexer(newScanSource(), newFakeStore(), newScanRegistry())

	_, err := ix.SyncAll(ctx)

	assert.Error(t, err)
}

func TestStatus_DelegatesToStore(t *testing.T) {
	store := newFakeStore()
	store.summaryData = &StoreSummary{
		Total:      3,
		ByDocument: map[string]int{"martial_system": 3},
	}
	ix := newTestIndexer(newScanSource(), store, newScanRegistry())

	got, err := ix.Status(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, got.Total)
}
