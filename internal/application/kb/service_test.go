package kb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novel-kb-api/internal/domain/entity"
)

// fakeCache 内存缓存，miss 返回非 nil error
type fakeCache struct {
	data map[string][]byte
	sets int
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (f *fakeCache) Get(ctx context.Context, key string) ([]byte, error) {
	if b, ok := f.data[key]; ok {
		return b, nil
	}
	return nil, fmt.Errorf("cache miss: %s", key)
}

func (f *fakeCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.data[key] = b
	f.sets++
	return nil
}

func newTestService(store *fakeStore, cache ResultCache) *Service {
	engine := NewEngine(store, newTestRegistry())
	scanner := NewLocalScanner(newScanSource(), newScanRegistry())
	return NewService(engine, scanner, cache, time.Second, time.Minute)
}

func TestSearch_PrimaryPath(t *testing.T) {
	store := newFakeStore()
	store.critical = []*entity.Section{sec("master", "전수 정책")}
	svc := newTestService(store, nil)

	out, err := svc.Search(context.Background(), SearchInput{Query: "전수", TopK: 5})

	require.NoError(t, err)
	assert.Equal(t, SourcePrimary, out.Source)
	require.Equal(t, 1, out.Count())
	assert.Equal(t, "master", out.Results[0].DocKey)
	assert.Equal(t, "소설 진행 마스터", out.Results[0].DocLabel)
	assert.Contains(t, out.Context, "## 📖 소설 진행 마스터")
}

func TestSearch_FallbackOnPrimaryFailure(t *testing.T) {
	store := newFakeStore()
	store.criticalErr = errors.New("db down")
	svc := newTestService(store, nil)

	out, err := svc.Search(context.Background(), SearchInput{Query: "화산파", TopK: 5})

	require.NoError(t, err)
	assert.Equal(t, SourceFallback, out.Source)
	require.NotEmpty(t, out.Results)
	assert.Greater(t, out.Results[0].Score, 0.0)
	assert.Contains(t, out.Context, "### ")
}

func TestSearch_FallbackFailureSurfaces(t *testing.T) {
	store := newFakeStore()
	store.criticalErr = errors.New("db down")
	svc := newTestService(store, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Search(ctx, SearchInput{Query: "화산파", TopK: 5})

	assert.Error(t, err)
}

func TestSearch_TagExpandsQuery(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, nil)

	out, err := svc.Search(context.Background(), SearchInput{Tag: "@무공", TopK: 5})

	require.NoError(t, err)
	assert.Equal(t, SourcePrimary, out.Source)
	// 标签展开后的检索词逐个进入关键词检索
	assert.ElementsMatch(t, []string{"무공", "심법", "초식", "내공"}, store.gotKeywords)
}

func TestSearch_EmptyQueryPrimaryReturnsCriticalOnly(t *testing.T) {
	store := newFakeStore()
	store.critical = []*entity.Section{sec("master", "전수 정책")}
	svc := newTestService(store, nil)

	out, err := svc.Search(context.Background(), SearchInput{Query: "", TopK: 5})

	require.NoError(t, err)
	assert.Equal(t, 1, out.Count())
	assert.Empty(t, store.gotKeywords)
}

func TestSearch_CacheHitSkipsStore(t *testing.T) {
	store := newFakeStore()
	store.critical = []*entity.Section{sec("master", "전수 정책")}
	cache := newFakeCache()
	svc := newTestService(store, cache)

	in := SearchInput{Query: "전수", TopK: 5}

	first, err := svc.Search(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, 1, cache.sets)

	// 命中缓存后即使存储故障也能返回
	store.criticalErr = errors.New("db down")
	second, err := svc.Search(context.Background(), in)

	require.NoError(t, err)
	assert.Equal(t, first.Source, second.Source)
	assert.Equal(t, first.Count(), second.Count())
	assert.Equal(t, first.Context, second.Context)
	assert.Equal(t, 1, cache.sets)
}

func TestSearch_CacheKeySeparatesInputs(t *testing.T) {
	assert.NotEqual(t, cacheKey("전수", "", 5, ""), cacheKey("전수", "", 10, ""))
	assert.NotEqual(t, cacheKey("전수", "", 5, ""), cacheKey("전수", "@무공", 5, ""))
	assert.Equal(t, cacheKey("전수", "", 5, ""), cacheKey("전수", "", 5, ""))
}
