package kb

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novel-kb-api/internal/domain/entity"
)

// fakeStore 内存实现的 SectionStore，记录调用供断言
type fakeStore struct {
	mu sync.Mutex

	critical    []*entity.Section
	byKeyword   map[string][]*entity.Section
	criticalErr error
	searchErr   error

	gotCriticalKeys []string
	gotKeywords     []string

	replaced    map[string][]*entity.Section
	replaceErr  map[string]error
	summaryData *StoreSummary
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		byKeyword:  make(map[string][]*entity.Section),
		replaced:   make(map[string][]*entity.Section),
		replaceErr: make(map[string]error),
	}
}

func (f *fakeStore) ReplaceDocument(ctx context.Context, docKey string, sections []*entity.Section) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.replaceErr[docKey]; err != nil {
		return 0, err
	}
	f.replaced[docKey] = sections
	return len(sections), nil
}

func (f *fakeStore) FindCritical(ctx context.Context, docKeys []string) ([]*entity.Section, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gotCriticalKeys = docKeys
	if f.criticalErr != nil {
		return nil, f.criticalErr
	}
	return f.critical, nil
}

func (f *fakeStore) SearchKeyword(ctx context.Context, keyword string, limit int) ([]*entity.Section, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gotKeywords = append(f.gotKeywords, keyword)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	rows := f.byKeyword[keyword]
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (f *fakeStore) Summary(ctx context.Context) (*StoreSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.summaryData, nil
}

func sec(docKey, title string) *entity.Section {
	return &entity.Section{
		DocKey:   docKey,
		Title:    title,
		Content:  title + " 에 대한 본문",
		Priority: entity.PriorityCritical,
	}
}

func TestRetrieve_CriticalAlwaysIncluded(t *testing.T) {
	store := newFakeStore()
	store.critical = []*entity.Section{sec("master", "전수 정책"), sec("bible", "세계관 개요")}
	e := NewEngine(store, newTestRegistry())

	got, err := e.Retrieve(context.Background(), nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"master", "bible"}, store.gotCriticalKeys)
	assert.Len(t, got.Sections(), 2)
	// 关键词为空时不触发关键词检索
	assert.Empty(t, store.gotKeywords)
}

func TestRetrieve_DedupAcrossCriticalAndKeyword(t *testing.T) {
	store := newFakeStore()
	store.critical = []*entity.Section{sec("master", "전수 정책")}
	store.byKeyword["전수"] = []*entity.Section{sec("master", "전수 정책"), sec("story_arc", "전수 장면")}
	e := NewEngine(store, newTestRegistry())

	got, err := e.Retrieve(context.Background(), []string{"전수"})

	require.NoError(t, err)
	require.Len(t, got.Sections(), 2)
}

func TestRetrieve_MergeFollowsKeywordOrder(t *testing.T) {
	store := newFakeStore()
	store.byKeyword["위소운"] = []*entity.Section{sec("story_arc", "위소운 등장")}
	store.byKeyword["천화련"] = []*entity.Section{sec("bible", "천화련 구조")}
	e := NewEngine(store, newTestRegistry())

	got, err := e.Retrieve(context.Background(), []string{"위소운", "천화련"})

	require.NoError(t, err)
	all := got.Sections()
	require.Len(t, all, 2)
	assert.Equal(t, "위소운 등장", all[0].Title)
	assert.Equal(t, "천화련 구조", all[1].Title)
}

func TestRetrieve_SkipsShortAndExcessKeywords(t *testing.T) {
	store := newFakeStore()
	e := NewEngine(store, newTestRegistry())

	keywords := []string{"가"} // 过短，跳过
	for i := 0; i < 20; i++ {
		keywords = append(keywords, strings.Repeat(string(rune('가'+i)), 2))
	}

	_, err := e.Retrieve(context.Background(), keywords)

	require.NoError(t, err)
	assert.Len(t, store.gotKeywords, maxSearchKeywords)
	assert.NotContains(t, store.gotKeywords, "가")
}

func TestRetrieve_GroupsByDocumentFirstSeen(t *testing.T) {
	store := newFakeStore()
	store.critical = []*entity.Section{
		sec("master", "전수 정책"),
		sec("bible", "세계관 개요"),
		sec("master", "독점 영역"),
	}
	e := NewEngine(store, newTestRegistry())

	got, err := e.Retrieve(context.Background(), nil)

	require.NoError(t, err)
	require.Len(t, got.Groups, 2)
	assert.Equal(t, "master", got.Groups[0].DocKey)
	assert.Len(t, got.Groups[0].Sections, 2)
	assert.Equal(t, "bible", got.Groups[1].DocKey)
}

func TestRetrieve_StoreErrorPropagates(t *testing.T) {
	store := newFakeStore()
	store.criticalErr = errors.New("db down")
	e := NewEngine(store, newTestRegistry())

	_, err := e.Retrieve(context.Background(), nil)

	assert.Error(t, err)
}

func TestRetrieve_KeywordErrorPropagates(t *testing.T) {
	store := newFakeStore()
	store.searchErr = errors.New("db down")
	e := NewEngine(store, newTestRegistry())

	_, err := e.Retrieve(context.Background(), []string{"천화련"})

	assert.Error(t, err)
}

func TestResultBundle_Format(t *testing.T) {
	store := newFakeStore()
	store.critical = []*entity.Section{sec("master", "전수 정책"), sec("bible", "세계관 개요")}
	e := NewEngine(store, newTestRegistry())

	got, err := e.Retrieve(context.Background(), nil)
	require.NoError(t, err)

	text := got.Format()
	// 文档标签来自注册表
	assert.Contains(t, text, "## 📖 소설 진행 마스터")
	assert.Contains(t, text, "## 📖 스토리 바이블")
	assert.Contains(t, text, "### 전수 정책")
	assert.Contains(t, text, "━━━━━━━━━━━━━━━━━━━━")
}

func TestResultBundle_LabelFallsBackToKey(t *testing.T) {
	store := newFakeStore()
	store.critical = []*entity.Section{sec("unregistered_doc", "무제")}
	e := NewEngine(store, newTestRegistry())

	got, err := e.Retrieve(context.Background(), nil)
	require.NoError(t, err)

	assert.Contains(t, got.Format(), "## 📖 unregistered_doc")
}
