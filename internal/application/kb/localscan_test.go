package kb

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novel-kb-api/internal/domain/entity"
)

// fakeSource 内存文档源
type fakeSource struct {
	files map[string]string
}

func (f *fakeSource) Read(ctx context.Context, path string) (string, error) {
	text, ok := f.files[path]
	if !ok {
		return "", fmt.Errorf("no such document: %s", path)
	}
	return text, nil
}

func newScanRegistry() *entity.Registry {
	docs := []entity.Document{
		{Key: "geo_travel", Title: "지리·이동 DB", Path: "world_db/지리_이동_DB.md", DefaultPriority: 2},
		{Key: "martial_system", Title: "무공 시스템", Path: "world_db/무공_시스템.md", DefaultPriority: 1},
	}
	return entity.NewRegistry(docs, nil, nil)
}

func newScanSource() *fakeSource {
	return &fakeSource{files: map[string]string{
		"world_db/지리_이동_DB.md": "# 지리 개요\n강호의 주요 거점을 정리한다.\n## 화산파\n화산파 위치는 섬서성 화산이다. 화산파 본산까지는 장안에서 이틀 거리다.\n## 개봉\n개봉은 물류의 중심이다.",
		"world_db/무공_시스템.md":   "# 무공 체계\n내공과 초식 체계를 정리한다.\n## 매화검법\n화산파 고유의 검법이다.",
	}}
}

func TestLocalSearch_ScoresAndSorts(t *testing.T) {
	s := NewLocalScanner(newScanSource(), newScanRegistry())

	got, err := s.Search(context.Background(), "화산파 위치", 10, "", nil)

	require.NoError(t, err)
	require.NotEmpty(t, got)

	// 全部正分，降序
	for i, r := range got {
		assert.Greater(t, r.Score, 0.0)
		if i > 0 {
			assert.GreaterOrEqual(t, got[i-1].Score, r.Score)
		}
	}

	// 整句命中的章节排第一
	assert.Equal(t, "화산파", got[0].Title)
	assert.Equal(t, "geo_travel", got[0].DocKey)
}

func TestLocalSearch_ZeroScoreDropped(t *testing.T) {
	s := NewLocalScanner(newScanSource(), newScanRegistry())

	got, err := s.Search(context.Background(), "존재하지않는단어", 10, "", nil)

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLocalSearch_TopK(t *testing.T) {
	s := NewLocalScanner(newScanSource(), newScanRegistry())

	got, err := s.Search(context.Background(), "화산파", 1, "", nil)

	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestLocalSearch_CategoryFilter(t *testing.T) {
	s := NewLocalScanner(newScanSource(), newScanRegistry())

	got, err := s.Search(context.Background(), "화산파", 10, "무공", nil)

	require.NoError(t, err)
	require.NotEmpty(t, got)
	for _, r := range got {
		assert.Equal(t, "martial_system", r.DocKey)
		assert.Contains(t, r.Category, "무공")
	}
}

func TestLocalSearch_FileHintBonus(t *testing.T) {
	s := NewLocalScanner(newScanSource(), newScanRegistry())

	plain, err := s.Search(context.Background(), "화산파", 10, "", nil)
	require.NoError(t, err)
	hinted, err := s.Search(context.Background(), "화산파", 10, "", []string{"무공_시스템"})
	require.NoError(t, err)

	scoreOf := func(results []SectionResult, title string) float64 {
		for _, r := range results {
			if r.Title == title {
				return r.Score
			}
		}
		return 0
	}

	// 线索命中的文档加 3 分
	assert.InDelta(t, scoreOf(plain, "매화검법")+3, scoreOf(hinted, "매화검법"), 0.001)
}

func TestLocalSearch_RegexMetacharactersInert(t *testing.T) {
	s := NewLocalScanner(newScanSource(), newScanRegistry())

	// 元字符只作字面匹配，不会报错
	got, err := s.Search(context.Background(), "화산파 (.*)", 10, "", nil)

	require.NoError(t, err)
	for _, r := range got {
		assert.Greater(t, r.Score, 0.0)
	}
}

func TestLocalSearch_UnreadableDocSkipped(t *testing.T) {
	src := newScanSource()
	delete(src.files, "world_db/지리_이동_DB.md")
	s := NewLocalScanner(src, newScanRegistry())

	got, err := s.Search(context.Background(), "검법", 10, "", nil)

	require.NoError(t, err)
	require.NotEmpty(t, got)
	for _, r := range got {
		assert.Equal(t, "martial_system", r.DocKey)
	}
}

func TestLocalSearch_EmptyQuery(t *testing.T) {
	s := NewLocalScanner(newScanSource(), newScanRegistry())

	got, err := s.Search(context.Background(), "   ", 10, "", nil)

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLocalSearch_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewLocalScanner(newScanSource(), newScanRegistry())

	_, err := s.Search(ctx, "화산파", 10, "", nil)

	assert.Error(t, err)
}

func TestLocalSearch_TextTruncated(t *testing.T) {
	long := "# 긴 문서\n"
	for i := 0; i < 200; i++ {
		long += "내용이 아주 길게 이어지는 문단입니다. "
	}
	src := &fakeSource{files: map[string]string{"긴_문서.md": long}}
	registry := entity.NewRegistry([]entity.Document{
		{Key: "long_doc", Title: "긴 문서", Path: "긴_문서.md", DefaultPriority: 2},
	}, nil, nil)
	s := NewLocalScanner(src, registry)

	got, err := s.Search(context.Background(), "문단", 5, "", nil)

	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.LessOrEqual(t, len([]rune(got[0].Text)), 800)
}
