package kb

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"novel-kb-api/internal/domain/entity"
)

func newTestRegistry() *entity.Registry {
	docs := []entity.Document{
		{Key: "master", Title: "소설 진행 마스터", Path: "소설_진행_마스터.md", DefaultPriority: 1},
		{Key: "bible", Title: "스토리 바이블", Path: "master_story_bible.md", DefaultPriority: 1},
		{Key: "story_arc", Title: "스토리 아크 상세", Path: "스토리_아크_상세.md", DefaultPriority: 2},
	}
	return entity.NewRegistry(docs, []string{"master", "bible"}, []string{"master"})
}

func TestClassify_AlwaysCriticalDoc(t *testing.T) {
	c := NewClassifier(newTestRegistry())

	got := c.Classify("master", "아무 제목", "아무 내용", entity.PriorityNormal)

	assert.Equal(t, entity.PriorityCritical, got)
}

func TestClassify_CriticalPatternInTitle(t *testing.T) {
	c := NewClassifier(newTestRegistry())

	cases := []string{
		"3인격 시스템 개요",
		"전수 정책과 범위",
		"금지어 목록",
		"캐릭터 말투 정리",
	}
	for _, title := range cases {
		got := c.Classify("story_arc", title, "평범한 내용", entity.PriorityNormal)
		assert.Equal(t, entity.PriorityCritical, got, "title=%s", title)
	}
}

func TestClassify_CriticalPatternInBodyHead(t *testing.T) {
	c := NewClassifier(newTestRegistry())

	got := c.Classify("story_arc", "일반 제목", "이 문서는 금지어 목록을 담는다", entity.PriorityNormal)

	assert.Equal(t, entity.PriorityCritical, got)
}

func TestClassify_PatternBeyondScanWindowIgnored(t *testing.T) {
	c := NewClassifier(newTestRegistry())

	// 본문 앞 300자 밖의 특징은 판정에 쓰지 않는다
	body := strings.Repeat("평범한 문장입니다. ", 40) + "금지어"
	got := c.Classify("story_arc", "일반 제목", body, entity.PriorityNormal)

	assert.Equal(t, entity.PriorityNormal, got)
}

func TestClassify_MartialTitle(t *testing.T) {
	c := NewClassifier(newTestRegistry())

	got := c.Classify("story_arc", "자하심법 구결", "내공 운용 설명", entity.PriorityNormal)

	assert.Equal(t, entity.PriorityCritical, got)
}

func TestClassify_FallsBackToDefault(t *testing.T) {
	c := NewClassifier(newTestRegistry())

	got := c.Classify("story_arc", "평범한 제목", "평범한 내용", entity.PriorityNormal)

	assert.Equal(t, entity.PriorityNormal, got)
}
