package kb

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractKeywords_TitleWords(t *testing.T) {
	got := ExtractKeywords("자하신공 구결", "본문 내용입니다")

	assert.Contains(t, got, "자하신공")
	assert.Contains(t, got, "구결")
}

func TestExtractKeywords_BoldTerms(t *testing.T) {
	content := "천화련의 **백리검문** 은 강북 제일의 검문이다.\n**M&A 전략** 을 세운다."
	got := ExtractKeywords("세력 구도", content)

	assert.Contains(t, got, "백리검문")
	// 라틴 문자를 포함한 짧은 혼합 용어는 원형 그대로 보존
	assert.Contains(t, got, "M&A 전략")
	assert.Contains(t, got, "전략")
}

func TestExtractKeywords_HanjaGloss(t *testing.T) {
	got := ExtractKeywords("무공", "자하신공(紫霞神功)을 익혔다")

	assert.Contains(t, got, "자하신공")
}

func TestExtractKeywords_ProperNounWithParticle(t *testing.T) {
	got := ExtractKeywords("등장 인물", "위소운은 천화련의 후계자다. 이준혁이 깨어났다.")

	assert.Contains(t, got, "위소운")
	assert.Contains(t, got, "이준혁")
}

func TestExtractKeywords_MartialSuffix(t *testing.T) {
	got := ExtractKeywords("무공 목록", "자하신공 그리고 매화검법 이 두 가지가 핵심이다")

	assert.Contains(t, got, "자하신공")
	assert.Contains(t, got, "매화검법")
}

func TestExtractKeywords_SuffixRequiresRunEnd(t *testing.T) {
	// 후미 접미사는 한글 연속열 끝에서만 인정
	got := ExtractKeywords("", "심법으로 수련한다")

	assert.NotContains(t, got, "심법으")
}

func TestExtractKeywords_StopWordsRemoved(t *testing.T) {
	got := ExtractKeywords("핵심 설정", "기본 내용 그리고 참고 사항")

	for _, w := range []string{"핵심", "설정", "기본", "내용", "그리고", "참고"} {
		assert.NotContains(t, got, w)
	}
}

func TestExtractKeywords_CapAt30(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 50; i++ {
		fmt.Fprintf(&sb, "**용어%c%c** ", rune('가'+i), rune('나'+i))
	}
	got := ExtractKeywords("목록", sb.String())

	assert.LessOrEqual(t, len(got), 30)
	assert.Len(t, got, 30)
}

func TestExtractKeywords_InsertionOrderStable(t *testing.T) {
	content := "본문에 **천화련** 과 **백리검문** 이 등장한다"
	a := ExtractKeywords("세력도", content)
	b := ExtractKeywords("세력도", content)

	assert.Equal(t, a, b)
}
