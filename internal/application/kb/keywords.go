package kb

import (
	"regexp"
	"strings"
)

// 关键词抽取用的词形规则。韩文内容的启发式规则，
// 字符类与后缀表随语料调整，见各规则注释。
var (
	// 连续韩文字符（≥2）构成的词
	hangulRunRe = regexp.MustCompile(`[가-힣]{2,}`)

	// **加粗** 标记的重要术语
	boldSpanRe = regexp.MustCompile(`\*\*([^*]+)\*\*`)

	// 韩文词 + 括号内汉字/拉丁注音（武功名等），取韩文部分
	hanjaGlossRe   = regexp.MustCompile(`[가-힣]+\([一-龥a-zA-Z]+\)`)
	hanjaLeadingRe = regexp.MustCompile(`^[가-힣]+`)

	// 人名候选：2~4 字韩文后紧跟括号或助词。
	// RE2 不支持前瞻，以捕获组取词干，助词本身被消耗但不影响词干集合。
	properNounRe = regexp.MustCompile(`([가-힣]{2,4})(?:\(|은|는|이|가|의|를|을|에게|과|와|도)`)

	// 武功/心法名：≥2 字韩文 + 领域后缀（법/공/식/진/결/경/장），
	// 且后缀须位于韩文词串末尾
	martialTermRe = regexp.MustCompile(`([가-힣]{2,}[법공식진결경장])(?:[^가-힣]|$)`)

	containsLatinRe = regexp.MustCompile(`[A-Za-z]`)
)

// 抽取结果中剔除的常见泛用词
var keywordStopWords = map[string]bool{
	"이것": true, "그것": true, "저것": true, "이런": true, "그런": true,
	"때문": true, "하지만": true, "그리고": true, "또한": true, "아래": true,
	"위에": true, "다음": true, "이전": true, "기본": true, "핵심": true,
	"설정": true, "내용": true, "항목": true, "참조": true, "참고": true,
}

// 关键词数量上限
const maxKeywords = 30

// ExtractKeywords 从章节标题与正文抽取检索关键词。
// 规则按固定顺序执行，结果保持首次出现顺序，上限 30 个。
func ExtractKeywords(title, content string) []string {
	set := newOrderedSet()

	// 标题中的韩文词
	for _, w := range hangulRunRe.FindAllString(title, -1) {
		set.add(w)
	}

	// 加粗术语：韩文词逐个收录；含拉丁字母的短混合术语（如 M&A、CEO）原样保留
	for _, m := range boldSpanRe.FindAllStringSubmatch(content, -1) {
		term := strings.TrimSpace(m[1])
		for _, w := range hangulRunRe.FindAllString(term, -1) {
			set.add(w)
		}
		if containsLatinRe.MatchString(term) && len([]rune(term)) <= 20 {
			set.add(term)
		}
	}

	// 汉字注音术语的韩文部分
	for _, m := range hanjaGlossRe.FindAllString(content, -1) {
		if korean := hanjaLeadingRe.FindString(m); korean != "" {
			set.add(korean)
		}
	}

	// 人名候选：标题 + 正文前 500 字
	nameArea := title + " " + truncateRunes(content, 500)
	for _, m := range properNounRe.FindAllStringSubmatch(nameArea, -1) {
		set.add(m[1])
	}

	// 武功/心法名
	for _, m := range martialTermRe.FindAllStringSubmatch(content, -1) {
		set.add(m[1])
	}

	return set.take(maxKeywords)
}

// orderedSet 保序去重集合
type orderedSet struct {
	seen  map[string]bool
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]bool)}
}

func (s *orderedSet) add(w string) {
	if w == "" || s.seen[w] || keywordStopWords[w] {
		return
	}
	s.seen[w] = true
	s.items = append(s.items, w)
}

func (s *orderedSet) take(n int) []string {
	if len(s.items) > n {
		return s.items[:n]
	}
	return s.items
}

// truncateRunes 按字符数截断，避免在多字节字符中间切断
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
