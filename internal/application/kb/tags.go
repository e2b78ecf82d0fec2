package kb

import "strings"

// tagMapping 标签展开结果：实际检索词 + 优先匹配的文件名线索
type tagMapping struct {
	query     string
	fileHints []string
}

// tagMap @标签 → 检索词映射表。线索只影响回退检索的扫描顺序与加分。
var tagMap = map[string]tagMapping{
	"요리":  {query: "요리 음식 메뉴 가격", fileHints: []string{"음식", "건축"}},
	"음식":  {query: "요리 음식 메뉴 가격", fileHints: []string{"음식", "건축"}},
	"건축":  {query: "건축 객잔 구조 기둥", fileHints: []string{"음식", "건축"}},
	"객잔":  {query: "객잔 주막 여관", fileHints: []string{"객잔"}},
	"무공":  {query: "무공 심법 초식 내공", fileHints: []string{"무공_시스템"}},
	"무기":  {query: "무기 병기 검 도 창", fileHints: []string{"무기", "병기"}},
	"병기":  {query: "무기 병기 검 도 창", fileHints: []string{"무기", "병기"}},
	"의복":  {query: "의복 복식 의상 옷", fileHints: []string{"의복", "복식"}},
	"지리":  {query: "지역 도시 산 강", fileHints: []string{"지리"}},
	"이동":  {query: "이동 경로 거리 리", fileHints: []string{"이동", "동선"}},
	"세력":  {query: "세력 문파 조직 파", fileHints: []string{"세력도", "조직도"}},
	"조직":  {query: "세력 문파 조직", fileHints: []string{"조직도"}},
	"인물":  {query: "캐릭터 인물 이름", fileHints: []string{"캐릭터", "인명록"}},
	"캐릭터": {query: "캐릭터 인물", fileHints: []string{"캐릭터", "인명록"}},
	"경영":  {query: "경영 M&A 재무 ROI", fileHints: []string{"경영"}},
	"무협":  {query: "무협 용어 강호", fileHints: []string{"무협_용어"}},
	"로드맵": {query: "로드맵 300화 일정", fileHints: []string{"로드맵"}},
}

// ResolveTag 把 @标签解析为检索词与文件名线索。
// 未登记的标签原样作为检索词使用，不报错。
func ResolveTag(tag string) (string, []string) {
	key := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(tag), "@"))
	if m, ok := tagMap[key]; ok {
		return m.query, m.fileHints
	}
	return key, nil
}

// categoryRules 文档名子串 → 分类。按声明顺序匹配，先命中先得。
var categoryRules = []struct {
	substr   string
	category string
}{
	{"지리", "지리/지역"}, {"객잔", "지리/객잔"}, {"이동", "지리/이동"},
	{"음식", "생활/음식·건축"}, {"건축", "생활/음식·건축"},
	{"의복", "생활/의복"}, {"복식", "생활/의복"},
	{"무공", "무공/전투"}, {"무기", "무공/병기"}, {"병기", "무공/병기"},
	{"캐릭터", "인물"}, {"인명록", "인물"}, {"성장표", "인물/성장"},
	{"세력도", "세력/조직"}, {"조직도", "세력/조직"},
	{"경영", "경영/용어"}, {"무협", "무협/용어"},
	{"로드맵", "스토리/로드맵"}, {"출연자", "스토리/출연자"}, {"루트맵", "스토리/루트맵"},
	{"6하원칙", "템플릿/설계"}, {"스켈레톤", "템플릿/뼈대"},
}

// 没有命中任何规则时的兜底分类
const defaultCategory = "기타"

// GuessCategory 按文档名推断分类
func GuessCategory(docName string) string {
	for _, r := range categoryRules {
		if strings.Contains(docName, r.substr) {
			return r.category
		}
	}
	return defaultCategory
}
