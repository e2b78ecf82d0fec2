package kb

import (
	"regexp"
	"strings"

	"novel-kb-api/internal/domain/entity"
)

// Markdown 标题行。一级到四级标题都会关闭当前章节
var headingRe = regexp.MustCompile(`^(#{1,4})\s+(.+)`)

// 二次切分用的子标题（二级到五级）
var subHeadingRe = regexp.MustCompile(`^(#{2,5})\s+(.+)`)

const (
	// 章节正文的最小长度（字符数），更短的章节静默丢弃
	minSectionRunes = 10
	// 超过该行数的章节按子标题二次切分
	maxSectionLines = 300
	// 二次切分时，累积行数不超过该值的块并入后续章节
	minSubChunkLines = 5
)

// rawSection 切分中间产物，尚未标注关键词与优先级
type rawSection struct {
	title   string
	content string
}

// Sectionizer 把 Markdown 文档切分为可索引章节
type Sectionizer struct {
	classifier *Classifier
}

// NewSectionizer 创建章节切分器
func NewSectionizer(classifier *Classifier) *Sectionizer {
	return &Sectionizer{classifier: classifier}
}

// Sectionize 切分文档并为每个章节标注关键词与优先级。
// 首个标题之前的内容归入 "(서두)" 章节；超长章节按子标题再切一次，
// 子章节标题为 "父标题 > 子标题"，优先级继承父章节，关键词重新抽取。
func (s *Sectionizer) Sectionize(text, docKey string, defaultPriority int) []*entity.Section {
	var out []*entity.Section
	for _, raw := range firstPass(text) {
		sec := s.build(raw.title, raw.content, docKey, defaultPriority)
		if sec.LineCount() <= maxSectionLines {
			out = append(out, sec)
			continue
		}
		out = append(out, s.splitLarge(sec)...)
	}
	return out
}

// build 组装单个章节
func (s *Sectionizer) build(title, content, docKey string, defaultPriority int) *entity.Section {
	return &entity.Section{
		DocKey:   docKey,
		Title:    title,
		Content:  content,
		Keywords: ExtractKeywords(title, content),
		Priority: s.classifier.Classify(docKey, title, content, defaultPriority),
	}
}

// splitLarge 把超长章节按子标题二次切分。只切这一次，不递归。
// 子标题之前累积不足 6 行的块不单独保存，并入下一块。
func (s *Sectionizer) splitLarge(sec *entity.Section) []*entity.Section {
	var out []*entity.Section

	save := func(title string, lines []string) {
		content := strings.TrimSpace(strings.Join(lines, "\n"))
		if len([]rune(content)) <= minSectionRunes {
			return
		}
		out = append(out, &entity.Section{
			DocKey:   sec.DocKey,
			Title:    title,
			Content:  content,
			Keywords: ExtractKeywords(title, content),
			Priority: sec.Priority,
		})
	}

	currentTitle := sec.Title
	var currentLines []string

	for _, line := range strings.Split(sec.Content, "\n") {
		m := subHeadingRe.FindStringSubmatch(line)
		if m != nil && len(currentLines) > minSubChunkLines {
			save(currentTitle, currentLines)
			currentTitle = sec.Title + " > " + strings.TrimSpace(m[2])
			currentLines = []string{line}
			continue
		}
		currentLines = append(currentLines, line)
	}
	if len(currentLines) > 0 {
		save(currentTitle, currentLines)
	}

	return out
}

// firstPass 按一级到四级标题切分全文。
// 标题行归属其开启的章节；正文过短的章节被丢弃。
func firstPass(text string) []rawSection {
	var out []rawSection

	save := func(title string, lines []string) {
		content := strings.TrimSpace(strings.Join(lines, "\n"))
		if len([]rune(content)) <= minSectionRunes {
			return
		}
		out = append(out, rawSection{title: title, content: content})
	}

	currentTitle := entity.PreambleTitle
	var currentLines []string

	for _, line := range strings.Split(text, "\n") {
		m := headingRe.FindStringSubmatch(line)
		if m == nil {
			currentLines = append(currentLines, line)
			continue
		}
		if len(currentLines) > 0 {
			save(currentTitle, currentLines)
		}
		currentTitle = strings.TrimSpace(m[2])
		currentLines = []string{line}
	}
	if len(currentLines) > 0 {
		save(currentTitle, currentLines)
	}

	return out
}
