package kb

import (
	"regexp"

	"novel-kb-api/internal/domain/entity"
)

// criticalPatterns 核心章节的标题/正文特征，按顺序匹配。
// 命中任意一条即判定 priority=1。规则表是审校对象，独立于分类器测试。
var criticalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`전수.*정책|전수.*범위|전수.*한계`),
	regexp.MustCompile(`위소운.*독점|독점.*영역`),
	regexp.MustCompile(`3인격|삼인격`),
	regexp.MustCompile(`말투.*절대|말투.*불변`),
	regexp.MustCompile(`금지어|금지.*문구`),
	regexp.MustCompile(`캐릭터.*말투|말투.*패턴`),
}

// martialTitleRe 武功/修炼相关章节的标题特征，同样判定核心
var martialTitleRe = regexp.MustCompile(`심법|검법|무공|전수|수련`)

// 正文参与优先级判定的前缀长度（字符数）
const priorityScanRunes = 300

// Classifier 章节优先级分类器。
// 持有“整册核心”文档键集合，其余规则为包级数据。
type Classifier struct {
	registry *entity.Registry
}

// NewClassifier 创建优先级分类器
func NewClassifier(registry *entity.Registry) *Classifier {
	return &Classifier{registry: registry}
}

// Classify 判定章节优先级。判定顺序：
// 整册核心文档 → 核心特征规则（标题或正文前 300 字）→ 武功标题特征 → 文档默认值。
// 分类只会把优先级提为核心，不会降级。
func (c *Classifier) Classify(docKey, title, content string, defaultPriority int) int {
	if c.registry.IsAlwaysCritical(docKey) {
		return entity.PriorityCritical
	}

	head := truncateRunes(content, priorityScanRunes)
	for _, p := range criticalPatterns {
		if p.MatchString(title) || p.MatchString(head) {
			return entity.PriorityCritical
		}
	}

	if martialTitleRe.MatchString(title) {
		return entity.PriorityCritical
	}

	return defaultPriority
}
