package kb

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"novel-kb-api/internal/domain/entity"
	"novel-kb-api/pkg/logger"
)

const (
	// 单次检索参与匹配的关键词数量上限
	maxSearchKeywords = 15
	// 每个关键词返回的章节数上限
	perKeywordLimit = 5
	// 参与匹配的关键词最小长度（字符数）
	minKeywordRunes = 2
)

// 拼装上下文时的分隔符
const (
	sectionDivider = "\n\n---\n\n"
	groupDivider   = "\n\n━━━━━━━━━━━━━━━━━━━━\n\n"
)

// SectionGroup 同一文档下的检索命中章节
type SectionGroup struct {
	DocKey   string
	Label    string
	Sections []*entity.Section
}

// ResultBundle 一次主路径检索的全部命中，按文档分组，
// 组序与章节序都是确定的：核心集在前，关键词命中按关键词顺序合并。
type ResultBundle struct {
	Groups []*SectionGroup
}

// Sections 展平返回全部章节（保持分组顺序）
func (b *ResultBundle) Sections() []*entity.Section {
	var out []*entity.Section
	for _, g := range b.Groups {
		out = append(out, g.Sections...)
	}
	return out
}

// Format 把结果拼装为提示词友好的 Markdown 上下文。
// 每组以 "## 📖 文档标签" 开头，组内章节以 "### 标题" + 正文呈现。
func (b *ResultBundle) Format() string {
	parts := make([]string, 0, len(b.Groups))
	for _, g := range b.Groups {
		rendered := make([]string, 0, len(g.Sections))
		for _, s := range g.Sections {
			rendered = append(rendered, "### "+s.Title+"\n"+s.Content)
		}
		parts = append(parts, "## 📖 "+g.Label+"\n\n"+strings.Join(rendered, sectionDivider))
	}
	return strings.Join(parts, groupDivider)
}

// Engine 主路径检索引擎：核心章节集 ∪ 关键词命中集。
type Engine struct {
	store    SectionStore
	registry *entity.Registry
}

// NewEngine 创建检索引擎
func NewEngine(store SectionStore, registry *entity.Registry) *Engine {
	return &Engine{store: store, registry: registry}
}

// Retrieve 执行混合检索。
// 先取核心文档的 priority=1 章节（无条件携带），再对前 15 个
// 有效关键词（≥2 字）并发做子串检索，每个关键词至多 5 条。
// 并发查询的结果按关键词原始顺序合并，保证同样输入产出同样结果。
// 关键词为空时仅返回核心集，不算错误。
func (e *Engine) Retrieve(ctx context.Context, keywords []string) (*ResultBundle, error) {
	critical, err := e.store.FindCritical(ctx, e.registry.AlwaysOnKeys())
	if err != nil {
		return nil, err
	}

	valid := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if len([]rune(kw)) >= minKeywordRunes {
			valid = append(valid, kw)
		}
		if len(valid) == maxSearchKeywords {
			break
		}
	}

	// 每个关键词占一个结果槽位，合并时按槽位顺序遍历
	hits := make([][]*entity.Section, len(valid))
	g, gctx := errgroup.WithContext(ctx)
	for i, kw := range valid {
		g.Go(func() error {
			rows, err := e.store.SearchKeyword(gctx, kw, perKeywordLimit)
			if err != nil {
				return err
			}
			hits[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	groupIndex := make(map[string]*SectionGroup)
	bundle := &ResultBundle{}

	add := func(sec *entity.Section) {
		key := sec.DedupKey()
		if seen[key] {
			return
		}
		seen[key] = true
		grp, ok := groupIndex[sec.DocKey]
		if !ok {
			grp = &SectionGroup{DocKey: sec.DocKey, Label: e.registry.Label(sec.DocKey)}
			groupIndex[sec.DocKey] = grp
			bundle.Groups = append(bundle.Groups, grp)
		}
		grp.Sections = append(grp.Sections, sec)
	}

	for _, sec := range critical {
		add(sec)
	}
	for _, rows := range hits {
		for _, sec := range rows {
			add(sec)
		}
	}

	logger.Debug(ctx, "主路径检索完成",
		"keywords", len(valid),
		"critical", len(critical),
		"groups", len(bundle.Groups),
	)
	return bundle, nil
}
