package kb

import (
	"context"
	"time"

	"novel-kb-api/internal/domain/entity"
)

// SectionStore 定义应用层对“章节索引存储”的最小依赖（port）。
// 由基础设施层提供具体实现（例如 PostgreSQL）。
type SectionStore interface {
	// ReplaceDocument 先删除 docKey 的全部旧章节，再分批写入新章节。
	// 返回成功写入的行数；批量写入中途失败时，已写入的行数与错误一并返回。
	ReplaceDocument(ctx context.Context, docKey string, sections []*entity.Section) (int, error)

	// FindCritical 返回指定文档键下 priority=1 的全部章节。
	FindCritical(ctx context.Context, docKeys []string) ([]*entity.Section, error)

	// SearchKeyword 对章节标题与正文做大小写不敏感的子串匹配。
	SearchKeyword(ctx context.Context, keyword string, limit int) ([]*entity.Section, error)

	// Summary 返回索引现状：总行数、按文档统计、全部章节的标题与优先级。
	Summary(ctx context.Context) (*StoreSummary, error)
}

// StoreSummary 索引存储概览，供运维可视化使用
type StoreSummary struct {
	Total      int            `json:"total_sections"`
	ByDocument map[string]int `json:"by_document"`
	Sections   []SectionInfo  `json:"sections"`
}

// SectionInfo 章节概要
type SectionInfo struct {
	DocKey   string `json:"doc_key"`
	Title    string `json:"title"`
	Priority int    `json:"priority"`
}

// DocumentSource 定义应用层对“文档原文读取”的依赖（port）。
// 路径由文档注册表提供，存储方式（本地文件、对象存储等）由实现决定。
type DocumentSource interface {
	// Read 读取文档原文。文档不存在时返回实现方的 not-found 错误。
	Read(ctx context.Context, path string) (string, error)
}

// ResultCache 检索结果缓存（port）。miss 以非 nil error 表示。
type ResultCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}
