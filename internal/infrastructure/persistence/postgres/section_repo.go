package postgres

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"novel-kb-api/internal/application/kb"
	"novel-kb-api/internal/domain/entity"
)

// SectionRepository 章节索引存储的 PostgreSQL 实现
type SectionRepository struct {
	client    *Client
	batchSize int
}

// NewSectionRepository 创建章节索引存储
func NewSectionRepository(client *Client, batchSize int) *SectionRepository {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &SectionRepository{client: client, batchSize: batchSize}
}

// ReplaceDocument 整册替换：先删除该文档的全部旧章节，再分批写入。
// 删除与写入之间存在短暂的不一致窗口，检索端按缺失章节降级处理。
// 某一批写入失败时停止后续批次，返回已写入行数与错误。
func (r *SectionRepository) ReplaceDocument(ctx context.Context, docKey string, sections []*entity.Section) (int, error) {
	ctx, span := tracer.Start(ctx, "section_repo.ReplaceDocument",
		trace.WithAttributes(
			attribute.String("doc.key", docKey),
			attribute.Int("doc.sections", len(sections)),
		))
	defer span.End()

	db := r.client.db.WithContext(ctx)

	if err := db.Where("doc_key = ?", docKey).Delete(&entity.Section{}).Error; err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("delete sections of %s: %w", docKey, err)
	}

	inserted := 0
	for i := 0; i < len(sections); i += r.batchSize {
		end := i + r.batchSize
		if end > len(sections) {
			end = len(sections)
		}
		batch := sections[i:end]
		if err := db.Create(batch).Error; err != nil {
			span.RecordError(err)
			return inserted, fmt.Errorf("insert sections of %s: %w", docKey, err)
		}
		inserted += len(batch)
	}

	span.SetAttributes(attribute.Int("doc.inserted", inserted))
	return inserted, nil
}

// FindCritical 返回指定文档键下的全部核心章节
func (r *SectionRepository) FindCritical(ctx context.Context, docKeys []string) ([]*entity.Section, error) {
	ctx, span := tracer.Start(ctx, "section_repo.FindCritical",
		trace.WithAttributes(attribute.Int("doc.keys", len(docKeys))))
	defer span.End()

	if len(docKeys) == 0 {
		return nil, nil
	}

	var sections []*entity.Section
	err := r.client.db.WithContext(ctx).
		Where("priority = ? AND doc_key IN ?", entity.PriorityCritical, docKeys).
		Order("id").
		Find(&sections).Error
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("find critical sections: %w", err)
	}
	return sections, nil
}

// SearchKeyword 标题或正文的大小写不敏感子串匹配
func (r *SectionRepository) SearchKeyword(ctx context.Context, keyword string, limit int) ([]*entity.Section, error) {
	ctx, span := tracer.Start(ctx, "section_repo.SearchKeyword",
		trace.WithAttributes(attribute.String("search.keyword", keyword)))
	defer span.End()

	pattern := "%" + escapeLike(keyword) + "%"

	var sections []*entity.Section
	err := r.client.db.WithContext(ctx).
		Where("section_title ILIKE ? OR content ILIKE ?", pattern, pattern).
		Order("id").
		Limit(limit).
		Find(&sections).Error
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("search keyword %q: %w", keyword, err)
	}
	return sections, nil
}

// Summary 返回索引概览：总行数、按文档统计、全部章节的标题与优先级
func (r *SectionRepository) Summary(ctx context.Context) (*kb.StoreSummary, error) {
	ctx, span := tracer.Start(ctx, "section_repo.Summary")
	defer span.End()

	var rows []entity.Section
	err := r.client.db.WithContext(ctx).
		Select("doc_key", "section_title", "priority").
		Order("id").
		Find(&rows).Error
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("load index summary: %w", err)
	}

	summary := &kb.StoreSummary{
		Total:      len(rows),
		ByDocument: make(map[string]int),
		Sections:   make([]kb.SectionInfo, 0, len(rows)),
	}
	for _, row := range rows {
		summary.ByDocument[row.DocKey]++
		summary.Sections = append(summary.Sections, kb.SectionInfo{
			DocKey:   row.DocKey,
			Title:    row.Title,
			Priority: row.Priority,
		})
	}
	return summary, nil
}

// escapeLike 转义 LIKE 模式中的通配字符
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
