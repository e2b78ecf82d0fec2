package kb

import (
	"context"
	"time"

	"novel-kb-api/internal/domain/entity"
	"novel-kb-api/pkg/errors"
	"novel-kb-api/pkg/logger"
	"novel-kb-api/pkg/metrics"
)

// Indexer 索引同步器：读取文档原文 → 切分章节 → 整册替换写入。
type Indexer struct {
	source      DocumentSource
	store       SectionStore
	sectionizer *Sectionizer
	registry    *entity.Registry
}

// NewIndexer 创建索引同步器
func NewIndexer(source DocumentSource, store SectionStore, sectionizer *Sectionizer, registry *entity.Registry) *Indexer {
	return &Indexer{
		source:      source,
		store:       store,
		sectionizer: sectionizer,
		registry:    registry,
	}
}

// SyncAll 同步注册表中的全部文档
func (ix *Indexer) SyncAll(ctx context.Context) (*SyncReport, error) {
	return ix.sync(ctx, ix.registry.Documents())
}

// Sync 同步指定文档。任一键未注册时整体拒绝，不做部分同步。
func (ix *Indexer) Sync(ctx context.Context, docKeys []string) (*SyncReport, error) {
	docs := make([]entity.Document, 0, len(docKeys))
	for _, key := range docKeys {
		doc, ok := ix.registry.Get(key)
		if !ok {
			return nil, errors.New(errors.CodeUnknownDocument, "unknown document key").WithDetail(key)
		}
		docs = append(docs, doc)
	}
	return ix.sync(ctx, docs)
}

// sync 逐个文档执行同步。单个文档失败只记入该文档的报告项，
// 不中断整轮；上下文取消是唯一的整体终止条件。
func (ix *Indexer) sync(ctx context.Context, docs []entity.Document) (*SyncReport, error) {
	report := &SyncReport{Docs: make([]DocReport, 0, len(docs))}

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		inserted, err := ix.syncOne(ctx, doc)
		entry := DocReport{Key: doc.Key, Sections: inserted}
		if err != nil {
			entry.Err = err.Error()
			metrics.SyncDocumentsTotal.WithLabelValues("error").Inc()
			logger.Error(ctx, "文档同步失败", err, "doc_key", doc.Key, "inserted", inserted)
		} else {
			metrics.SyncDocumentsTotal.WithLabelValues("ok").Inc()
		}
		metrics.SyncSectionsTotal.Add(float64(inserted))
		report.Docs = append(report.Docs, entry)
		report.Total += inserted
	}

	logger.Info(ctx, "索引同步完成",
		"documents", len(docs),
		"sections", report.Total,
		"failed", len(report.Failed()),
	)
	return report, nil
}

// Status 返回索引现状概览
func (ix *Indexer) Status(ctx context.Context) (*StoreSummary, error) {
	summary, err := ix.store.Summary(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "index summary failed")
	}
	return summary, nil
}

// syncOne 同步单个文档，返回成功写入的章节数
func (ix *Indexer) syncOne(ctx context.Context, doc entity.Document) (int, error) {
	start := time.Now()
	defer func() {
		metrics.SyncDuration.WithLabelValues(doc.Key).Observe(time.Since(start).Seconds())
	}()

	text, err := ix.source.Read(ctx, doc.Path)
	if err != nil {
		return 0, errors.Wrap(err, errors.CodeSourceUnavailable, "document source unavailable").WithDetail(doc.Path)
	}

	sections := ix.sectionizer.Sectionize(text, doc.Key, doc.DefaultPriority)
	inserted, err := ix.store.ReplaceDocument(ctx, doc.Key, sections)
	if err != nil {
		return inserted, errors.Wrap(err, errors.CodeWriteFailed, "index write failed").WithDetail(doc.Key)
	}

	logger.Debug(ctx, "文档同步完成", "doc_key", doc.Key, "sections", inserted)
	return inserted, nil
}
