package kb

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"novel-kb-api/pkg/errors"
	"novel-kb-api/pkg/logger"
	"novel-kb-api/pkg/metrics"
)

// 主路径默认超时
const defaultPrimaryTimeout = 3 * time.Second

// Service 检索服务：标签解析 → 缓存 → 主路径（索引存储）→ 本地回退。
// 主路径超时或失败时切换回退检索，降级结果通过 Source 字段显式暴露。
type Service struct {
	engine  *Engine
	scanner *LocalScanner
	cache   ResultCache

	primaryTimeout time.Duration
	cacheTTL       time.Duration

	sf singleflight.Group
}

// NewService 创建检索服务。cache 可为 nil（不缓存）。
func NewService(engine *Engine, scanner *LocalScanner, cache ResultCache, primaryTimeout, cacheTTL time.Duration) *Service {
	if primaryTimeout <= 0 {
		primaryTimeout = defaultPrimaryTimeout
	}
	return &Service{
		engine:         engine,
		scanner:        scanner,
		cache:          cache,
		primaryTimeout: primaryTimeout,
		cacheTTL:       cacheTTL,
	}
}

// Search 执行一次检索。
// Tag 非空时展开为检索词与文件名线索；空检索词不算错误：
// 主路径返回仅含核心章节的结果，回退路径返回空列表。
// 同键并发请求合并为一次计算（singleflight）。
func (s *Service) Search(ctx context.Context, in SearchInput) (*SearchOutput, error) {
	query := in.Query
	var fileHints []string
	if in.Tag != "" {
		query, fileHints = ResolveTag(in.Tag)
	}

	key := cacheKey(query, in.Tag, in.TopK, in.Category)
	if out := s.fromCache(ctx, key); out != nil {
		return out, nil
	}

	v, err, _ := s.sf.Do(key, func() (interface{}, error) {
		return s.search(ctx, query, in.TopK, in.Category, fileHints)
	})
	if err != nil {
		return nil, err
	}
	out := v.(*SearchOutput)

	s.toCache(ctx, key, out)
	return out, nil
}

// search 主路径优先，失败或超时转回退
func (s *Service) search(ctx context.Context, query string, topK int, category string, fileHints []string) (*SearchOutput, error) {
	start := time.Now()

	out, primaryErr := s.primary(ctx, query)
	if primaryErr == nil {
		metrics.SearchTotal.WithLabelValues(SourcePrimary, "ok").Inc()
		metrics.SearchDuration.WithLabelValues(SourcePrimary).Observe(time.Since(start).Seconds())
		metrics.SearchSections.Observe(float64(out.Count()))
		return out, nil
	}

	metrics.SearchTotal.WithLabelValues(SourcePrimary, "error").Inc()
	metrics.FallbackTotal.Inc()
	logger.Warn(ctx, "主路径检索失败，切换本地回退", "error", primaryErr.Error())

	out, err := s.fallback(ctx, query, topK, category, fileHints)
	if err != nil {
		metrics.SearchTotal.WithLabelValues(SourceFallback, "error").Inc()
		return nil, errors.Wrap(err, errors.CodeFallbackFailed, "fallback search failed")
	}
	metrics.SearchTotal.WithLabelValues(SourceFallback, "ok").Inc()
	metrics.SearchDuration.WithLabelValues(SourceFallback).Observe(time.Since(start).Seconds())
	metrics.SearchSections.Observe(float64(out.Count()))
	return out, nil
}

// primary 主路径：索引存储混合检索，受超时约束。
// 超时后结果随上下文取消一并丢弃，不会迟到合并。
func (s *Service) primary(ctx context.Context, query string) (*SearchOutput, error) {
	pctx, cancel := context.WithTimeout(ctx, s.primaryTimeout)
	defer cancel()

	bundle, err := s.engine.Retrieve(pctx, tokenize(query))
	if err != nil {
		return nil, err
	}

	sections := bundle.Sections()
	results := make([]SectionResult, 0, len(sections))
	for _, sec := range sections {
		results = append(results, SectionResult{
			DocKey:   sec.DocKey,
			DocLabel: s.engine.registry.Label(sec.DocKey),
			Title:    sec.Title,
			Text:     sec.Content,
			Priority: sec.Priority,
		})
	}
	return &SearchOutput{
		Source:  SourcePrimary,
		Results: results,
		Context: bundle.Format(),
	}, nil
}

// fallback 本地回退：直接扫描文档原文打分
func (s *Service) fallback(ctx context.Context, query string, topK int, category string, fileHints []string) (*SearchOutput, error) {
	results, err := s.scanner.Search(ctx, query, topK, category, fileHints)
	if err != nil {
		return nil, err
	}

	rendered := make([]string, 0, len(results))
	for _, r := range results {
		rendered = append(rendered, "### "+r.Title+"\n"+r.Text)
	}
	return &SearchOutput{
		Source:  SourceFallback,
		Results: results,
		Context: strings.Join(rendered, sectionDivider),
	}, nil
}

// fromCache 读缓存，miss 或缓存不可用时返回 nil
func (s *Service) fromCache(ctx context.Context, key string) *SearchOutput {
	if s.cache == nil || s.cacheTTL <= 0 {
		return nil
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		metrics.CacheHitsTotal.WithLabelValues("miss").Inc()
		return nil
	}
	var out SearchOutput
	if err := json.Unmarshal(data, &out); err != nil {
		metrics.CacheHitsTotal.WithLabelValues("miss").Inc()
		return nil
	}
	metrics.CacheHitsTotal.WithLabelValues("hit").Inc()
	return &out
}

// toCache 写缓存。缓存失败只记日志，不影响检索结果
func (s *Service) toCache(ctx context.Context, key string, out *SearchOutput) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	if err := s.cache.Set(ctx, key, out, s.cacheTTL); err != nil {
		logger.Warn(ctx, "检索结果写缓存失败", "error", err.Error())
	}
}

// cacheKey 检索参数的缓存键
func cacheKey(query, tag string, topK int, category string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s\x00%s\x00%d\x00%s", query, tag, topK, category)))
	return "kb:search:" + hex.EncodeToString(sum[:16])
}
