package kb

import (
	"context"
	"math"
	"path"
	"sort"
	"strings"

	"novel-kb-api/internal/domain/entity"
	"novel-kb-api/pkg/logger"
)

const (
	// 回退检索默认返回条数
	defaultTopK = 5
	// 回退结果正文截断长度（字符数）
	fallbackTextRunes = 800
	// 整句命中与文件名线索命中的加分
	wholePhraseBonus = 5
	headingBonus     = 3
	docNameBonus     = 2
	fileHintBonus    = 3
	// 单个检索词在正文中的计分次数上限
	maxCountPerWord = 5
)

// LocalScanner 本地回退检索：不依赖索引存储，直接读文档原文逐段打分。
// 主路径不可用时保证仍能给出答案，代价是全量扫描。
type LocalScanner struct {
	source   DocumentSource
	registry *entity.Registry
}

// NewLocalScanner 创建本地回退检索器
func NewLocalScanner(source DocumentSource, registry *entity.Registry) *LocalScanner {
	return &LocalScanner{source: source, registry: registry}
}

// Search 对注册表中的全部文档做逐段关键词打分检索。
// 打分全部基于字面子串匹配，检索词中的正则元字符天然无效。
// 单个文档读取失败只跳过该文档；上下文取消时立即终止。
func (s *LocalScanner) Search(ctx context.Context, query string, topK int, category string, fileHints []string) ([]SectionResult, error) {
	if topK <= 0 {
		topK = defaultTopK
	}

	queryLower := strings.ToLower(query)
	words := tokenize(queryLower)
	if len(words) == 0 {
		return nil, nil
	}

	docs := s.orderedDocs(fileHints)
	var results []SectionResult

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		docName := docBaseName(doc.Path)
		docCategory := GuessCategory(docName)
		if category != "" && !strings.Contains(docCategory, category) {
			continue
		}

		text, err := s.source.Read(ctx, doc.Path)
		if err != nil {
			logger.Warn(ctx, "回退检索跳过不可读文档", "doc_key", doc.Key, "error", err.Error())
			continue
		}

		docNameLower := strings.ToLower(docName)
		hinted := matchesHints(docName, fileHints)

		for _, sec := range firstPass(text) {
			textLower := strings.ToLower(sec.content)
			headingLower := strings.ToLower(sec.title)

			score := 0.0
			for _, word := range words {
				if n := strings.Count(textLower, word); n > 0 {
					score += math.Min(float64(n), maxCountPerWord)
				}
				if strings.Contains(headingLower, word) {
					score += headingBonus
				}
				if strings.Contains(docNameLower, word) {
					score += docNameBonus
				}
			}
			if strings.Contains(textLower, queryLower) {
				score += wholePhraseBonus
			}
			if hinted {
				score += fileHintBonus
			}

			if score <= 0 {
				continue
			}
			results = append(results, SectionResult{
				DocKey:   doc.Key,
				DocLabel: s.registry.Label(doc.Key),
				Title:    sec.title,
				Text:     truncateRunes(sec.content, fallbackTextRunes),
				Category: docCategory,
				Score:    math.Round(score*100) / 100,
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// orderedDocs 返回扫描顺序：文件名线索命中的文档排前，其余保持注册顺序
func (s *LocalScanner) orderedDocs(fileHints []string) []entity.Document {
	docs := make([]entity.Document, len(s.registry.Documents()))
	copy(docs, s.registry.Documents())
	if len(fileHints) == 0 {
		return docs
	}
	sort.SliceStable(docs, func(i, j int) bool {
		return matchesHints(docBaseName(docs[i].Path), fileHints) &&
			!matchesHints(docBaseName(docs[j].Path), fileHints)
	})
	return docs
}

// matchesHints 文档名是否命中任一文件名线索
func matchesHints(docName string, fileHints []string) bool {
	for _, h := range fileHints {
		if strings.Contains(docName, h) {
			return true
		}
	}
	return false
}

// docBaseName 从文档路径取文件名（去掉 .md 扩展名）
func docBaseName(p string) string {
	return strings.TrimSuffix(path.Base(p), ".md")
}
