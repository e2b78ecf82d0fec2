package dto

import "novel-kb-api/internal/application/kb"

// SyncRequest 索引同步请求。DocKeys 为空时同步注册表全部文档。
type SyncRequest struct {
	DocKeys []string `json:"doc_keys"`
}

// SyncResponse 索引同步响应
type SyncResponse struct {
	TotalSections int            `json:"total_sections"`
	Details       []kb.DocReport `json:"details"`
	Failed        []string       `json:"failed,omitempty"`
}

// SearchRequest 检索请求。query 与 tag 二选一，tag 优先。
type SearchRequest struct {
	Query    string `json:"query"`
	Tag      string `json:"tag"`
	TopK     int    `json:"top_k" binding:"omitempty,min=1,max=50"`
	Category string `json:"category"`
}

// SearchResponse 检索响应。Source 标识主路径或本地回退。
type SearchResponse struct {
	Source  string             `json:"source"`
	Count   int                `json:"count"`
	Results []kb.SectionResult `json:"results"`
	Context string             `json:"context,omitempty"`
}

// NewSyncResponse 由同步报告组装响应
func NewSyncResponse(report *kb.SyncReport) SyncResponse {
	return SyncResponse{
		TotalSections: report.Total,
		Details:       report.Docs,
		Failed:        report.Failed(),
	}
}

// NewSearchResponse 由检索输出组装响应
func NewSearchResponse(out *kb.SearchOutput) SearchResponse {
	return SearchResponse{
		Source:  out.Source,
		Count:   out.Count(),
		Results: out.Results,
		Context: out.Context,
	}
}
