package kb

import "strings"

// 检索路径标识
const (
	SourcePrimary  = "primary"
	SourceFallback = "fallback"
)

// SearchInput 检索输入。Query 与 Tag 互斥，Tag 优先。
type SearchInput struct {
	Query    string
	Tag      string
	TopK     int
	Category string
}

// SectionResult 单条检索结果
type SectionResult struct {
	DocKey   string  `json:"doc_key"`
	DocLabel string  `json:"doc_label"`
	Title    string  `json:"title"`
	Text     string  `json:"text"`
	Priority int     `json:"priority,omitempty"`
	Category string  `json:"category,omitempty"`
	Score    float64 `json:"score,omitempty"`
}

// SearchOutput 检索输出。Source 标识由哪条路径产出，
// 调用方据此识别降级应答。
type SearchOutput struct {
	Source  string          `json:"source"`
	Results []SectionResult `json:"results"`
	Context string          `json:"context"`
}

// Count 结果条数
func (o *SearchOutput) Count() int {
	if o == nil {
		return 0
	}
	return len(o.Results)
}

// DocReport 单个文档的同步结果
type DocReport struct {
	Key      string `json:"doc"`
	Sections int    `json:"sections"`
	Err      string `json:"error,omitempty"`
}

// OK 该文档是否同步成功
func (r DocReport) OK() bool {
	return r.Err == ""
}

// SyncReport 一次索引同步的汇总结果。
// 部分失败是正常结果而非致命错误：失败文档逐条记录，
// 运维可据此只重跑失败的文档。
type SyncReport struct {
	Total int         `json:"total_sections"`
	Docs  []DocReport `json:"details"`
}

// Failed 返回同步失败的文档键
func (r *SyncReport) Failed() []string {
	var keys []string
	for _, d := range r.Docs {
		if !d.OK() {
			keys = append(keys, d.Key)
		}
	}
	return keys
}

// tokenize 将查询串按空白与逗号切分为检索词
func tokenize(query string) []string {
	return strings.FieldsFunc(query, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == ','
	})
}
