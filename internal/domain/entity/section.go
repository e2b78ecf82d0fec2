// Package entity 定义领域实体
package entity

import (
	"strings"
	"time"

	"github.com/lib/pq"
)

// 章节优先级，数值越小越重要
const (
	PriorityCritical = 1
	PriorityNormal   = 2
)

// PreambleTitle 首个标题之前内容的占位标题
const PreambleTitle = "(서두)"

// Section 参考文档章节，索引与检索的最小单位
type Section struct {
	ID        uint           `json:"-" gorm:"primaryKey;autoIncrement"`
	DocKey    string         `json:"doc_key" gorm:"column:doc_key;type:varchar(64);index;not null"`
	Title     string         `json:"section_title" gorm:"column:section_title;type:varchar(512);not null"`
	Content   string         `json:"content" gorm:"type:text;not null"`
	Keywords  pq.StringArray `json:"keywords" gorm:"type:text[]"`
	Priority  int            `json:"priority" gorm:"not null;default:2;index"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Section) TableName() string {
	return "reference_doc_sections"
}

// IsCritical 是否为核心章节
func (s *Section) IsCritical() bool {
	return s.Priority == PriorityCritical
}

// DedupKey 去重键：同一文档内以标题区分章节
func (s *Section) DedupKey() string {
	return s.DocKey + "\x00" + s.Title
}

// LineCount 正文行数
func (s *Section) LineCount() int {
	if s.Content == "" {
		return 0
	}
	return strings.Count(s.Content, "\n") + 1
}
