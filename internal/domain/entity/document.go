// Package entity 定义领域实体
package entity

// Document 参考文档注册项。文档正文不在此保存，
// 索引构建时按需从文档源读取。
type Document struct {
	Key             string
	Title           string
	Path            string
	DefaultPriority int
}

// Registry 参考文档注册表。显式构造后注入索引器与检索器，
// 避免包级可变状态。
type Registry struct {
	docs           []Document
	byKey          map[string]Document
	alwaysOn       []string
	alwaysCritical map[string]bool
}

// NewRegistry 创建文档注册表
func NewRegistry(docs []Document, alwaysOn []string, alwaysCritical []string) *Registry {
	byKey := make(map[string]Document, len(docs))
	for _, d := range docs {
		byKey[d.Key] = d
	}
	critical := make(map[string]bool, len(alwaysCritical))
	for _, k := range alwaysCritical {
		critical[k] = true
	}
	return &Registry{
		docs:           docs,
		byKey:          byKey,
		alwaysOn:       alwaysOn,
		alwaysCritical: critical,
	}
}

// Documents 返回全部注册文档（注册顺序）
func (r *Registry) Documents() []Document {
	return r.docs
}

// Get 按文档键查找注册项
func (r *Registry) Get(key string) (Document, bool) {
	d, ok := r.byKey[key]
	return d, ok
}

// Label 返回文档的人类可读标签，未注册时回退为原始键
func (r *Registry) Label(key string) string {
	if d, ok := r.byKey[key]; ok && d.Title != "" {
		return d.Title
	}
	return key
}

// AlwaysOnKeys 检索时无条件携带核心章节的文档键
func (r *Registry) AlwaysOnKeys() []string {
	return r.alwaysOn
}

// IsAlwaysCritical 该文档的所有章节是否一律视为核心
func (r *Registry) IsAlwaysCritical(key string) bool {
	return r.alwaysCritical[key]
}
