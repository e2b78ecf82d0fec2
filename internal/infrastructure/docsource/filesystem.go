// Package docsource 提供参考文档原文的读取实现
package docsource

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("docsource")

// Filesystem 本地文件系统文档源。
// 注册表中的文档路径均相对根目录解析，越出根目录的路径一律拒绝。
type Filesystem struct {
	root string
}

// NewFilesystem 创建文件系统文档源
func NewFilesystem(root string) *Filesystem {
	return &Filesystem{root: root}
}

// Read 读取文档原文
func (f *Filesystem) Read(ctx context.Context, relPath string) (string, error) {
	_, span := tracer.Start(ctx, "docsource.Read",
		trace.WithAttributes(attribute.String("doc.path", relPath)))
	defer span.End()

	full, err := f.resolve(relPath)
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	data, err := os.ReadFile(full)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("read document %s: %w", relPath, err)
	}
	return string(data), nil
}

// resolve 把相对路径解析到根目录内
func (f *Filesystem) resolve(relPath string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(relPath))
	if filepath.IsAbs(cleaned) || strings.HasPrefix(cleaned, "..") {
		return "", fmt.Errorf("document path escapes root: %s", relPath)
	}
	return filepath.Join(f.root, cleaned), nil
}
