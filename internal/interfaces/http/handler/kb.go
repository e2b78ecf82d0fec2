package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"novel-kb-api/internal/application/kb"
	"novel-kb-api/internal/interfaces/http/dto"
	"novel-kb-api/pkg/errors"
	"novel-kb-api/pkg/logger"
)

// KBHandler 知识库接口处理器
type KBHandler struct {
	indexer *kb.Indexer
	service *kb.Service
	// invalidate 同步后清理检索缓存，可为 nil
	invalidate func(ctx *gin.Context)
}

// NewKBHandler 创建知识库处理器
func NewKBHandler(indexer *kb.Indexer, service *kb.Service, invalidate func(ctx *gin.Context)) *KBHandler {
	return &KBHandler{
		indexer:    indexer,
		service:    service,
		invalidate: invalidate,
	}
}

// Sync 执行索引同步
// @Summary 索引同步
// @Description 读取参考文档并重建章节索引，doc_keys 为空时全量同步
// @Tags KnowledgeBase
// @Accept json
// @Produce json
// @Success 200 {object} dto.Response[dto.SyncResponse]
// @Router /v1/kb/sync [post]
func (h *KBHandler) Sync(c *gin.Context) {
	var req dto.SyncRequest
	// 空请求体等价于全量同步
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			dto.BadRequest(c, "invalid request body: "+err.Error())
			return
		}
	}

	ctx := c.Request.Context()
	var (
		report *kb.SyncReport
		err    error
	)
	if len(req.DocKeys) == 0 {
		report, err = h.indexer.SyncAll(ctx)
	} else {
		report, err = h.indexer.Sync(ctx, req.DocKeys)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	if h.invalidate != nil {
		h.invalidate(c)
	}

	dto.Success(c, dto.NewSyncResponse(report))
}

// Status 查询索引现状
// @Summary 索引状态
// @Description 返回章节总数、按文档统计与全部章节清单
// @Tags KnowledgeBase
// @Produce json
// @Success 200 {object} dto.Response[kb.StoreSummary]
// @Router /v1/kb/status [get]
func (h *KBHandler) Status(c *gin.Context) {
	summary, err := h.indexer.Status(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, summary)
}

// Search 执行检索
// @Summary 知识库检索
// @Description 混合检索，主路径不可用时本地回退，source 字段标识降级
// @Tags KnowledgeBase
// @Accept json
// @Produce json
// @Success 200 {object} dto.Response[dto.SearchResponse]
// @Router /v1/kb/search [post]
func (h *KBHandler) Search(c *gin.Context) {
	var req dto.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Query) == "" && strings.TrimSpace(req.Tag) == "" {
		dto.BadRequest(c, "query or tag is required")
		return
	}

	out, err := h.service.Search(c.Request.Context(), kb.SearchInput{
		Query:    req.Query,
		Tag:      req.Tag,
		TopK:     req.TopK,
		Category: req.Category,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, dto.NewSearchResponse(out))
}

// respondError 统一错误响应：AppError 按自身映射，其余一律 500
func respondError(c *gin.Context, err error) {
	logger.Error(c.Request.Context(), "请求处理失败", err, "path", c.FullPath())
	appErr := errors.AsAppError(err)
	dto.ErrorWithDetail(c, appErr.HTTPStatus, appErr.Message, &dto.ErrorDetail{
		ErrorCode: string(appErr.Code),
		Details:   appErr.Detail,
	})
}
