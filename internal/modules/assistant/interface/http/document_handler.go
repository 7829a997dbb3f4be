package http

import (
	"strings"

	"CampusAssist/internal/modules/assistant/application/dto/request"
	"CampusAssist/internal/modules/assistant/application/service"
	"CampusAssist/pkg/back"
	"CampusAssist/pkg/xerr"
	"CampusAssist/pkg/zlog"

	"github.com/gin-gonic/gin"
)

// DocumentHandler 知识库文档 HTTP Handler
type DocumentHandler struct {
	svc service.DocumentService
}

func NewDocumentHandler(svc service.DocumentService) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

// Create 登记文档元数据
//
// 路由: POST /admin/document/create
func (h *DocumentHandler) Create(c *gin.Context) {
	var req request.CreateDocumentRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}

	data, err := h.svc.CreateDocument(c.Request.Context(), req)
	back.Result(c, data, err)
}

// List 文档列表
//
// 路由: GET /admin/document/list
// 查询参数: limit, offset
func (h *DocumentHandler) List(c *gin.Context) {
	limit, offset := parsePageParams(c, 50)

	data, err := h.svc.ListDocuments(c.Request.Context(), limit, offset)
	back.Result(c, data, err)
}

// Ingest 写入文档切块并触发重建索引
//
// 路由: POST /admin/document/ingest
func (h *DocumentHandler) Ingest(c *gin.Context) {
	var req request.IngestChunksRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}

	data, err := h.svc.IngestChunks(c.Request.Context(), req)
	back.Result(c, data, err)
}

// Reindex 重新发布重建索引事件（切块不变）
//
// 路由: POST /admin/document/reindex
// 查询参数: document_id
func (h *DocumentHandler) Reindex(c *gin.Context) {
	documentId := strings.TrimSpace(c.Query("document_id"))
	if documentId == "" {
		back.Error(c, xerr.BadRequest, "document_id 不能为空")
		return
	}

	err := h.svc.RequestReindex(c.Request.Context(), documentId)
	back.Result(c, nil, err)
}
