package http

import (
	"CampusAssist/internal/modules/assistant/application/dto/request"
	"CampusAssist/internal/modules/assistant/application/service"
	"CampusAssist/pkg/back"
	"CampusAssist/pkg/xerr"
	"CampusAssist/pkg/zlog"

	"github.com/gin-gonic/gin"
)

// FAQHandler FAQ 管理 HTTP Handler
type FAQHandler struct {
	svc service.FAQService
}

func NewFAQHandler(svc service.FAQService) *FAQHandler {
	return &FAQHandler{svc: svc}
}

// Create 新建 FAQ
//
// 路由: POST /admin/faq/create
func (h *FAQHandler) Create(c *gin.Context) {
	var req request.CreateFAQRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}

	data, err := h.svc.CreateFAQ(c.Request.Context(), req)
	back.Result(c, data, err)
}

// Update 更新 FAQ
//
// 路由: POST /admin/faq/update
func (h *FAQHandler) Update(c *gin.Context) {
	var req request.UpdateFAQRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}

	data, err := h.svc.UpdateFAQ(c.Request.Context(), req)
	back.Result(c, data, err)
}

// SetStatus 启用/停用 FAQ
//
// 路由: POST /admin/faq/status
func (h *FAQHandler) SetStatus(c *gin.Context) {
	var req request.SetFAQStatusRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}

	err := h.svc.SetStatus(c.Request.Context(), req)
	back.Result(c, nil, err)
}

// List 按分类/语言筛选 FAQ
//
// 路由: GET /admin/faq/list
// 查询参数: category, language, limit, offset
func (h *FAQHandler) List(c *gin.Context) {
	limit, offset := parsePageParams(c, 50)

	data, err := h.svc.ListFAQs(c.Request.Context(), c.Query("category"), c.Query("language"), limit, offset)
	back.Result(c, data, err)
}
