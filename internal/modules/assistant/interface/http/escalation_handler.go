package http

import (
	"CampusAssist/internal/modules/assistant/application/dto/request"
	"CampusAssist/internal/modules/assistant/application/service"
	"CampusAssist/pkg/back"
	"CampusAssist/pkg/xerr"
	"CampusAssist/pkg/zlog"

	"github.com/gin-gonic/gin"
)

// EscalationHandler 人工升级单 HTTP Handler
type EscalationHandler struct {
	svc service.EscalationService
}

func NewEscalationHandler(svc service.EscalationService) *EscalationHandler {
	return &EscalationHandler{svc: svc}
}

// List 按状态筛选升级单
//
// 路由: GET /admin/escalation/list
// 查询参数: status, limit, offset
func (h *EscalationHandler) List(c *gin.Context) {
	limit, offset := parsePageParams(c, 50)

	data, err := h.svc.ListEscalations(c.Request.Context(), c.Query("status"), limit, offset)
	back.Result(c, data, err)
}

// Assign 受理升级单
//
// 路由: POST /admin/escalation/assign
func (h *EscalationHandler) Assign(c *gin.Context) {
	var req request.AssignEscalationRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}

	data, err := h.svc.Assign(c.Request.Context(), req)
	back.Result(c, data, err)
}

// Resolve 标记解决
//
// 路由: POST /admin/escalation/resolve
func (h *EscalationHandler) Resolve(c *gin.Context) {
	var req request.ResolveEscalationRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}

	data, err := h.svc.Resolve(c.Request.Context(), req)
	back.Result(c, data, err)
}

// Close 关闭升级单
//
// 路由: POST /admin/escalation/close
func (h *EscalationHandler) Close(c *gin.Context) {
	var req request.CloseEscalationRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}

	data, err := h.svc.Close(c.Request.Context(), req)
	back.Result(c, data, err)
}
