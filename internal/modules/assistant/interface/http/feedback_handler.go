package http

import (
	"CampusAssist/internal/modules/assistant/application/dto/request"
	"CampusAssist/internal/modules/assistant/application/service"
	"CampusAssist/pkg/back"
	"CampusAssist/pkg/xerr"
	"CampusAssist/pkg/zlog"

	"github.com/gin-gonic/gin"
)

// FeedbackHandler 消息评价 HTTP Handler
type FeedbackHandler struct {
	svc service.FeedbackService
}

func NewFeedbackHandler(svc service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{svc: svc}
}

// Create 对一条助手回复打分
//
// 路由: POST /assistant/feedback
func (h *FeedbackHandler) Create(c *gin.Context) {
	var req request.CreateFeedbackRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}

	err := h.svc.CreateFeedback(c.Request.Context(), req)
	back.Result(c, nil, err)
}
