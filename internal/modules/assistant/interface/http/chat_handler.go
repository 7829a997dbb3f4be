package http

import (
	"strconv"
	"strings"

	"CampusAssist/internal/modules/assistant/application/dto/request"
	"CampusAssist/internal/modules/assistant/application/service"
	"CampusAssist/pkg/back"
	"CampusAssist/pkg/xerr"
	"CampusAssist/pkg/zlog"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ChatHandler 对话 HTTP Handler
type ChatHandler struct {
	svc service.ChatService
}

func NewChatHandler(svc service.ChatService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

// Chat 处理一轮对话
//
// 路由: POST /assistant/chat
// 请求体: ChatRequest
// 响应体: ChatRespond
func (h *ChatHandler) Chat(c *gin.Context) {
	var req request.ChatRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}

	data, err := h.svc.HandleMessage(c.Request.Context(), req)
	if err != nil {
		zlog.Error("chat turn failed", zap.Error(err),
			zap.String("platform", req.Platform), zap.String("external_id", req.ExternalId))
	}
	back.Result(c, data, err)
}

// History 分页拉取会话历史
//
// 路由: GET /assistant/history
// 查询参数: session_id, limit, offset
// 响应体: []MessageRespond
func (h *ChatHandler) History(c *gin.Context) {
	sessionId := strings.TrimSpace(c.Query("session_id"))
	if sessionId == "" {
		back.Error(c, xerr.BadRequest, "session_id 不能为空")
		return
	}
	limit, offset := parsePageParams(c, 50)

	data, err := h.svc.GetHistory(c.Request.Context(), sessionId, limit, offset)
	back.Result(c, data, err)
}

// parsePageParams 解析 limit/offset 查询参数，非法值回退默认
func parsePageParams(c *gin.Context, defaultLimit int) (limit, offset int) {
	limit = defaultLimit
	if l, ok := c.GetQuery("limit"); ok {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}
	if o, ok := c.GetQuery("offset"); ok {
		if n, err := strconv.Atoi(o); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
