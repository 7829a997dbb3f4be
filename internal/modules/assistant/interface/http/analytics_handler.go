package http

import (
	"time"

	"CampusAssist/internal/modules/assistant/application/dto/request"
	"CampusAssist/internal/modules/assistant/application/service"
	"CampusAssist/pkg/back"
	"CampusAssist/pkg/xerr"
	"CampusAssist/pkg/zlog"

	"github.com/gin-gonic/gin"
)

// AnalyticsHandler 日报表 HTTP Handler
type AnalyticsHandler struct {
	svc service.AnalyticsService
}

func NewAnalyticsHandler(svc service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{svc: svc}
}

// Rollup 手动触发某天的报表聚合（定时任务之外的补跑入口）
//
// 路由: POST /admin/analytics/rollup
func (h *AnalyticsHandler) Rollup(c *gin.Context) {
	var req request.RollupRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}

	date, ok := parseReportDate(req.Date)
	if !ok {
		back.Error(c, xerr.BadRequest, "date 格式应为 2006-01-02")
		return
	}

	data, err := h.svc.DailyRollup(c.Request.Context(), date)
	back.Result(c, data, err)
}

// Report 读取某天的日报表
//
// 路由: GET /admin/analytics/report
// 查询参数: date（格式 2006-01-02，空为昨天）
func (h *AnalyticsHandler) Report(c *gin.Context) {
	date, ok := parseReportDate(c.Query("date"))
	if !ok {
		back.Error(c, xerr.BadRequest, "date 格式应为 2006-01-02")
		return
	}

	data, err := h.svc.GetReport(c.Request.Context(), date)
	back.Result(c, data, err)
}

// parseReportDate 空值取昨天
func parseReportDate(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Now().AddDate(0, 0, -1), true
	}
	d, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}
