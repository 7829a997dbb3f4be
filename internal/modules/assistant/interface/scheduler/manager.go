package scheduler

import (
	"context"
	"time"

	"CampusAssist/internal/config"
	"CampusAssist/internal/modules/assistant/application/service"
	"CampusAssist/internal/modules/assistant/domain/repository"
	"CampusAssist/pkg/zlog"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// SchedulerManager 定时任务调度器。
// 两个固定任务：每日报表聚合、超时会话清理。
type SchedulerManager struct {
	cron         *cron.Cron
	analyticsSvc service.AnalyticsService
	sessionRepo  repository.SessionRepository
	conf         config.AssistantConfig
}

func NewSchedulerManager(
	analyticsSvc service.AnalyticsService,
	sessionRepo repository.SessionRepository,
	conf config.AssistantConfig,
) *SchedulerManager {
	return &SchedulerManager{
		// 使用标准5段Cron表达式（不含秒）
		cron:         cron.New(),
		analyticsSvc: analyticsSvc,
		sessionRepo:  sessionRepo,
		conf:         conf,
	}
}

func (m *SchedulerManager) Start() error {
	if _, err := m.cron.AddFunc(m.conf.RollupCronSpec, m.runDailyRollup); err != nil {
		return err
	}
	if _, err := m.cron.AddFunc(m.conf.SessionSweepCronSpec, m.runSessionSweep); err != nil {
		return err
	}
	m.cron.Start()
	zlog.Info("scheduler started",
		zap.String("rollup_spec", m.conf.RollupCronSpec),
		zap.String("sweep_spec", m.conf.SessionSweepCronSpec))
	return nil
}

func (m *SchedulerManager) Stop() {
	// Stop 返回的 ctx 等待执行中的任务收尾
	<-m.cron.Stop().Done()
}

// runDailyRollup 聚合昨天的对话数据。聚合幂等，失败后下个周期或手动补跑即可。
func (m *SchedulerManager) runDailyRollup() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	yesterday := time.Now().AddDate(0, 0, -1)
	if _, err := m.analyticsSvc.DailyRollup(ctx, yesterday); err != nil {
		zlog.Error("scheduled rollup failed",
			zap.String("date", yesterday.Format("2006-01-02")), zap.Error(err))
	}
}

// runSessionSweep 把空闲超时的活跃会话置为 inactive
func (m *SchedulerManager) runSessionSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := time.Now().Add(-time.Duration(m.conf.SessionTimeoutHours) * time.Hour)
	n, err := m.sessionRepo.DeactivateIdleBefore(ctx, cutoff)
	if err != nil {
		zlog.Error("session sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		zlog.Info("idle sessions deactivated", zap.Int64("count", n))
	}
}
