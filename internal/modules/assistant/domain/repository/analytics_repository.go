package repository

import (
	"context"
	"time"

	"CampusAssist/internal/modules/assistant/domain/entity"
)

// ConversationLogRepository 日报表仓储接口
type ConversationLogRepository interface {
	// UpsertByDate 按 date 幂等写入（重跑覆盖，不累加）
	UpsertByDate(ctx context.Context, logRow *entity.ConversationLog) error

	// GetByDate 获取指定日期的报表（找不到返回 nil, nil）
	GetByDate(ctx context.Context, date time.Time) (*entity.ConversationLog, error)
}

// FeedbackRepository 消息评价仓储接口
type FeedbackRepository interface {
	// CreateFeedback 追加一条评价
	CreateFeedback(ctx context.Context, fb *entity.Feedback) error

	// ListByMessage 获取消息的全部评价
	ListByMessage(ctx context.Context, messageId int64) ([]*entity.Feedback, error)
}
