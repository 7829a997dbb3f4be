package repository

import (
	"context"
	"time"

	"CampusAssist/internal/modules/assistant/domain/entity"
)

// EscalationRepository 升级单仓储接口。
// "一个会话至多一条开启中的升级单"由 (session_id, open_flag) 唯一索引保证，
// 开启动作必须走 EnsureOpenEscalation 的 upsert，而不是应用层先查后写。
type EscalationRepository interface {
	// EnsureOpenEscalation 开启或复用会话的升级单（pending），返回是否新建
	EnsureOpenEscalation(ctx context.Context, sessionId, reason string) (created bool, err error)

	// GetOpenBySession 获取会话当前开启中的升级单（无则 nil, nil）
	GetOpenBySession(ctx context.Context, sessionId string) (*entity.Escalation, error)

	// GetByID 按主键获取（找不到返回 nil, nil）
	GetByID(ctx context.Context, id int64) (*entity.Escalation, error)

	// ListByStatus 按状态分页（status 为空表示全部）
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]*entity.Escalation, error)

	// UpdateEscalation 人工流转后的整体更新（状态、受理人、处理记录、open_flag）
	UpdateEscalation(ctx context.Context, esc *entity.Escalation) error

	// CountByCreatedRange 统计 [from, to) 区间内新建的升级单数
	CountByCreatedRange(ctx context.Context, from, to time.Time) (int64, error)
}
