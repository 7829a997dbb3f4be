package repository

import (
	"context"
	"time"

	"CampusAssist/internal/modules/assistant/domain/entity"
)

// SessionRepository 会话仓储接口
type SessionRepository interface {
	// CreateSession 创建新会话
	CreateSession(ctx context.Context, session *entity.Session) error

	// GetBySessionID 根据对外 session_id 获取会话
	GetBySessionID(ctx context.Context, sessionId string) (*entity.Session, error)

	// GetByOrigin 根据 platform + external_id 获取会话（找不到返回 nil, nil）
	GetByOrigin(ctx context.Context, platform, externalId string) (*entity.Session, error)

	// DeactivateIdleBefore 把 updated_at 早于 cutoff 的活跃会话置为 inactive，返回影响行数
	DeactivateIdleBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// MessageRepository 消息仓储接口
type MessageRepository interface {
	// ListRecentMessages 获取会话最近N条消息（倒序取出后反转为正序，用于构建上下文窗口）
	ListRecentMessages(ctx context.Context, sessionId string, limit int) ([]*entity.Message, error)

	// ListMessages 按时间正序分页
	ListMessages(ctx context.Context, sessionId string, limit, offset int) ([]*entity.Message, error)

	// GetByID 按主键获取消息（找不到返回 nil, nil）
	GetByID(ctx context.Context, id int64) (*entity.Message, error)

	// ListByCreatedRange 取 [from, to) 区间内全部消息（按日聚合用）
	ListByCreatedRange(ctx context.Context, from, to time.Time) ([]*entity.Message, error)
}

// TurnRecord 一轮完整对话的落库内容（用户消息、助手消息、上下文更新、可选升级单）
type TurnRecord struct {
	Session          *entity.Session
	ContextJson      string
	Language         string
	UserMessage      *entity.Message
	AssistantMessage *entity.Message
	// EscalationReason 非空时在同一事务里开启/复用升级单
	EscalationReason string
}

// TurnRepository 整轮对话的事务性写入。
// 要么整轮全部提交（两条消息 + 会话更新 + 升级单），要么全部回滚。
type TurnRepository interface {
	CommitTurn(ctx context.Context, rec *TurnRecord) (escalationOpened bool, err error)
}
