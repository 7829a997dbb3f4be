package persistence

import (
	"context"
	"time"

	"CampusAssist/internal/modules/assistant/domain/entity"
	"CampusAssist/internal/modules/assistant/domain/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type turnRepositoryImpl struct {
	db *gorm.DB
}

func NewTurnRepository(db *gorm.DB) repository.TurnRepository {
	return &turnRepositoryImpl{db: db}
}

// CommitTurn 一轮对话的全部写入放在同一事务：
// 两条消息、会话上下文更新、可选的升级单，要么全提交要么全回滚。
func (r *turnRepositoryImpl) CommitTurn(ctx context.Context, rec *repository.TurnRecord) (bool, error) {
	escalationOpened := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		if rec.UserMessage != nil {
			if rec.UserMessage.CreatedAt.IsZero() {
				rec.UserMessage.CreatedAt = now
			}
			if err := tx.Create(rec.UserMessage).Error; err != nil {
				return err
			}
		}
		if rec.AssistantMessage != nil {
			if rec.AssistantMessage.CreatedAt.IsZero() {
				rec.AssistantMessage.CreatedAt = now
			}
			if err := tx.Create(rec.AssistantMessage).Error; err != nil {
				return err
			}
		}

		err := tx.Model(&entity.Session{}).
			Where("id = ?", rec.Session.Id).
			Updates(map[string]interface{}{
				"context_json": rec.ContextJson,
				"language":     rec.Language,
				"status":       entity.SessionStatusActive,
				"updated_at":   now,
			}).Error
		if err != nil {
			return err
		}

		if rec.EscalationReason != "" {
			esc := entity.Escalation{
				SessionId: rec.Session.SessionId,
				OpenFlag:  &entity.EscalationOpenFlag,
				Reason:    rec.EscalationReason,
				Status:    entity.EscalationStatusPending,
				CreatedAt: now,
				UpdatedAt: now,
			}
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&esc)
			if res.Error != nil {
				return res.Error
			}
			escalationOpened = res.RowsAffected > 0
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return escalationOpened, nil
}
