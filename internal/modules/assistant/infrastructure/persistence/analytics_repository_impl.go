package persistence

import (
	"context"
	"errors"
	"time"

	"CampusAssist/internal/modules/assistant/domain/entity"
	"CampusAssist/internal/modules/assistant/domain/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type conversationLogRepositoryImpl struct {
	db *gorm.DB
}

func NewConversationLogRepository(db *gorm.DB) repository.ConversationLogRepository {
	return &conversationLogRepositoryImpl{db: db}
}

// UpsertByDate 重跑同一天时整行覆盖而不是累加，保证聚合任务幂等
func (r *conversationLogRepositoryImpl) UpsertByDate(ctx context.Context, logRow *entity.ConversationLog) error {
	now := time.Now()
	if logRow.CreatedAt.IsZero() {
		logRow.CreatedAt = now
	}
	logRow.UpdatedAt = now
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"total_conversations", "total_messages", "escalation_count",
				"avg_confidence", "languages_json", "intents_json",
				"top_queries_json", "updated_at",
			}),
		}).
		Create(logRow).Error
}

func (r *conversationLogRepositoryImpl) GetByDate(ctx context.Context, date time.Time) (*entity.ConversationLog, error) {
	var row entity.ConversationLog
	err := r.db.WithContext(ctx).
		Where("date = ?", date.Format("2006-01-02")).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

type feedbackRepositoryImpl struct {
	db *gorm.DB
}

func NewFeedbackRepository(db *gorm.DB) repository.FeedbackRepository {
	return &feedbackRepositoryImpl{db: db}
}

func (r *feedbackRepositoryImpl) CreateFeedback(ctx context.Context, fb *entity.Feedback) error {
	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(fb).Error
}

func (r *feedbackRepositoryImpl) ListByMessage(ctx context.Context, messageId int64) ([]*entity.Feedback, error) {
	var fbs []*entity.Feedback
	err := r.db.WithContext(ctx).
		Where("message_id = ?", messageId).
		Order("id ASC").
		Find(&fbs).Error
	if err != nil {
		return nil, err
	}
	return fbs, nil
}
