package persistence

import (
	"context"
	"errors"
	"time"

	"CampusAssist/internal/modules/assistant/domain/entity"
	"CampusAssist/internal/modules/assistant/domain/repository"

	"gorm.io/gorm"
)

type sessionRepositoryImpl struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) repository.SessionRepository {
	return &sessionRepositoryImpl{db: db}
}

func (r *sessionRepositoryImpl) CreateSession(ctx context.Context, session *entity.Session) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *sessionRepositoryImpl) GetBySessionID(ctx context.Context, sessionId string) (*entity.Session, error) {
	var sess entity.Session
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionId).First(&sess).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sess, nil
}

func (r *sessionRepositoryImpl) GetByOrigin(ctx context.Context, platform, externalId string) (*entity.Session, error) {
	var sess entity.Session
	err := r.db.WithContext(ctx).
		Where("platform = ? AND external_id = ?", platform, externalId).
		First(&sess).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sess, nil
}

func (r *sessionRepositoryImpl) DeactivateIdleBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&entity.Session{}).
		Where("status = ? AND updated_at < ?", entity.SessionStatusActive, cutoff).
		Updates(map[string]interface{}{
			"status":     entity.SessionStatusInactive,
			"updated_at": time.Now(),
		})
	return res.RowsAffected, res.Error
}

type messageRepositoryImpl struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) repository.MessageRepository {
	return &messageRepositoryImpl{db: db}
}

// ListRecentMessages 倒序取最近 limit 条再反转为正序
func (r *messageRepositoryImpl) ListRecentMessages(ctx context.Context, sessionId string, limit int) ([]*entity.Message, error) {
	var msgs []*entity.Message
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionId).
		Order("id DESC").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (r *messageRepositoryImpl) ListMessages(ctx context.Context, sessionId string, limit, offset int) ([]*entity.Message, error) {
	var msgs []*entity.Message
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionId).
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *messageRepositoryImpl) GetByID(ctx context.Context, id int64) (*entity.Message, error) {
	var msg entity.Message
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&msg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}

func (r *messageRepositoryImpl) ListByCreatedRange(ctx context.Context, from, to time.Time) ([]*entity.Message, error) {
	var msgs []*entity.Message
	err := r.db.WithContext(ctx).
		Where("created_at >= ? AND created_at < ?", from, to).
		Order("id ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}
