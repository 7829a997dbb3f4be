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

type escalationRepositoryImpl struct {
	db *gorm.DB
}

func NewEscalationRepository(db *gorm.DB) repository.EscalationRepository {
	return &escalationRepositoryImpl{db: db}
}

// EnsureOpenEscalation 依赖 (session_id, open_flag) 唯一索引做幂等插入：
// 已有开启中的升级单时插入冲突静默跳过，并发下也只会有一条。
func (r *escalationRepositoryImpl) EnsureOpenEscalation(ctx context.Context, sessionId, reason string) (bool, error) {
	now := time.Now()
	esc := entity.Escalation{
		SessionId: sessionId,
		OpenFlag:  &entity.EscalationOpenFlag,
		Reason:    reason,
		Status:    entity.EscalationStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&esc)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *escalationRepositoryImpl) GetOpenBySession(ctx context.Context, sessionId string) (*entity.Escalation, error) {
	var esc entity.Escalation
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND open_flag = 1", sessionId).
		First(&esc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &esc, nil
}

func (r *escalationRepositoryImpl) GetByID(ctx context.Context, id int64) (*entity.Escalation, error) {
	var esc entity.Escalation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&esc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &esc, nil
}

func (r *escalationRepositoryImpl) ListByStatus(ctx context.Context, status string, limit, offset int) ([]*entity.Escalation, error) {
	q := r.db.WithContext(ctx).Model(&entity.Escalation{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var escs []*entity.Escalation
	err := q.Order("id DESC").Limit(limit).Offset(offset).Find(&escs).Error
	if err != nil {
		return nil, err
	}
	return escs, nil
}

func (r *escalationRepositoryImpl) UpdateEscalation(ctx context.Context, esc *entity.Escalation) error {
	esc.UpdatedAt = time.Now()
	// Save 不会把 open_flag 置 NULL，终结态必须显式写列
	return r.db.WithContext(ctx).Model(&entity.Escalation{}).
		Where("id = ?", esc.Id).
		Updates(map[string]interface{}{
			"open_flag":        esc.OpenFlag,
			"status":           esc.Status,
			"assigned_to":      esc.AssignedTo,
			"resolution_notes": esc.ResolutionNotes,
			"resolved_at":      esc.ResolvedAt,
			"updated_at":       esc.UpdatedAt,
		}).Error
}

func (r *escalationRepositoryImpl) CountByCreatedRange(ctx context.Context, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Escalation{}).
		Where("created_at >= ? AND created_at < ?", from, to).
		Count(&count).Error
	return count, err
}
