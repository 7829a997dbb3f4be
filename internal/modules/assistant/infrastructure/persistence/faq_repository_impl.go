package persistence

import (
	"context"
	"errors"
	"time"

	"CampusAssist/internal/modules/assistant/domain/entity"
	"CampusAssist/internal/modules/assistant/domain/repository"

	"gorm.io/gorm"
)

type faqRepositoryImpl struct {
	db *gorm.DB
}

func NewFAQRepository(db *gorm.DB) repository.FAQRepository {
	return &faqRepositoryImpl{db: db}
}

func (r *faqRepositoryImpl) CreateFAQ(ctx context.Context, faq *entity.FAQ) error {
	now := time.Now()
	if faq.CreatedAt.IsZero() {
		faq.CreatedAt = now
	}
	faq.UpdatedAt = now
	return r.db.WithContext(ctx).Create(faq).Error
}

func (r *faqRepositoryImpl) UpdateFAQ(ctx context.Context, faq *entity.FAQ) error {
	faq.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(faq).Error
}

func (r *faqRepositoryImpl) GetByID(ctx context.Context, id int64) (*entity.FAQ, error) {
	var faq entity.FAQ
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&faq).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &faq, nil
}

func (r *faqRepositoryImpl) ListActive(ctx context.Context) ([]*entity.FAQ, error) {
	var faqs []*entity.FAQ
	err := r.db.WithContext(ctx).
		Where("status = ?", entity.FAQStatusActive).
		Order("id ASC").
		Find(&faqs).Error
	if err != nil {
		return nil, err
	}
	return faqs, nil
}

func (r *faqRepositoryImpl) List(ctx context.Context, category, language string, limit, offset int) ([]*entity.FAQ, error) {
	q := r.db.WithContext(ctx).Model(&entity.FAQ{})
	if category != "" {
		q = q.Where("category = ?", category)
	}
	if language != "" {
		q = q.Where("language = ?", language)
	}
	var faqs []*entity.FAQ
	err := q.Order("id ASC").Limit(limit).Offset(offset).Find(&faqs).Error
	if err != nil {
		return nil, err
	}
	return faqs, nil
}

func (r *faqRepositoryImpl) SetStatus(ctx context.Context, id int64, status int8) error {
	return r.db.WithContext(ctx).Model(&entity.FAQ{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		}).Error
}
