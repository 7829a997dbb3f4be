package persistence

import (
	"context"
	"errors"
	"time"

	"CampusAssist/internal/modules/assistant/domain/entity"
	"CampusAssist/internal/modules/assistant/domain/repository"

	"gorm.io/gorm"
)

type documentRepositoryImpl struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) repository.DocumentRepository {
	return &documentRepositoryImpl{db: db}
}

func (r *documentRepositoryImpl) CreateDocument(ctx context.Context, doc *entity.Document) error {
	now := time.Now()
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = now
	}
	doc.UpdatedAt = now
	return r.db.WithContext(ctx).Create(doc).Error
}

func (r *documentRepositoryImpl) GetByDocumentID(ctx context.Context, documentId string) (*entity.Document, error) {
	var doc entity.Document
	err := r.db.WithContext(ctx).Where("document_id = ?", documentId).First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepositoryImpl) ListDocuments(ctx context.Context, limit, offset int) ([]*entity.Document, error) {
	var docs []*entity.Document
	err := r.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&docs).Error
	if err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *documentRepositoryImpl) ListIndexedIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&entity.Document{}).
		Where("is_indexed = 1").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// ReplaceChunks 整组替换切块并把文档标记为待索引
func (r *documentRepositoryImpl) ReplaceChunks(ctx context.Context, docId int64, chunks []*entity.DocumentChunk) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", docId).Delete(&entity.DocumentChunk{}).Error; err != nil {
			return err
		}
		now := time.Now()
		for _, c := range chunks {
			c.DocumentId = docId
			if c.CreatedAt.IsZero() {
				c.CreatedAt = now
			}
		}
		if len(chunks) > 0 {
			if err := tx.Create(&chunks).Error; err != nil {
				return err
			}
		}
		return tx.Model(&entity.Document{}).
			Where("id = ?", docId).
			Updates(map[string]interface{}{
				"chunk_count": len(chunks),
				"is_indexed":  0,
				"updated_at":  now,
			}).Error
	})
}

func (r *documentRepositoryImpl) ListChunks(ctx context.Context, docId int64) ([]*entity.DocumentChunk, error) {
	var chunks []*entity.DocumentChunk
	err := r.db.WithContext(ctx).
		Where("document_id = ?", docId).
		Order("chunk_index ASC").
		Find(&chunks).Error
	if err != nil {
		return nil, err
	}
	return chunks, nil
}

func (r *documentRepositoryImpl) MarkIndexed(ctx context.Context, docId int64, vectorIds map[int64]string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for chunkId, vectorId := range vectorIds {
			err := tx.Model(&entity.DocumentChunk{}).
				Where("id = ?", chunkId).
				Update("vector_id", vectorId).Error
			if err != nil {
				return err
			}
		}
		return tx.Model(&entity.Document{}).
			Where("id = ?", docId).
			Updates(map[string]interface{}{
				"is_indexed": 1,
				"updated_at": time.Now(),
			}).Error
	})
}
