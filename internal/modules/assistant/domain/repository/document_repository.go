package repository

import (
	"context"

	"CampusAssist/internal/modules/assistant/domain/entity"
)

// DocumentRepository 文档与切块仓储接口
type DocumentRepository interface {
	// CreateDocument 登记文档元数据
	CreateDocument(ctx context.Context, doc *entity.Document) error

	// GetByDocumentID 根据对外 document_id 获取（找不到返回 nil, nil）
	GetByDocumentID(ctx context.Context, documentId string) (*entity.Document, error)

	// ListDocuments 管理端分页
	ListDocuments(ctx context.Context, limit, offset int) ([]*entity.Document, error)

	// ListIndexedIDs 返回全部已完成索引的文档内部 ID（检索路径的过滤条件）
	ListIndexedIDs(ctx context.Context) ([]int64, error)

	// ReplaceChunks 在一个事务里替换文档的全部切块并更新 chunk_count，
	// 同时把 is_indexed 置 0（向量写入完成后由 MarkIndexed 置回）
	ReplaceChunks(ctx context.Context, docId int64, chunks []*entity.DocumentChunk) error

	// ListChunks 获取文档全部切块（按 chunk_index 正序）
	ListChunks(ctx context.Context, docId int64) ([]*entity.DocumentChunk, error)

	// MarkIndexed 标记文档索引完成并回写切块向量ID
	MarkIndexed(ctx context.Context, docId int64, vectorIds map[int64]string) error
}
