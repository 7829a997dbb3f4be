package service

import (
	"context"
	"encoding/json"
	"time"

	"CampusAssist/internal/modules/assistant/application/dto/request"
	"CampusAssist/internal/modules/assistant/application/dto/respond"
	"CampusAssist/internal/modules/assistant/domain/entity"
	"CampusAssist/internal/modules/assistant/domain/repository"
	"CampusAssist/internal/modules/assistant/infrastructure/mq"
	"CampusAssist/internal/modules/assistant/infrastructure/queue"
	"CampusAssist/pkg/util"
	"CampusAssist/pkg/xerr"
	"CampusAssist/pkg/zlog"

	"go.uber.org/zap"
)

type DocumentService interface {
	CreateDocument(ctx context.Context, req request.CreateDocumentRequest) (*respond.DocumentRespond, error)
	ListDocuments(ctx context.Context, limit, offset int) ([]respond.DocumentRespond, error)

	// IngestChunks 整组替换文档切块并发布重建索引事件
	IngestChunks(ctx context.Context, req request.IngestChunksRequest) (*respond.DocumentRespond, error)

	// RequestReindex 只发布重建索引事件（切块不变，如向量库重置后补建）
	RequestReindex(ctx context.Context, documentId string) error
}

type documentServiceImpl struct {
	docRepo      repository.DocumentRepository
	publisher    mq.Publisher
	reindexTopic string
}

func NewDocumentService(docRepo repository.DocumentRepository, publisher mq.Publisher, reindexTopic string) DocumentService {
	return &documentServiceImpl{
		docRepo:      docRepo,
		publisher:    publisher,
		reindexTopic: reindexTopic,
	}
}

func (s *documentServiceImpl) CreateDocument(ctx context.Context, req request.CreateDocumentRequest) (*respond.DocumentRespond, error) {
	if req.Filename == "" {
		return nil, xerr.ErrParam
	}

	doc := &entity.Document{
		DocumentId:  util.GenerateID("CD"), // CD = Campus Document
		Filename:    req.Filename,
		Category:    req.Category,
		Description: req.Description,
	}
	if err := s.docRepo.CreateDocument(ctx, doc); err != nil {
		zlog.Error("create document failed", zap.Error(err))
		return nil, xerr.ErrServerError
	}
	return toDocumentRespond(doc), nil
}

func (s *documentServiceImpl) ListDocuments(ctx context.Context, limit, offset int) ([]respond.DocumentRespond, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	docs, err := s.docRepo.ListDocuments(ctx, limit, offset)
	if err != nil {
		zlog.Error("list documents failed", zap.Error(err))
		return nil, xerr.ErrServerError
	}

	out := make([]respond.DocumentRespond, 0, len(docs))
	for _, d := range docs {
		out = append(out, *toDocumentRespond(d))
	}
	return out, nil
}

func (s *documentServiceImpl) IngestChunks(ctx context.Context, req request.IngestChunksRequest) (*respond.DocumentRespond, error) {
	if req.DocumentId == "" || len(req.Chunks) == 0 {
		return nil, xerr.ErrParam
	}

	doc, err := s.docRepo.GetByDocumentID(ctx, req.DocumentId)
	if err != nil {
		zlog.Error("get document failed", zap.String("document_id", req.DocumentId), zap.Error(err))
		return nil, xerr.ErrServerError
	}
	if doc == nil {
		return nil, xerr.ErrNotFound
	}

	chunks := make([]*entity.DocumentChunk, 0, len(req.Chunks))
	for i, content := range req.Chunks {
		if content == "" {
			continue
		}
		chunks = append(chunks, &entity.DocumentChunk{
			ChunkIndex: i,
			Content:    content,
		})
	}
	if len(chunks) == 0 {
		return nil, xerr.ErrParam
	}

	if err = s.docRepo.ReplaceChunks(ctx, doc.Id, chunks); err != nil {
		zlog.Error("replace chunks failed", zap.String("document_id", req.DocumentId), zap.Error(err))
		return nil, xerr.ErrServerError
	}

	if err = s.publishReindex(ctx, doc.DocumentId); err != nil {
		// 切块已落库，事件发不出去只告警，可用 RequestReindex 补发
		zlog.Warn("publish reindex event failed", zap.String("document_id", req.DocumentId), zap.Error(err))
	}

	doc.ChunkCount = len(chunks)
	doc.IsIndexed = 0
	return toDocumentRespond(doc), nil
}

func (s *documentServiceImpl) RequestReindex(ctx context.Context, documentId string) error {
	if documentId == "" {
		return xerr.ErrParam
	}
	doc, err := s.docRepo.GetByDocumentID(ctx, documentId)
	if err != nil {
		zlog.Error("get document failed", zap.String("document_id", documentId), zap.Error(err))
		return xerr.ErrServerError
	}
	if doc == nil {
		return xerr.ErrNotFound
	}
	if err = s.publishReindex(ctx, doc.DocumentId); err != nil {
		zlog.Error("publish reindex event failed", zap.String("document_id", documentId), zap.Error(err))
		return xerr.ErrServerError
	}
	return nil
}

func (s *documentServiceImpl) publishReindex(ctx context.Context, documentId string) error {
	if s.publisher == nil {
		return xerr.New(xerr.InternalServerError, "reindex publisher not configured")
	}
	payload, err := json.Marshal(queue.ReindexEvent{
		DocumentID:  documentId,
		RequestedAt: time.Now().Unix(),
	})
	if err != nil {
		return err
	}
	_, err = s.publisher.Publish(ctx, mq.Message{
		Topic: s.reindexTopic,
		Key:   []byte(documentId),
		Value: payload,
	})
	return err
}

func toDocumentRespond(d *entity.Document) *respond.DocumentRespond {
	return &respond.DocumentRespond{
		DocumentId:  d.DocumentId,
		Filename:    d.Filename,
		Category:    d.Category,
		Description: d.Description,
		IsIndexed:   d.IsIndexed == 1,
		ChunkCount:  d.ChunkCount,
		UploadedAt:  d.UploadedAt.Format(time.RFC3339),
	}
}
