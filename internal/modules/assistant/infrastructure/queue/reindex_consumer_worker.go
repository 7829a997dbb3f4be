package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"CampusAssist/internal/modules/assistant/domain/entity"
	"CampusAssist/internal/modules/assistant/domain/repository"
	"CampusAssist/internal/modules/assistant/infrastructure/mq"
	"CampusAssist/pkg/zlog"

	"github.com/cloudwego/eino/components/embedding"
	"go.uber.org/zap"
)

// ReindexEvent 文档重建索引事件（document_id 为对外ID）
type ReindexEvent struct {
	DocumentID  string `json:"document_id"`
	RequestedAt int64  `json:"requested_at"`
}

// ReindexConsumerWorker 消费重建索引事件：
// 读出文档切块 → 向量化 → 按文档整组删除后重写向量库 → 回写索引标记。
// 向量主键由文档与切块主键派生，重复消费只是覆盖写，天然幂等。
type ReindexConsumerWorker struct {
	consumer mq.Consumer
	docRepo  repository.DocumentRepository
	vectors  repository.VectorStore
	embedder embedding.Embedder

	embedBatchSize int
}

func NewReindexConsumerWorker(
	consumer mq.Consumer,
	docRepo repository.DocumentRepository,
	vectors repository.VectorStore,
	embedder embedding.Embedder,
) *ReindexConsumerWorker {
	return &ReindexConsumerWorker{
		consumer:       consumer,
		docRepo:        docRepo,
		vectors:        vectors,
		embedder:       embedder,
		embedBatchSize: 16,
	}
}

func (w *ReindexConsumerWorker) Run(ctx context.Context) error {
	if w == nil || w.consumer == nil {
		return errors.New("consumer is nil")
	}
	if w.docRepo == nil || w.vectors == nil || w.embedder == nil {
		return errors.New("reindex worker dependencies missing")
	}
	return w.consumer.Run(ctx, w)
}

func (w *ReindexConsumerWorker) Handle(ctx context.Context, msg mq.Message) error {
	var ev ReindexEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil || strings.TrimSpace(ev.DocumentID) == "" {
		// 坏消息直接丢弃，重投也救不回来
		zlog.Warn("reindex consumer invalid event", zap.String("topic", msg.Topic), zap.Error(err))
		return nil
	}

	doc, err := w.docRepo.GetByDocumentID(ctx, ev.DocumentID)
	if err != nil {
		zlog.Warn("reindex consumer load document failed", zap.String("document_id", ev.DocumentID), zap.Error(err))
		return err
	}
	if doc == nil {
		zlog.Warn("reindex consumer document missing", zap.String("document_id", ev.DocumentID))
		return nil
	}

	if err = w.reindex(ctx, doc); err != nil {
		zlog.Error("reindex document failed",
			zap.String("document_id", ev.DocumentID),
			zap.Int64("id", doc.Id),
			zap.Error(err))
		return err
	}

	zlog.Info("reindex document done", zap.String("document_id", ev.DocumentID), zap.Int64("id", doc.Id))
	return nil
}

func (w *ReindexConsumerWorker) reindex(ctx context.Context, doc *entity.Document) error {
	docId := doc.Id
	chunks, err := w.docRepo.ListChunks(ctx, docId)
	if err != nil {
		return err
	}

	if err = w.vectors.DeleteByDocument(ctx, docId); err != nil {
		return err
	}
	if len(chunks) == 0 {
		return w.docRepo.MarkIndexed(ctx, docId, nil)
	}

	vectorIds := make(map[int64]string, len(chunks))
	for start := 0; start < len(chunks); start += w.embedBatchSize {
		end := start + w.embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Content
		}
		vecs, err := w.embedder.EmbedStrings(ctx, texts)
		if err != nil {
			return err
		}
		if len(vecs) != len(batch) {
			return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vecs), len(batch))
		}

		items := make([]repository.VectorUpsertItem, len(batch))
		for i, c := range batch {
			vec32 := make([]float32, len(vecs[i]))
			for j, v := range vecs[i] {
				vec32[j] = float32(v)
			}
			vid := fmt.Sprintf("d%d-c%d", docId, c.Id)
			items[i] = repository.VectorUpsertItem{
				ID:         vid,
				Vector:     vec32,
				DocumentID: docId,
				ChunkID:    c.Id,
				ChunkIndex: c.ChunkIndex,
				Category:   doc.Category,
				Content:    c.Content,
			}
			vectorIds[c.Id] = vid
		}
		if _, err = w.vectors.Upsert(ctx, items); err != nil {
			return err
		}
	}

	return w.docRepo.MarkIndexed(ctx, docId, vectorIds)
}
