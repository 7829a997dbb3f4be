package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"CampusAssist/internal/modules/assistant/domain/repository"
	"CampusAssist/pkg/xerr"
	"CampusAssist/pkg/zlog"

	"github.com/cloudwego/eino/components/embedding"
	"go.uber.org/zap"
)

// 检索来源类型
const (
	KindFAQ   = "faq"
	KindChunk = "chunk"
)

// ScoredSource 归并后的检索条目
type ScoredSource struct {
	Kind     string  // faq / chunk
	SourceID int64   // FAQ 主键或文档主键
	RefID    string  // 引用标识，faq:12 或 doc:3#5
	Content  string  // 作为回答依据的文本
	Category string
	Score    float64 // 0-1
	Priority int     // 仅 FAQ 参与同分排序
}

// Result 一次检索的输出
type Result struct {
	Sources  []ScoredSource
	Degraded bool // 向量通道失败，结果仅来自关键词
}

// Retriever 关键词 + 向量的混合检索。
// 两路各自打分后归并去重，统一排序截断到 topK。
type Retriever struct {
	faqRepo  repository.FAQRepository
	docRepo  repository.DocumentRepository
	vectors  repository.VectorStore
	embedder embedding.Embedder
	topK     int
	minScore float64
}

func NewRetriever(
	faqRepo repository.FAQRepository,
	docRepo repository.DocumentRepository,
	vectors repository.VectorStore,
	embedder embedding.Embedder,
	topK int,
	minScore float64,
) *Retriever {
	return &Retriever{
		faqRepo:  faqRepo,
		docRepo:  docRepo,
		vectors:  vectors,
		embedder: embedder,
		topK:     topK,
		minScore: minScore,
	}
}

func (r *Retriever) Retrieve(ctx context.Context, query string) (*Result, error) {
	res := &Result{}

	faqs, err := r.faqRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	scorer := NewKeywordScorer(faqs)
	for _, hit := range scorer.Score(query, r.minScore) {
		res.Sources = append(res.Sources, ScoredSource{
			Kind:     KindFAQ,
			SourceID: hit.FAQ.Id,
			RefID:    fmt.Sprintf("faq:%d", hit.FAQ.Id),
			Content:  hit.FAQ.Answer,
			Category: hit.FAQ.Category,
			Score:    hit.Score,
			Priority: hit.FAQ.Priority,
		})
	}

	chunkHits, degraded := r.searchVectors(ctx, query)
	res.Degraded = degraded
	res.Sources = append(res.Sources, chunkHits...)

	dedupeByRef(res)
	sortSources(res.Sources)
	if len(res.Sources) > r.topK {
		res.Sources = res.Sources[:r.topK]
	}
	return res, nil
}

// degradedErr 给降级日志挂上统一的错误码
func degradedErr(err error) error {
	if err == nil {
		return xerr.ErrRetrievalDegraded
	}
	return xerr.Wrap(xerr.ErrRetrievalDegraded, err.Error())
}

// searchVectors 向量通道；任何一步失败都降级为空结果并置 degraded
func (r *Retriever) searchVectors(ctx context.Context, query string) ([]ScoredSource, bool) {
	if r.vectors == nil || r.embedder == nil {
		return nil, false
	}

	docIDs, err := r.docRepo.ListIndexedIDs(ctx)
	if err != nil {
		zlog.Warn("list indexed documents failed, vector search skipped", zap.Error(degradedErr(err)))
		return nil, true
	}
	if len(docIDs) == 0 {
		return nil, false
	}

	vecs, err := r.embedder.EmbedStrings(ctx, []string{query})
	if err != nil || len(vecs) == 0 {
		zlog.Warn("query embedding failed, vector search skipped", zap.Error(degradedErr(err)))
		return nil, true
	}
	queryVec := make([]float32, len(vecs[0]))
	for i, v := range vecs[0] {
		queryVec[i] = float32(v)
	}

	expr := buildDocumentExpr(docIDs)
	hits, err := r.vectors.Search(ctx, queryVec, r.topK, expr)
	if err != nil {
		zlog.Warn("vector search failed, keyword results only", zap.Error(degradedErr(err)))
		return nil, true
	}

	out := make([]ScoredSource, 0, len(hits))
	for _, h := range hits {
		score := float64(h.Score)
		if score < r.minScore {
			continue
		}
		out = append(out, ScoredSource{
			Kind:     KindChunk,
			SourceID: h.DocumentID,
			RefID:    fmt.Sprintf("doc:%d#%d", h.DocumentID, h.ChunkIndex),
			Content:  h.Content,
			Category: h.Category,
			Score:    score,
		})
	}
	return out, false
}

func buildDocumentExpr(docIDs []int64) string {
	parts := make([]string, len(docIDs))
	for i, id := range docIDs {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return fmt.Sprintf("document_id in [%s]", strings.Join(parts, ", "))
}

// dedupeByRef 同一引用保留高分的那条
func dedupeByRef(res *Result) {
	seen := make(map[string]int, len(res.Sources))
	out := res.Sources[:0]
	for _, s := range res.Sources {
		if i, ok := seen[s.RefID]; ok {
			if s.Score > out[i].Score {
				out[i] = s
			}
			continue
		}
		seen[s.RefID] = len(out)
		out = append(out, s)
	}
	res.Sources = out
}

// sortSources 排序规则固定：得分降序，同分 FAQ 在前，
// FAQ 之间按优先级降序，最后按主键升序保证结果可复现
func sortSources(sources []ScoredSource) {
	sort.SliceStable(sources, func(i, j int) bool {
		a, b := sources[i], sources[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Kind != b.Kind {
			return a.Kind == KindFAQ
		}
		if a.Kind == KindFAQ && a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if a.SourceID != b.SourceID {
			return a.SourceID < b.SourceID
		}
		return a.RefID < b.RefID
	})
}
