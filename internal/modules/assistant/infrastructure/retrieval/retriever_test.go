package retrieval

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"CampusAssist/internal/modules/assistant/domain/entity"
	"CampusAssist/internal/modules/assistant/domain/repository"

	"github.com/cloudwego/eino/components/embedding"
)

type fakeFAQRepo struct {
	faqs []*entity.FAQ
}

func (f *fakeFAQRepo) CreateFAQ(ctx context.Context, faq *entity.FAQ) error { return nil }
func (f *fakeFAQRepo) UpdateFAQ(ctx context.Context, faq *entity.FAQ) error { return nil }
func (f *fakeFAQRepo) GetByID(ctx context.Context, id int64) (*entity.FAQ, error) {
	return nil, nil
}
func (f *fakeFAQRepo) ListActive(ctx context.Context) ([]*entity.FAQ, error) {
	return f.faqs, nil
}
func (f *fakeFAQRepo) List(ctx context.Context, category, language string, limit, offset int) ([]*entity.FAQ, error) {
	return f.faqs, nil
}
func (f *fakeFAQRepo) SetStatus(ctx context.Context, id int64, status int8) error { return nil }

type fakeDocRepo struct {
	indexedIDs []int64
	err        error
}

func (f *fakeDocRepo) CreateDocument(ctx context.Context, doc *entity.Document) error { return nil }
func (f *fakeDocRepo) GetByDocumentID(ctx context.Context, documentId string) (*entity.Document, error) {
	return nil, nil
}
func (f *fakeDocRepo) ListDocuments(ctx context.Context, limit, offset int) ([]*entity.Document, error) {
	return nil, nil
}
func (f *fakeDocRepo) ListIndexedIDs(ctx context.Context) ([]int64, error) {
	return f.indexedIDs, f.err
}
func (f *fakeDocRepo) ReplaceChunks(ctx context.Context, docId int64, chunks []*entity.DocumentChunk) error {
	return nil
}
func (f *fakeDocRepo) ListChunks(ctx context.Context, docId int64) ([]*entity.DocumentChunk, error) {
	return nil, nil
}
func (f *fakeDocRepo) MarkIndexed(ctx context.Context, docId int64, vectorIds map[int64]string) error {
	return nil
}

type fakeVectorStore struct {
	hits []repository.VectorSearchHit
	err  error
}

func (f *fakeVectorStore) Upsert(ctx context.Context, items []repository.VectorUpsertItem) ([]string, error) {
	return nil, nil
}
func (f *fakeVectorStore) DeleteByDocument(ctx context.Context, documentId int64) error { return nil }
func (f *fakeVectorStore) Search(ctx context.Context, vector []float32, topK int, expr string) ([]repository.VectorSearchHit, error) {
	return f.hits, f.err
}

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float64, len(texts))
	for i := range texts {
		out[i] = []float64{0.1, 0.2, 0.3}
	}
	return out, nil
}

func faq(id int64, question, answer, keywordsJson string, priority int) *entity.FAQ {
	return &entity.FAQ{
		Id:           id,
		Question:     question,
		Answer:       answer,
		Category:     "fees",
		KeywordsJson: keywordsJson,
		Priority:     priority,
		Status:       entity.FAQStatusActive,
	}
}

func TestKeywordScorerFullCoverage(t *testing.T) {
	scorer := NewKeywordScorer([]*entity.FAQ{
		faq(1, "How much are the tuition fees?", "The fee is 5000 rupees per semester.",
			`["fee","fees","tuition"]`, 0),
	})

	hits := scorer.Score("what are the fees", 0.30)
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	// 停用词滤掉后只剩 fees，命中关键词集，得分应为 1.0
	if hits[0].Score != 1.0 {
		t.Errorf("Score = %v, want 1.0", hits[0].Score)
	}
}

func TestKeywordScorerBelowThreshold(t *testing.T) {
	scorer := NewKeywordScorer([]*entity.FAQ{
		faq(1, "How much are the tuition fees?", "answer", `["fee","fees"]`, 0),
	})
	hits := scorer.Score("library opening hours today fees", 0.30)
	if len(hits) != 0 {
		t.Fatalf("expected score below threshold to be dropped, got %d hits", len(hits))
	}
}

func TestKeywordScorerBadKeywordsJson(t *testing.T) {
	scorer := NewKeywordScorer([]*entity.FAQ{
		faq(1, "hostel room allotment", "answer", `{not json`, 0),
	})
	hits := scorer.Score("hostel allotment", 0.30)
	if len(hits) != 1 {
		t.Fatalf("question tokens should still score, got %d hits", len(hits))
	}
}

func TestRetrieveMergesAndTruncates(t *testing.T) {
	faqRepo := &fakeFAQRepo{faqs: []*entity.FAQ{
		faq(1, "How much are the tuition fees?", "The fee is 5000 rupees.", `["fee","fees","tuition"]`, 5),
		faq(2, "When are fees due?", "Fees are due by July 31.", `["fees","deadline"]`, 1),
	}}
	docRepo := &fakeDocRepo{indexedIDs: []int64{3}}
	vectors := &fakeVectorStore{hits: []repository.VectorSearchHit{
		{ID: "v1", Score: 0.9, DocumentID: 3, ChunkID: 7, ChunkIndex: 0, Category: "fees", Content: "Fee schedule 2026"},
		{ID: "v2", Score: 0.2, DocumentID: 3, ChunkID: 8, ChunkIndex: 1, Category: "fees", Content: "low relevance"},
	}}

	r := NewRetriever(faqRepo, docRepo, vectors, &fakeEmbedder{}, 2, 0.30)
	res, err := r.Retrieve(context.Background(), "what are the fees")
	if err != nil {
		t.Fatal(err)
	}
	if res.Degraded {
		t.Error("vector path succeeded, should not be degraded")
	}
	if len(res.Sources) != 2 {
		t.Fatalf("expected truncation to topK=2, got %d", len(res.Sources))
	}
	// 两条 FAQ 查询覆盖率同为 1.0，高于阈值的 chunk 0.9 被截掉一条之外还应保留排序确定性
	if res.Sources[0].RefID != "faq:1" {
		t.Errorf("first = %s, want faq:1 (higher priority)", res.Sources[0].RefID)
	}
	if res.Sources[1].RefID != "faq:2" {
		t.Errorf("second = %s, want faq:2", res.Sources[1].RefID)
	}
}

func TestRetrieveDeterministicOrder(t *testing.T) {
	faqRepo := &fakeFAQRepo{faqs: []*entity.FAQ{
		faq(2, "exam schedule", "a", `["exam"]`, 0),
		faq(1, "exam timetable", "b", `["exam"]`, 0),
	}}
	docRepo := &fakeDocRepo{}
	r := NewRetriever(faqRepo, docRepo, nil, nil, 5, 0.30)

	var first []string
	for i := 0; i < 5; i++ {
		res, err := r.Retrieve(context.Background(), "exam")
		if err != nil {
			t.Fatal(err)
		}
		refs := make([]string, len(res.Sources))
		for j, s := range res.Sources {
			refs[j] = s.RefID
		}
		if first == nil {
			first = refs
			continue
		}
		if !reflect.DeepEqual(first, refs) {
			t.Fatalf("order changed between runs: %v vs %v", first, refs)
		}
	}
	if len(first) != 2 || first[0] != "faq:1" {
		t.Errorf("same score should order by id asc, got %v", first)
	}
}

func TestRetrieveVectorFailureDegrades(t *testing.T) {
	faqRepo := &fakeFAQRepo{faqs: []*entity.FAQ{
		faq(1, "How much are the tuition fees?", "The fee is 5000 rupees.", `["fees"]`, 0),
	}}
	docRepo := &fakeDocRepo{indexedIDs: []int64{3}}
	vectors := &fakeVectorStore{err: errors.New("milvus unreachable")}

	r := NewRetriever(faqRepo, docRepo, vectors, &fakeEmbedder{}, 5, 0.30)
	res, err := r.Retrieve(context.Background(), "what are the fees")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Degraded {
		t.Error("vector failure should mark result degraded")
	}
	if len(res.Sources) != 1 || res.Sources[0].Kind != KindFAQ {
		t.Errorf("keyword results should survive: %+v", res.Sources)
	}
}

func TestRetrieveNoIndexedDocumentsSkipsVectors(t *testing.T) {
	faqRepo := &fakeFAQRepo{}
	docRepo := &fakeDocRepo{indexedIDs: nil}
	vectors := &fakeVectorStore{err: errors.New("should not be called")}

	r := NewRetriever(faqRepo, docRepo, vectors, &fakeEmbedder{}, 5, 0.30)
	res, err := r.Retrieve(context.Background(), "anything")
	if err != nil {
		t.Fatal(err)
	}
	if res.Degraded {
		t.Error("no indexed documents is not a degradation")
	}
	if len(res.Sources) != 0 {
		t.Errorf("expected empty result, got %d", len(res.Sources))
	}
}
