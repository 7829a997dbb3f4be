package vectordb

import (
	"context"
	"fmt"

	"CampusAssist/internal/modules/assistant/domain/repository"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

// MilvusStore Milvus 适配器，实现 repository.VectorStore。
// 集合字段：id / vector / document_id / chunk_id / chunk_index /
// category / language / content，重建索引按 document_id 整组删除后重写。
type MilvusStore struct {
	cli         client.Client
	collection  string
	vectorDim   int
	vectorField string
}

var _ repository.VectorStore = (*MilvusStore)(nil)

func NewMilvusStore(cli client.Client, collection string, vectorDim int) (*MilvusStore, error) {
	if cli == nil {
		return nil, fmt.Errorf("milvus client is nil")
	}
	if collection == "" {
		return nil, fmt.Errorf("milvus collection name is empty")
	}
	return &MilvusStore{
		cli:         cli,
		collection:  collection,
		vectorDim:   vectorDim,
		vectorField: "vector",
	}, nil
}

var outputFields = []string{"id", "document_id", "chunk_id", "chunk_index", "category", "language", "content"}

func (s *MilvusStore) Upsert(ctx context.Context, items []repository.VectorUpsertItem) ([]string, error) {
	if len(items) == 0 {
		return []string{}, nil
	}

	ids := make([]string, 0, len(items))
	vectors := make([][]float32, 0, len(items))
	documentIDs := make([]int64, 0, len(items))
	chunkIDs := make([]int64, 0, len(items))
	chunkIndexes := make([]int64, 0, len(items))
	categories := make([]string, 0, len(items))
	languages := make([]string, 0, len(items))
	contents := make([]string, 0, len(items))

	for _, it := range items {
		if it.ID == "" {
			return nil, fmt.Errorf("upsert item missing ID")
		}
		if len(it.Vector) != s.vectorDim {
			return nil, fmt.Errorf("vector dim mismatch for id=%s: got %d, want %d", it.ID, len(it.Vector), s.vectorDim)
		}
		ids = append(ids, it.ID)
		vectors = append(vectors, it.Vector)
		documentIDs = append(documentIDs, it.DocumentID)
		chunkIDs = append(chunkIDs, it.ChunkID)
		chunkIndexes = append(chunkIndexes, int64(it.ChunkIndex))
		categories = append(categories, it.Category)
		languages = append(languages, it.Language)
		contents = append(contents, it.Content)
	}

	_, err := s.cli.Upsert(
		ctx,
		s.collection,
		"", // partition
		entity.NewColumnVarChar("id", ids),
		entity.NewColumnFloatVector(s.vectorField, s.vectorDim, vectors),
		entity.NewColumnInt64("document_id", documentIDs),
		entity.NewColumnInt64("chunk_id", chunkIDs),
		entity.NewColumnInt64("chunk_index", chunkIndexes),
		entity.NewColumnVarChar("category", categories),
		entity.NewColumnVarChar("language", languages),
		entity.NewColumnVarChar("content", contents),
	)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *MilvusStore) DeleteByDocument(ctx context.Context, documentId int64) error {
	expr := fmt.Sprintf("document_id == %d", documentId)
	return s.cli.Delete(ctx, s.collection, "", expr)
}

func (s *MilvusStore) Search(ctx context.Context, vector []float32, topK int, expr string) ([]repository.VectorSearchHit, error) {
	if len(vector) != s.vectorDim {
		return nil, fmt.Errorf("vector dim mismatch: got %d, want %d", len(vector), s.vectorDim)
	}

	sp, _ := entity.NewIndexAUTOINDEXSearchParam(1)
	res, err := s.cli.Search(
		ctx,
		s.collection,
		nil,
		expr,
		outputFields,
		[]entity.Vector{entity.FloatVector(vector)},
		s.vectorField,
		entity.COSINE,
		topK,
		sp,
	)
	if err != nil {
		return nil, err
	}

	hits := make([]repository.VectorSearchHit, 0)
	if len(res) == 0 {
		return hits, nil
	}
	sr := res[0]
	if sr.Err != nil {
		return nil, sr.Err
	}

	getCol := func(name string) entity.Column {
		for _, c := range sr.Fields {
			if c.Name() == name {
				return c
			}
		}
		return nil
	}
	docIDCol := getCol("document_id")
	chunkIDCol := getCol("chunk_id")
	chunkIdxCol := getCol("chunk_index")
	categoryCol := getCol("category")
	languageCol := getCol("language")
	contentCol := getCol("content")

	for i := 0; i < sr.ResultCount; i++ {
		id, _ := sr.IDs.GetAsString(i)
		hit := repository.VectorSearchHit{
			ID:    id,
			Score: sr.Scores[i],
		}
		if docIDCol != nil {
			v, _ := docIDCol.GetAsInt64(i)
			hit.DocumentID = v
		}
		if chunkIDCol != nil {
			v, _ := chunkIDCol.GetAsInt64(i)
			hit.ChunkID = v
		}
		if chunkIdxCol != nil {
			v, _ := chunkIdxCol.GetAsInt64(i)
			hit.ChunkIndex = int(v)
		}
		if categoryCol != nil {
			v, _ := categoryCol.GetAsString(i)
			hit.Category = v
		}
		if languageCol != nil {
			v, _ := languageCol.GetAsString(i)
			hit.Language = v
		}
		if contentCol != nil {
			v, _ := contentCol.GetAsString(i)
			hit.Content = v
		}
		hits = append(hits, hit)
	}
	return hits, nil
}
