package repository

import "context"

// VectorStore 是 domain 层定义的"向量库能力抽象"。
//
// 设计约束：
// 1) application / domain 只能依赖本接口，不应直接依赖 Milvus SDK 或 Eino。
// 2) infrastructure 通过适配器实现本接口（例如 MilvusStore），从而做到可替换。
//
// 字段约定：DocumentID/ChunkID/ChunkIndex 用于回溯到 MySQL 中的文档切块，
// 重建索引时按 DocumentID 整组删除后重写，保证原子替换。

// VectorUpsertItem 向量写入所需的标准字段
type VectorUpsertItem struct {
	ID         string
	Vector     []float32
	DocumentID int64
	ChunkID    int64
	ChunkIndex int
	Category   string
	Language   string
	Content    string
}

// VectorSearchHit 向量检索命中
type VectorSearchHit struct {
	ID         string
	Score      float32
	DocumentID int64
	ChunkID    int64
	ChunkIndex int
	Category   string
	Language   string
	Content    string
}

// VectorStore 向量数据库接口（Upsert/Delete/Search）
type VectorStore interface {
	Upsert(ctx context.Context, items []VectorUpsertItem) ([]string, error)

	// DeleteByDocument 删除某文档的全部向量（重建索引前调用）
	DeleteByDocument(ctx context.Context, documentId int64) error

	// Search 按向量搜索，expr 为过滤表达式（可为空）
	Search(ctx context.Context, vector []float32, topK int, expr string) ([]VectorSearchHit, error)
}
