package respond

// SourceRefEntry 回答引用的检索来源
type SourceRefEntry struct {
	RefID    string  `json:"ref_id"`   // faq:12 或 doc:3#5
	Kind     string  `json:"kind"`     // faq / chunk
	Score    float64 `json:"score"`    // 0-1
	Category string  `json:"category"`
	Excerpt  string  `json:"excerpt"`
}

// TimingInfo 各阶段耗时（毫秒）
type TimingInfo struct {
	NormalizeMs int64 `json:"normalize_ms"`
	RetrieveMs  int64 `json:"retrieve_ms"`
	SynthMs     int64 `json:"synth_ms"`
	PersistMs   int64 `json:"persist_ms"`
	TotalMs     int64 `json:"total_ms"`
}

// ChatRespond 一轮对话的返回
type ChatRespond struct {
	SessionId         string           `json:"session_id"`
	Answer            string           `json:"answer"`
	Language          string           `json:"language"`
	Intent            string           `json:"intent"`
	Confidence        int              `json:"confidence"` // 0-100
	SourceRefs        []SourceRefEntry `json:"source_refs"`
	EscalationOpened  bool             `json:"escalation_opened"`
	Untranslated      bool             `json:"untranslated"`       // 翻译通道全部失败，按原文处理
	RetrievalDegraded bool             `json:"retrieval_degraded"` // 向量通道失败，仅关键词检索
	QueryID           string           `json:"query_id"`
	Timing            TimingInfo       `json:"timing"`
}

// FAQRespond FAQ 返回
type FAQRespond struct {
	Id       int64    `json:"id"`
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Category string   `json:"category"`
	Language string   `json:"language"`
	Keywords []string `json:"keywords"`
	Priority int      `json:"priority"`
	Status   int8     `json:"status"`
}

// DocumentRespond 文档返回
type DocumentRespond struct {
	DocumentId  string `json:"document_id"`
	Filename    string `json:"filename"`
	Category    string `json:"category"`
	Description string `json:"description"`
	IsIndexed   bool   `json:"is_indexed"`
	ChunkCount  int    `json:"chunk_count"`
	UploadedAt  string `json:"uploaded_at"`
}

// EscalationRespond 升级单返回
type EscalationRespond struct {
	Id              int64  `json:"id"`
	SessionId       string `json:"session_id"`
	Reason          string `json:"reason"`
	Status          string `json:"status"`
	AssignedTo      string `json:"assigned_to"`
	ResolutionNotes string `json:"resolution_notes"`
	CreatedAt       string `json:"created_at"`
	ResolvedAt      string `json:"resolved_at,omitempty"`
}

// DailyReportRespond 日报表返回
type DailyReportRespond struct {
	Date               string         `json:"date"`
	TotalConversations int            `json:"total_conversations"`
	TotalMessages      int            `json:"total_messages"`
	EscalationCount    int            `json:"escalation_count"`
	AvgConfidence      int            `json:"avg_confidence"`
	Languages          map[string]int `json:"languages"`
	Intents            map[string]int `json:"intents"`
	TopQueries         []QueryCount   `json:"top_queries"`
}

// QueryCount 高频问题条目
type QueryCount struct {
	Query string `json:"query"`
	Count int    `json:"count"`
}

// MessageRespond 历史消息返回
type MessageRespond struct {
	Id         int64  `json:"id"`
	Role       string `json:"role"`
	Content    string `json:"content"`
	Intent     string `json:"intent,omitempty"`
	Confidence int    `json:"confidence,omitempty"`
	CreatedAt  string `json:"created_at"`
}
