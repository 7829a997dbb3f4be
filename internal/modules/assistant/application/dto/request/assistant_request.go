package request

// ChatRequest 一轮对话请求
type ChatRequest struct {
	Platform   string `json:"platform" binding:"required"`    // web/telegram/whatsapp
	ExternalId string `json:"external_id" binding:"required"` // 平台侧用户标识
	Text       string `json:"text" binding:"required"`        // 用户输入
	Language   string `json:"language"`                       // 声明语言（可空，空则自动检测）
}

// CreateFAQRequest 新建 FAQ
type CreateFAQRequest struct {
	Question string   `json:"question" binding:"required"`
	Answer   string   `json:"answer" binding:"required"`
	Category string   `json:"category"`
	Language string   `json:"language"`
	Keywords []string `json:"keywords"`
	Priority int      `json:"priority"`
}

// UpdateFAQRequest 更新 FAQ（按主键整体更新）
type UpdateFAQRequest struct {
	Id       int64    `json:"id" binding:"required"`
	Question string   `json:"question" binding:"required"`
	Answer   string   `json:"answer" binding:"required"`
	Category string   `json:"category"`
	Language string   `json:"language"`
	Keywords []string `json:"keywords"`
	Priority int      `json:"priority"`
}

// SetFAQStatusRequest 启用/停用 FAQ
type SetFAQStatusRequest struct {
	Id     int64 `json:"id" binding:"required"`
	Status *int8 `json:"status" binding:"required"`
}

// CreateDocumentRequest 登记文档元数据
type CreateDocumentRequest struct {
	Filename    string `json:"filename" binding:"required"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

// IngestChunksRequest 写入文档切块（整组替换）并触发重建索引
type IngestChunksRequest struct {
	DocumentId string   `json:"document_id" binding:"required"`
	Chunks     []string `json:"chunks" binding:"required"`
}

// AssignEscalationRequest 受理升级单
type AssignEscalationRequest struct {
	Id         int64  `json:"id" binding:"required"`
	AssignedTo string `json:"assigned_to" binding:"required"`
}

// ResolveEscalationRequest 标记解决
type ResolveEscalationRequest struct {
	Id              int64  `json:"id" binding:"required"`
	ResolutionNotes string `json:"resolution_notes"`
}

// CloseEscalationRequest 关闭升级单
type CloseEscalationRequest struct {
	Id int64 `json:"id" binding:"required"`
}

// CreateFeedbackRequest 消息评价
type CreateFeedbackRequest struct {
	MessageId int64  `json:"message_id" binding:"required"`
	Rating    int    `json:"rating" binding:"required,min=1,max=5"`
	Comment   string `json:"comment"`
}

// RollupRequest 手动触发某天的报表聚合（date 格式 2006-01-02，空为昨天）
type RollupRequest struct {
	Date string `json:"date"`
}
