package entity

import (
	"time"
)

const (
	SessionStatusActive   int8 = 1 // 活跃会话
	SessionStatusInactive int8 = 0 // 超时停用的会话（只停用，不删除）
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Session 校园助手会话表（platform + external_id 唯一定位一个会话来源）
type Session struct {
	Id         int64     `gorm:"column:id;primaryKey;autoIncrement"`                                                // 主键，自增
	SessionId  string    `gorm:"column:session_id;type:char(20);uniqueIndex;not null"`                              // 会话唯一ID（对外使用）
	Platform   string    `gorm:"column:platform;type:varchar(50);not null;uniqueIndex:uniq_session_origin"`         // 来源平台：web/telegram/whatsapp
	ExternalId string    `gorm:"column:external_id;type:varchar(255);not null;uniqueIndex:uniq_session_origin"`     // 平台侧用户标识（弱引用）
	Language   string    `gorm:"column:language;type:varchar(10);not null;default:en"`                              // 用户偏好语言
	ContextJson string   `gorm:"column:context_json;type:json"`                                                     // 会话上下文（带版本的结构化 JSON，见 SessionContext）
	Status     int8      `gorm:"column:status;type:tinyint;not null;default:1"`                                     // 状态：1=active, 0=inactive
	CreatedAt  time.Time `gorm:"column:created_at;type:datetime;not null"`                                          // 创建时间
	UpdatedAt  time.Time `gorm:"column:updated_at;type:datetime;not null;index"`                                    // 更新时间（超时清理用）
}

func (Session) TableName() string {
	return "ca_session"
}

// Message 会话消息表（一经写入不可变）
type Message struct {
	Id               int64     `gorm:"column:id;primaryKey;autoIncrement"`                              // 主键，自增
	SessionId        string    `gorm:"column:session_id;type:char(20);index;not null"`                  // 所属会话ID
	Role             string    `gorm:"column:role;type:varchar(16);not null"`                           // 角色：user/assistant/system
	Content          string    `gorm:"column:content;type:mediumtext"`                                  // 展示内容（翻译后）
	OriginalContent  string    `gorm:"column:original_content;type:mediumtext"`                         // 原始内容（翻译前，审计用）
	OriginalLanguage string    `gorm:"column:original_language;type:varchar(10)"`                       // 原始语言
	Intent           string    `gorm:"column:intent;type:varchar(100)"`                                 // 识别出的意图
	Confidence       int       `gorm:"column:confidence;type:int;not null;default:0"`                   // 置信度 0-100
	SourcesJson      string    `gorm:"column:sources_json;type:json"`                                   // 引用来源列表（JSON数组）
	CreatedAt        time.Time `gorm:"column:created_at;type:datetime;not null;index:idx_session_time"` // 创建时间（索引，用于历史消息查询）
}

func (Message) TableName() string {
	return "ca_message"
}

const (
	FAQStatusActive   int8 = 1
	FAQStatusInactive int8 = 0
)

// FAQ 常见问题表（keywords 为 JSON 字符串数组）
type FAQ struct {
	Id           int64     `gorm:"column:id;primaryKey;autoIncrement"`                   // 主键，自增
	Question     string    `gorm:"column:question;type:text;not null"`                   // 问题原文
	Answer       string    `gorm:"column:answer;type:text;not null"`                     // 标准答案
	Category     string    `gorm:"column:category;type:varchar(100);index"`              // 分类：fees/admission/hostel...
	Language     string    `gorm:"column:language;type:varchar(10);not null;default:en"` // 语言
	KeywordsJson string    `gorm:"column:keywords_json;type:json"`                       // 关键词集合（JSON数组）
	Priority     int       `gorm:"column:priority;type:int;not null;default:0"`          // 同分时的胜出权重，越大越优先
	Status       int8      `gorm:"column:status;type:tinyint;not null;default:1"`        // 状态：1=active, 0=inactive
	CreatedAt    time.Time `gorm:"column:created_at;type:datetime;not null"`             // 创建时间
	UpdatedAt    time.Time `gorm:"column:updated_at;type:datetime;not null"`             // 更新时间
}

func (FAQ) TableName() string {
	return "ca_faq"
}

// Document 文档元数据表（切块由外部预处理，再经 IngestChunks 写入）
type Document struct {
	Id          int64     `gorm:"column:id;primaryKey;autoIncrement"`                    // 主键，自增
	DocumentId  string    `gorm:"column:document_id;type:char(20);uniqueIndex;not null"` // 文档唯一ID（对外使用）
	Filename    string    `gorm:"column:filename;type:varchar(255);not null"`            // 文件名
	Category    string    `gorm:"column:category;type:varchar(100);index"`               // 分类
	Description string    `gorm:"column:description;type:text"`                          // 描述
	IsIndexed   int8      `gorm:"column:is_indexed;type:tinyint;not null;default:0"`     // 是否已完成向量索引：1=是
	ChunkCount  int       `gorm:"column:chunk_count;type:int;not null;default:0"`        // 切块数
	UploadedAt  time.Time `gorm:"column:uploaded_at;type:datetime;not null"`             // 上传时间
	UpdatedAt   time.Time `gorm:"column:updated_at;type:datetime;not null"`              // 更新时间
}

func (Document) TableName() string {
	return "ca_document"
}

// DocumentChunk 文档切块表（重建索引时整组原子替换）
type DocumentChunk struct {
	Id         int64     `gorm:"column:id;primaryKey;autoIncrement"`             // 主键，自增
	DocumentId int64     `gorm:"column:document_id;index;not null"`              // 所属文档（内部数字ID）
	ChunkIndex int       `gorm:"column:chunk_index;type:int;not null"`           // 文档内序号
	Content    string    `gorm:"column:content;type:text;not null"`              // 切块文本
	VectorId   string    `gorm:"column:vector_id;type:char(40)"`                 // 向量库中的主键
	CreatedAt  time.Time `gorm:"column:created_at;type:datetime;not null"`       // 创建时间
}

func (DocumentChunk) TableName() string {
	return "ca_document_chunk"
}

// 升级单状态机：pending → assigned → resolved → closed（线性，无回环）
const (
	EscalationStatusPending  = "pending"
	EscalationStatusAssigned = "assigned"
	EscalationStatusResolved = "resolved"
	EscalationStatusClosed   = "closed"
)

// EscalationOpenFlag 处于开启态（pending/assigned）时为 1，终结后置 NULL。
// 与 session_id 组成唯一索引，从而在数据库层保证同一会话至多一条开启中的升级单。
var EscalationOpenFlag int8 = 1

// Escalation 人工升级单
type Escalation struct {
	Id              int64      `gorm:"column:id;primaryKey;autoIncrement"`                                        // 主键，自增
	SessionId       string     `gorm:"column:session_id;type:char(20);not null;uniqueIndex:uniq_open_escalation"` // 所属会话ID
	OpenFlag        *int8      `gorm:"column:open_flag;type:tinyint;uniqueIndex:uniq_open_escalation"`            // 开启标记：1=开启中，NULL=已终结
	Reason          string     `gorm:"column:reason;type:text"`                                                   // 升级原因
	Status          string     `gorm:"column:status;type:varchar(16);not null;default:pending"`                   // 状态机当前状态
	AssignedTo      string     `gorm:"column:assigned_to;type:varchar(100)"`                                      // 受理人
	ResolutionNotes string     `gorm:"column:resolution_notes;type:text"`                                         // 处理记录
	CreatedAt       time.Time  `gorm:"column:created_at;type:datetime;not null;index"`                            // 创建时间
	UpdatedAt       time.Time  `gorm:"column:updated_at;type:datetime;not null"`                                  // 更新时间
	ResolvedAt      *time.Time `gorm:"column:resolved_at;type:datetime"`                                          // 解决时间
}

func (Escalation) TableName() string {
	return "ca_escalation"
}

// IsOpen 是否处于开启态（pending/assigned）
func (e *Escalation) IsOpen() bool {
	return e.Status == EscalationStatusPending || e.Status == EscalationStatusAssigned
}

// ConversationLog 按日聚合的会话报表（按 date 幂等 upsert）
type ConversationLog struct {
	Id                 int64     `gorm:"column:id;primaryKey;autoIncrement"`             // 主键，自增
	Date               time.Time `gorm:"column:date;type:date;uniqueIndex;not null"`     // 统计日期（当地时区零点）
	TotalConversations int       `gorm:"column:total_conversations;type:int;not null"`   // 当日有消息的会话数
	TotalMessages      int       `gorm:"column:total_messages;type:int;not null"`        // 当日消息总数
	EscalationCount    int       `gorm:"column:escalation_count;type:int;not null"`      // 当日新建升级单数
	AvgConfidence      int       `gorm:"column:avg_confidence;type:int;not null"`        // 助手回答平均置信度
	LanguagesJson      string    `gorm:"column:languages_json;type:json"`                // 语言→消息数
	IntentsJson        string    `gorm:"column:intents_json;type:json"`                  // 意图→消息数
	TopQueriesJson     string    `gorm:"column:top_queries_json;type:json"`              // 高频问题排行
	CreatedAt          time.Time `gorm:"column:created_at;type:datetime;not null"`       // 创建时间
	UpdatedAt          time.Time `gorm:"column:updated_at;type:datetime;not null"`       // 更新时间
}

func (ConversationLog) TableName() string {
	return "ca_conversation_log"
}

// Feedback 消息评价表（只追加）
type Feedback struct {
	Id        int64     `gorm:"column:id;primaryKey;autoIncrement"`       // 主键，自增
	MessageId int64     `gorm:"column:message_id;index;not null"`         // 被评价的消息
	Rating    int       `gorm:"column:rating;type:int;not null"`          // 评分 1-5
	Comment   string    `gorm:"column:comment;type:text"`                 // 附言
	CreatedAt time.Time `gorm:"column:created_at;type:datetime;not null"` // 创建时间
}

func (Feedback) TableName() string {
	return "ca_feedback"
}
