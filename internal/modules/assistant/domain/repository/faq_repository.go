package repository

import (
	"context"

	"CampusAssist/internal/modules/assistant/domain/entity"
)

// FAQRepository FAQ 仓储接口
type FAQRepository interface {
	// CreateFAQ 新建 FAQ
	CreateFAQ(ctx context.Context, faq *entity.FAQ) error

	// UpdateFAQ 按主键整体更新
	UpdateFAQ(ctx context.Context, faq *entity.FAQ) error

	// GetByID 按主键获取（找不到返回 nil, nil）
	GetByID(ctx context.Context, id int64) (*entity.FAQ, error)

	// ListActive 获取全部启用中的 FAQ（检索路径每次全量加载，校园规模下量级很小）
	ListActive(ctx context.Context) ([]*entity.FAQ, error)

	// List 管理端分页（category/language 为空表示不过滤）
	List(ctx context.Context, category, language string, limit, offset int) ([]*entity.FAQ, error)

	// SetStatus 启用/停用
	SetStatus(ctx context.Context, id int64, status int8) error
}
