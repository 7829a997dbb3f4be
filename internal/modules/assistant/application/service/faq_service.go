package service

import (
	"context"
	"encoding/json"

	"CampusAssist/internal/modules/assistant/application/dto/request"
	"CampusAssist/internal/modules/assistant/application/dto/respond"
	"CampusAssist/internal/modules/assistant/domain/entity"
	"CampusAssist/internal/modules/assistant/domain/repository"
	"CampusAssist/pkg/xerr"
	"CampusAssist/pkg/zlog"

	"go.uber.org/zap"
)

type FAQService interface {
	CreateFAQ(ctx context.Context, req request.CreateFAQRequest) (*respond.FAQRespond, error)
	UpdateFAQ(ctx context.Context, req request.UpdateFAQRequest) (*respond.FAQRespond, error)
	SetStatus(ctx context.Context, req request.SetFAQStatusRequest) error
	ListFAQs(ctx context.Context, category, language string, limit, offset int) ([]respond.FAQRespond, error)
}

type faqServiceImpl struct {
	faqRepo repository.FAQRepository
}

func NewFAQService(faqRepo repository.FAQRepository) FAQService {
	return &faqServiceImpl{faqRepo: faqRepo}
}

func (s *faqServiceImpl) CreateFAQ(ctx context.Context, req request.CreateFAQRequest) (*respond.FAQRespond, error) {
	if req.Question == "" || req.Answer == "" {
		return nil, xerr.ErrParam
	}
	lang := req.Language
	if lang == "" {
		lang = "en"
	}

	faq := &entity.FAQ{
		Question:     req.Question,
		Answer:       req.Answer,
		Category:     req.Category,
		Language:     lang,
		KeywordsJson: encodeKeywords(req.Keywords),
		Priority:     req.Priority,
		Status:       entity.FAQStatusActive,
	}
	if err := s.faqRepo.CreateFAQ(ctx, faq); err != nil {
		zlog.Error("create faq failed", zap.Error(err))
		return nil, xerr.ErrServerError
	}
	return toFAQRespond(faq), nil
}

func (s *faqServiceImpl) UpdateFAQ(ctx context.Context, req request.UpdateFAQRequest) (*respond.FAQRespond, error) {
	if req.Id <= 0 || req.Question == "" || req.Answer == "" {
		return nil, xerr.ErrParam
	}

	faq, err := s.faqRepo.GetByID(ctx, req.Id)
	if err != nil {
		zlog.Error("get faq failed", zap.Int64("id", req.Id), zap.Error(err))
		return nil, xerr.ErrServerError
	}
	if faq == nil {
		return nil, xerr.ErrNotFound
	}

	faq.Question = req.Question
	faq.Answer = req.Answer
	faq.Category = req.Category
	if req.Language != "" {
		faq.Language = req.Language
	}
	faq.KeywordsJson = encodeKeywords(req.Keywords)
	faq.Priority = req.Priority

	if err = s.faqRepo.UpdateFAQ(ctx, faq); err != nil {
		zlog.Error("update faq failed", zap.Int64("id", req.Id), zap.Error(err))
		return nil, xerr.ErrServerError
	}
	return toFAQRespond(faq), nil
}

func (s *faqServiceImpl) SetStatus(ctx context.Context, req request.SetFAQStatusRequest) error {
	if req.Id <= 0 || req.Status == nil {
		return xerr.ErrParam
	}
	if *req.Status != entity.FAQStatusActive && *req.Status != entity.FAQStatusInactive {
		return xerr.ErrParam
	}

	faq, err := s.faqRepo.GetByID(ctx, req.Id)
	if err != nil {
		zlog.Error("get faq failed", zap.Int64("id", req.Id), zap.Error(err))
		return xerr.ErrServerError
	}
	if faq == nil {
		return xerr.ErrNotFound
	}

	if err = s.faqRepo.SetStatus(ctx, req.Id, *req.Status); err != nil {
		zlog.Error("set faq status failed", zap.Int64("id", req.Id), zap.Error(err))
		return xerr.ErrServerError
	}
	return nil
}

func (s *faqServiceImpl) ListFAQs(ctx context.Context, category, language string, limit, offset int) ([]respond.FAQRespond, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	faqs, err := s.faqRepo.List(ctx, category, language, limit, offset)
	if err != nil {
		zlog.Error("list faqs failed", zap.Error(err))
		return nil, xerr.ErrServerError
	}

	out := make([]respond.FAQRespond, 0, len(faqs))
	for _, f := range faqs {
		out = append(out, *toFAQRespond(f))
	}
	return out, nil
}

func encodeKeywords(keywords []string) string {
	if len(keywords) == 0 {
		return "[]"
	}
	b, err := json.Marshal(keywords)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func toFAQRespond(f *entity.FAQ) *respond.FAQRespond {
	var keywords []string
	if f.KeywordsJson != "" {
		_ = json.Unmarshal([]byte(f.KeywordsJson), &keywords)
	}
	return &respond.FAQRespond{
		Id:       f.Id,
		Question: f.Question,
		Answer:   f.Answer,
		Category: f.Category,
		Language: f.Language,
		Keywords: keywords,
		Priority: f.Priority,
		Status:   f.Status,
	}
}
