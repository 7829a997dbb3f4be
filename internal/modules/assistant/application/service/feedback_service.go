package service

import (
	"context"

	"CampusAssist/internal/modules/assistant/application/dto/request"
	"CampusAssist/internal/modules/assistant/domain/entity"
	"CampusAssist/internal/modules/assistant/domain/repository"
	"CampusAssist/pkg/xerr"
	"CampusAssist/pkg/zlog"

	"go.uber.org/zap"
)

type FeedbackService interface {
	CreateFeedback(ctx context.Context, req request.CreateFeedbackRequest) error
}

type feedbackServiceImpl struct {
	fbRepo  repository.FeedbackRepository
	msgRepo repository.MessageRepository
}

func NewFeedbackService(fbRepo repository.FeedbackRepository, msgRepo repository.MessageRepository) FeedbackService {
	return &feedbackServiceImpl{fbRepo: fbRepo, msgRepo: msgRepo}
}

func (s *feedbackServiceImpl) CreateFeedback(ctx context.Context, req request.CreateFeedbackRequest) error {
	if req.MessageId <= 0 || req.Rating < 1 || req.Rating > 5 {
		return xerr.ErrParam
	}

	msg, err := s.msgRepo.GetByID(ctx, req.MessageId)
	if err != nil {
		zlog.Error("get message failed", zap.Int64("message_id", req.MessageId), zap.Error(err))
		return xerr.ErrServerError
	}
	if msg == nil {
		return xerr.ErrNotFound
	}
	// 只允许评价助手消息
	if msg.Role != entity.RoleAssistant {
		return xerr.ErrParam
	}

	fb := &entity.Feedback{
		MessageId: req.MessageId,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}
	if err = s.fbRepo.CreateFeedback(ctx, fb); err != nil {
		zlog.Error("create feedback failed", zap.Int64("message_id", req.MessageId), zap.Error(err))
		return xerr.ErrServerError
	}
	return nil
}
