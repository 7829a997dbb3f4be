package service

import (
	"context"
	"errors"
	"time"

	"CampusAssist/internal/config"
	"CampusAssist/internal/modules/assistant/application/dto/request"
	"CampusAssist/internal/modules/assistant/application/dto/respond"
	"CampusAssist/internal/modules/assistant/domain/repository"
	"CampusAssist/internal/modules/assistant/infrastructure/pipeline"
	"CampusAssist/pkg/xerr"
	"CampusAssist/pkg/zlog"

	"go.uber.org/zap"
)

type ChatService interface {
	// HandleMessage 处理一轮对话（会话级互斥，整轮落库）
	HandleMessage(ctx context.Context, req request.ChatRequest) (*respond.ChatRespond, error)

	// GetHistory 分页拉取会话历史
	GetHistory(ctx context.Context, sessionId string, limit, offset int) ([]respond.MessageRespond, error)
}

type chatServiceImpl struct {
	locker      repository.SessionLocker
	chatPipe    *pipeline.ChatPipeline
	sessionRepo repository.SessionRepository
	messageRepo repository.MessageRepository
	conf        config.AssistantConfig
}

func NewChatService(
	locker repository.SessionLocker,
	chatPipe *pipeline.ChatPipeline,
	sessionRepo repository.SessionRepository,
	messageRepo repository.MessageRepository,
	conf config.AssistantConfig,
) ChatService {
	return &chatServiceImpl{
		locker:      locker,
		chatPipe:    chatPipe,
		sessionRepo: sessionRepo,
		messageRepo: messageRepo,
		conf:        conf,
	}
}

func (s *chatServiceImpl) HandleMessage(ctx context.Context, req request.ChatRequest) (*respond.ChatRespond, error) {
	if req.Platform == "" || req.ExternalId == "" || req.Text == "" {
		return nil, xerr.ErrParam
	}

	// 锁粒度是"来源"而不是 session_id：首轮会话尚不存在，也要挡住并发建会话
	lockKey := req.Platform + ":" + req.ExternalId
	ttl := time.Duration(s.conf.LockTTLSeconds) * time.Second
	wait := time.Duration(s.conf.LockWaitSeconds) * time.Second

	token, err := s.locker.Acquire(ctx, lockKey, ttl, wait)
	if err != nil {
		if errors.Is(err, xerr.ErrSessionLocked) {
			return nil, xerr.ErrSessionLocked
		}
		zlog.Error("session lock acquire failed", zap.String("key", lockKey), zap.Error(err))
		return nil, xerr.ErrServerError
	}
	defer func() {
		if rerr := s.locker.Release(context.WithoutCancel(ctx), lockKey, token); rerr != nil {
			zlog.Warn("session lock release failed", zap.String("key", lockKey), zap.Error(rerr))
		}
	}()

	result, err := s.chatPipe.Execute(ctx, &pipeline.ChatTurnRequest{
		Platform:   req.Platform,
		ExternalId: req.ExternalId,
		Text:       req.Text,
		Language:   req.Language,
	})
	if err != nil {
		zlog.Error("chat pipeline execute failed", zap.Error(err))
		return nil, xerr.ErrServerError
	}
	if result.Err != nil {
		zlog.Error("chat turn failed",
			zap.String("query_id", result.QueryID),
			zap.Error(result.Err))
		return nil, xerr.ErrServerError
	}

	return &respond.ChatRespond{
		SessionId:         result.SessionID,
		Answer:            result.Answer,
		Language:          result.Language,
		Intent:            result.Intent,
		Confidence:        result.Confidence,
		SourceRefs:        result.SourceRefs,
		EscalationOpened:  result.EscalationOpened,
		Untranslated:      result.Untranslated,
		RetrievalDegraded: result.RetrievalDegraded,
		QueryID:           result.QueryID,
		Timing:            result.Timing,
	}, nil
}

func (s *chatServiceImpl) GetHistory(ctx context.Context, sessionId string, limit, offset int) ([]respond.MessageRespond, error) {
	if sessionId == "" {
		return nil, xerr.ErrParam
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	sess, err := s.sessionRepo.GetBySessionID(ctx, sessionId)
	if err != nil {
		zlog.Error("get session failed", zap.String("session_id", sessionId), zap.Error(err))
		return nil, xerr.ErrServerError
	}
	if sess == nil {
		return nil, xerr.ErrNotFound
	}

	msgs, err := s.messageRepo.ListMessages(ctx, sessionId, limit, offset)
	if err != nil {
		zlog.Error("list messages failed", zap.String("session_id", sessionId), zap.Error(err))
		return nil, xerr.ErrServerError
	}

	out := make([]respond.MessageRespond, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, respond.MessageRespond{
			Id:         m.Id,
			Role:       m.Role,
			Content:    m.Content,
			Intent:     m.Intent,
			Confidence: m.Confidence,
			CreatedAt:  m.CreatedAt.Format(time.RFC3339),
		})
	}
	return out, nil
}
