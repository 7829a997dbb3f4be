package service

import (
	"context"
	"time"

	"CampusAssist/internal/modules/assistant/application/dto/request"
	"CampusAssist/internal/modules/assistant/application/dto/respond"
	"CampusAssist/internal/modules/assistant/domain/entity"
	"CampusAssist/internal/modules/assistant/domain/repository"
	"CampusAssist/pkg/xerr"
	"CampusAssist/pkg/zlog"

	"go.uber.org/zap"
)

type EscalationService interface {
	ListEscalations(ctx context.Context, status string, limit, offset int) ([]respond.EscalationRespond, error)
	Assign(ctx context.Context, req request.AssignEscalationRequest) (*respond.EscalationRespond, error)
	Resolve(ctx context.Context, req request.ResolveEscalationRequest) (*respond.EscalationRespond, error)
	Close(ctx context.Context, req request.CloseEscalationRequest) (*respond.EscalationRespond, error)
}

type escalationServiceImpl struct {
	escRepo repository.EscalationRepository
}

func NewEscalationService(escRepo repository.EscalationRepository) EscalationService {
	return &escalationServiceImpl{escRepo: escRepo}
}

// 状态机允许的流转：pending→assigned→resolved→closed，
// pending 可不经受理直接 resolved/closed
var allowedTransitions = map[string]map[string]bool{
	entity.EscalationStatusPending: {
		entity.EscalationStatusAssigned: true,
		entity.EscalationStatusResolved: true,
		entity.EscalationStatusClosed:   true,
	},
	entity.EscalationStatusAssigned: {
		entity.EscalationStatusResolved: true,
		entity.EscalationStatusClosed:   true,
	},
	entity.EscalationStatusResolved: {
		entity.EscalationStatusClosed: true,
	},
	entity.EscalationStatusClosed: {},
}

func (s *escalationServiceImpl) ListEscalations(ctx context.Context, status string, limit, offset int) ([]respond.EscalationRespond, error) {
	if status != "" {
		if _, ok := allowedTransitions[status]; !ok {
			return nil, xerr.ErrParam
		}
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	escs, err := s.escRepo.ListByStatus(ctx, status, limit, offset)
	if err != nil {
		zlog.Error("list escalations failed", zap.Error(err))
		return nil, xerr.ErrServerError
	}

	out := make([]respond.EscalationRespond, 0, len(escs))
	for _, e := range escs {
		out = append(out, *toEscalationRespond(e))
	}
	return out, nil
}

func (s *escalationServiceImpl) Assign(ctx context.Context, req request.AssignEscalationRequest) (*respond.EscalationRespond, error) {
	if req.Id <= 0 || req.AssignedTo == "" {
		return nil, xerr.ErrParam
	}

	esc, err := s.transition(ctx, req.Id, entity.EscalationStatusAssigned, func(e *entity.Escalation) {
		e.AssignedTo = req.AssignedTo
	})
	if err != nil {
		return nil, err
	}
	return toEscalationRespond(esc), nil
}

func (s *escalationServiceImpl) Resolve(ctx context.Context, req request.ResolveEscalationRequest) (*respond.EscalationRespond, error) {
	if req.Id <= 0 {
		return nil, xerr.ErrParam
	}

	esc, err := s.transition(ctx, req.Id, entity.EscalationStatusResolved, func(e *entity.Escalation) {
		e.ResolutionNotes = req.ResolutionNotes
		now := time.Now()
		e.ResolvedAt = &now
	})
	if err != nil {
		return nil, err
	}
	return toEscalationRespond(esc), nil
}

func (s *escalationServiceImpl) Close(ctx context.Context, req request.CloseEscalationRequest) (*respond.EscalationRespond, error) {
	if req.Id <= 0 {
		return nil, xerr.ErrParam
	}

	esc, err := s.transition(ctx, req.Id, entity.EscalationStatusClosed, nil)
	if err != nil {
		return nil, err
	}
	return toEscalationRespond(esc), nil
}

// transition 校验状态机流转并落库；进入终结态时清掉 open_flag，
// 让会话可以再次开启新的升级单。
func (s *escalationServiceImpl) transition(ctx context.Context, id int64, target string, mutate func(*entity.Escalation)) (*entity.Escalation, error) {
	esc, err := s.escRepo.GetByID(ctx, id)
	if err != nil {
		zlog.Error("get escalation failed", zap.Int64("id", id), zap.Error(err))
		return nil, xerr.ErrServerError
	}
	if esc == nil {
		return nil, xerr.ErrNotFound
	}
	if !allowedTransitions[esc.Status][target] {
		return nil, xerr.New(xerr.Conflict, "invalid escalation transition "+esc.Status+" -> "+target)
	}

	esc.Status = target
	if mutate != nil {
		mutate(esc)
	}
	if !esc.IsOpen() {
		esc.OpenFlag = nil
	}

	if err = s.escRepo.UpdateEscalation(ctx, esc); err != nil {
		zlog.Error("update escalation failed", zap.Int64("id", id), zap.Error(err))
		return nil, xerr.ErrServerError
	}
	return esc, nil
}

func toEscalationRespond(e *entity.Escalation) *respond.EscalationRespond {
	out := &respond.EscalationRespond{
		Id:              e.Id,
		SessionId:       e.SessionId,
		Reason:          e.Reason,
		Status:          e.Status,
		AssignedTo:      e.AssignedTo,
		ResolutionNotes: e.ResolutionNotes,
		CreatedAt:       e.CreatedAt.Format(time.RFC3339),
	}
	if e.ResolvedAt != nil {
		out.ResolvedAt = e.ResolvedAt.Format(time.RFC3339)
	}
	return out
}
