package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"CampusAssist/internal/modules/assistant/application/dto/respond"
	"CampusAssist/internal/modules/assistant/domain/entity"
	"CampusAssist/internal/modules/assistant/domain/repository"
	"CampusAssist/internal/modules/assistant/infrastructure/intent"
	"CampusAssist/internal/modules/assistant/infrastructure/retrieval"
	"CampusAssist/pkg/util"
	"CampusAssist/pkg/xerr"
	"CampusAssist/pkg/zlog"

	"go.uber.org/zap"
)

// chatState Graph 内部状态（在节点间传递）
type chatState struct {
	Req          *ChatTurnRequest
	Session      *entity.Session
	IsNewSession bool
	SessCtx      entity.SessionContext
	ContextReset bool
	History      []*entity.Message

	PivotText    string
	Language     string
	Untranslated bool

	Sources  []retrieval.ScoredSource
	Degraded bool

	Intent string

	Synth       SynthResult
	FinalAnswer string // 会话语言的最终回答

	EscalationReason string
	EscalationOpened bool

	QueryID     string
	Start       time.Time
	NormalizeMs int64
	RetrieveMs  int64
	SynthMs     int64
	PersistMs   int64

	Err error
}

// Node 1: LoadSession - 定位或创建会话，解析上下文并加载历史窗口
func (p *ChatPipeline) loadSessionNode(ctx context.Context, req *ChatTurnRequest, _ ...any) (*chatState, error) {
	st := &chatState{
		Req:     req,
		Start:   time.Now(),
		QueryID: fmt.Sprintf("q_%s_%d", util.GenerateID("Q"), time.Now().UnixNano()),
	}

	if strings.TrimSpace(req.Platform) == "" || strings.TrimSpace(req.ExternalId) == "" {
		st.Err = fmt.Errorf("platform and external_id are required")
		return st, nil
	}
	if strings.TrimSpace(req.Text) == "" {
		st.Err = fmt.Errorf("text is required")
		return st, nil
	}

	sess, err := p.sessionRepo.GetByOrigin(ctx, req.Platform, req.ExternalId)
	if err != nil {
		st.Err = err
		return st, nil
	}

	if sess == nil {
		now := time.Now()
		sess = &entity.Session{
			SessionId:   util.GenerateID("CS"), // CS = Campus Session
			Platform:    strings.TrimSpace(req.Platform),
			ExternalId:  strings.TrimSpace(req.ExternalId),
			Language:    p.normalizer.Pivot(),
			ContextJson: entity.DefaultSessionContext().Encode(),
			Status:      entity.SessionStatusActive,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err = p.sessionRepo.CreateSession(ctx, sess); err != nil {
			st.Err = err
			return st, nil
		}
		st.IsNewSession = true
		st.SessCtx = entity.DefaultSessionContext()
		st.History = nil
	} else {
		sessCtx, perr := entity.ParseSessionContext(sess.ContextJson)
		if perr != nil {
			// 上下文损坏：重置后继续本轮，不中断
			st.ContextReset = true
			zlog.Warn("session context reset",
				zap.String("session_id", sess.SessionId),
				zap.Error(xerr.Wrap(xerr.ErrInvalidContextSchema, perr.Error())))
		}
		st.SessCtx = sessCtx

		history, herr := p.messageRepo.ListRecentMessages(ctx, sess.SessionId, p.conf.MaxHistory)
		if herr != nil {
			st.Err = herr
			return st, nil
		}
		st.History = history
	}
	st.Session = sess

	zlog.Info("chat load session done",
		zap.String("query_id", st.QueryID),
		zap.String("session_id", sess.SessionId),
		zap.Bool("is_new", st.IsNewSession),
		zap.Int("history_count", len(st.History)))

	return st, nil
}

// Node 2: Normalize - 语言解析与入方向翻译
func (p *ChatPipeline) normalizeNode(ctx context.Context, st *chatState, _ ...any) (*chatState, error) {
	if st == nil || st.Err != nil {
		return st, nil
	}

	start := time.Now()
	declared := st.Req.Language
	if declared == "" {
		declared = st.Session.Language
	}
	res := p.normalizer.Normalize(ctx, st.Req.Text, declared)
	st.PivotText = res.PivotText
	st.Language = res.Language
	st.Untranslated = res.Untranslated
	st.NormalizeMs = time.Since(start).Milliseconds()

	zlog.Info("chat normalize done",
		zap.String("query_id", st.QueryID),
		zap.String("language", st.Language),
		zap.Bool("untranslated", st.Untranslated),
		zap.Int64("normalize_ms", st.NormalizeMs))

	return st, nil
}

// Node 3: Retrieve - 关键词 + 向量混合检索
func (p *ChatPipeline) retrieveNode(ctx context.Context, st *chatState, _ ...any) (*chatState, error) {
	if st == nil || st.Err != nil {
		return st, nil
	}

	start := time.Now()
	res, err := p.retriever.Retrieve(ctx, st.PivotText)
	if err != nil {
		st.Err = err
		return st, nil
	}
	st.Sources = res.Sources
	st.Degraded = res.Degraded
	st.RetrieveMs = time.Since(start).Milliseconds()

	zlog.Info("chat retrieve done",
		zap.String("query_id", st.QueryID),
		zap.Int("sources", len(st.Sources)),
		zap.Bool("degraded", st.Degraded),
		zap.Int64("retrieve_ms", st.RetrieveMs))

	return st, nil
}

// Node 4: Classify - 规则优先，检索类目兜底
func (p *ChatPipeline) classifyNode(ctx context.Context, st *chatState, _ ...any) (*chatState, error) {
	if st == nil || st.Err != nil {
		return st, nil
	}

	st.Intent = p.classifier.Classify(st.PivotText)
	if st.Intent == intent.IntentUnknown && len(st.Sources) > 0 {
		top := st.Sources[0]
		if top.Category != "" && top.Score >= p.conf.MinScore {
			st.Intent = top.Category
		}
	}

	zlog.Info("chat classify done",
		zap.String("query_id", st.QueryID),
		zap.String("intent", st.Intent))

	return st, nil
}

// Node 5: Synthesize - 回答合成
func (p *ChatPipeline) synthesizeNode(ctx context.Context, st *chatState, _ ...any) (*chatState, error) {
	if st == nil || st.Err != nil {
		return st, nil
	}

	start := time.Now()
	st.Synth = p.synthesizer.Synthesize(ctx, st.PivotText, st.History, st.Sources)
	// 翻译链路耗尽时 pivot 文本就是原文，针对它算出的检索得分不可信，
	// 置信度压到无引用档
	if st.Untranslated && st.Synth.Confidence > p.conf.UngroundedConfidence {
		st.Synth.Confidence = p.conf.UngroundedConfidence
	}
	st.SynthMs = time.Since(start).Milliseconds()

	zlog.Info("chat synthesize done",
		zap.String("query_id", st.QueryID),
		zap.Int("confidence", st.Synth.Confidence),
		zap.Bool("grounded", st.Synth.Grounded),
		zap.Bool("fallback", st.Synth.Fallback),
		zap.Int64("synth_ms", st.SynthMs))

	return st, nil
}

// Node 6: Decide - 升级判定、上下文推进、出方向翻译
func (p *ChatPipeline) decideNode(ctx context.Context, st *chatState, _ ...any) (*chatState, error) {
	if st == nil || st.Err != nil {
		return st, nil
	}

	st.EscalationReason = p.escalationReason(st.Intent, st.Synth.Confidence, st.Untranslated)

	st.SessCtx.LastIntent = st.Intent
	st.SessCtx.TurnCount++
	st.SessCtx.Version = entity.ContextSchemaVersion

	answer, ok := p.normalizer.Denormalize(ctx, st.Synth.Answer, st.Language)
	if !ok {
		st.Untranslated = true
	}
	st.FinalAnswer = answer

	return st, nil
}

// escalationReason 返回非空字符串表示本轮需要升级人工。
// 三个触发条件：用户明确要求、翻译链路耗尽且属于高风险意图、置信度低于升级阈值。
func (p *ChatPipeline) escalationReason(intentName string, confidence int, untranslated bool) string {
	if intentName == intent.IntentEscalationRequest {
		return "user requested human support"
	}
	if untranslated {
		for _, hs := range p.conf.HighStakesIntents {
			if intentName == hs {
				return fmt.Sprintf("translation unavailable for high stakes intent %s", intentName)
			}
		}
	}
	if confidence < p.conf.EscalationThreshold {
		return fmt.Sprintf("low confidence answer (%d)", confidence)
	}
	return ""
}

// Node 7: Persist - 整轮事务落库并组装最终结果
func (p *ChatPipeline) persistNode(ctx context.Context, st *chatState, _ ...any) (*ChatTurnResult, error) {
	if st == nil {
		return &ChatTurnResult{Err: fmt.Errorf("nil state")}, nil
	}
	if st.Err != nil {
		return p.buildFinalResult(st), nil
	}

	start := time.Now()
	now := time.Now()

	userMsg := &entity.Message{
		SessionId:        st.Session.SessionId,
		Role:             entity.RoleUser,
		Content:          st.PivotText,
		OriginalContent:  st.Req.Text,
		OriginalLanguage: st.Language,
		Intent:           st.Intent,
		CreatedAt:        now,
	}
	assistantMsg := &entity.Message{
		SessionId:        st.Session.SessionId,
		Role:             entity.RoleAssistant,
		Content:          st.FinalAnswer,
		OriginalContent:  st.Synth.Answer,
		OriginalLanguage: p.normalizer.Pivot(),
		Intent:           st.Intent,
		Confidence:       st.Synth.Confidence,
		SourcesJson:      encodeSourceRefs(st.Sources),
		CreatedAt:        now,
	}

	opened, err := p.turnRepo.CommitTurn(ctx, &repository.TurnRecord{
		Session:          st.Session,
		ContextJson:      st.SessCtx.Encode(),
		Language:         st.Language,
		UserMessage:      userMsg,
		AssistantMessage: assistantMsg,
		EscalationReason: st.EscalationReason,
	})
	if err != nil {
		st.Err = err
		return p.buildFinalResult(st), nil
	}
	st.EscalationOpened = opened
	st.PersistMs = time.Since(start).Milliseconds()

	zlog.Info("chat persist done",
		zap.String("query_id", st.QueryID),
		zap.String("session_id", st.Session.SessionId),
		zap.Bool("escalation_opened", opened),
		zap.Int64("persist_ms", st.PersistMs))

	return p.buildFinalResult(st), nil
}

func (p *ChatPipeline) buildFinalResult(st *chatState) *ChatTurnResult {
	res := &ChatTurnResult{
		Answer:            st.FinalAnswer,
		Language:          st.Language,
		Intent:            st.Intent,
		Confidence:        st.Synth.Confidence,
		SourceRefs:        toSourceRefEntries(st.Sources),
		EscalationOpened:  st.EscalationOpened,
		Untranslated:      st.Untranslated,
		RetrievalDegraded: st.Degraded,
		QueryID:           st.QueryID,
		Timing: respond.TimingInfo{
			NormalizeMs: st.NormalizeMs,
			RetrieveMs:  st.RetrieveMs,
			SynthMs:     st.SynthMs,
			PersistMs:   st.PersistMs,
			TotalMs:     time.Since(st.Start).Milliseconds(),
		},
		Err: st.Err,
	}
	if st.Session != nil {
		res.SessionID = st.Session.SessionId
	}
	return res
}

func toSourceRefEntries(sources []retrieval.ScoredSource) []respond.SourceRefEntry {
	refs := make([]respond.SourceRefEntry, 0, len(sources))
	for _, s := range sources {
		refs = append(refs, respond.SourceRefEntry{
			RefID:    s.RefID,
			Kind:     s.Kind,
			Score:    s.Score,
			Category: s.Category,
			Excerpt:  truncateExcerpt(s.Content, 200),
		})
	}
	return refs
}

func encodeSourceRefs(sources []retrieval.ScoredSource) string {
	refs := toSourceRefEntries(sources)
	if len(refs) == 0 {
		return "[]"
	}
	b, err := json.Marshal(refs)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func truncateExcerpt(content string, maxLen int) string {
	runes := []rune(content)
	if len(runes) > maxLen {
		return string(runes[:maxLen]) + "..."
	}
	return content
}
