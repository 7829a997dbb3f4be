package pipeline

import (
	"context"
	"fmt"
	"strings"

	"CampusAssist/internal/config"
	"CampusAssist/internal/modules/assistant/domain/entity"
	"CampusAssist/internal/modules/assistant/infrastructure/retrieval"
	"CampusAssist/pkg/xerr"
	"CampusAssist/pkg/zlog"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"
)

const systemPrompt = "You are the campus assistant for a university help desk. " +
	"Answer the student's question using only the provided reference material. " +
	"Be brief and factual. If the references do not contain the answer, say you " +
	"are not sure and suggest contacting the campus office."

// SynthResult 合成结果
type SynthResult struct {
	Answer     string // 中枢语言回答
	Confidence int    // 0-100
	Grounded   bool   // 回答是否有检索依据
	Fallback   bool   // 生成不可用，返回兜底话术
}

// Synthesizer 回答合成策略：
// 检索得分足够高时直接返回命中答案；否则带着检索依据走生成模型；
// 模型不可用或失败时退回兜底话术（置信度 0，由升级阈值接管）。
type Synthesizer struct {
	chatModel model.BaseChatModel
	conf      config.AssistantConfig
}

func NewSynthesizer(chatModel model.BaseChatModel, conf config.AssistantConfig) *Synthesizer {
	return &Synthesizer{chatModel: chatModel, conf: conf}
}

func (s *Synthesizer) Synthesize(ctx context.Context, query string, history []*entity.Message, sources []retrieval.ScoredSource) SynthResult {
	directThreshold := float64(s.conf.HighConfidence) / 100.0

	if len(sources) > 0 && sources[0].Score >= directThreshold {
		return SynthResult{
			Answer:     sources[0].Content,
			Confidence: clampConfidence(int(sources[0].Score * 100)),
			Grounded:   true,
		}
	}

	if s.chatModel == nil {
		return s.fallback()
	}

	msgs := s.buildPrompt(query, history, sources)
	resp, err := s.chatModel.Generate(ctx, msgs)
	if err != nil || resp == nil || strings.TrimSpace(resp.Content) == "" {
		genErr := xerr.ErrGenerationUnavailable
		if err != nil {
			genErr = xerr.Wrap(xerr.ErrGenerationUnavailable, err.Error())
		}
		zlog.Warn("answer generation failed, using fallback", zap.Error(genErr))
		return s.fallback()
	}

	if len(sources) > 0 {
		conf := float64(s.conf.GroundedBase) + float64(s.conf.GroundedScale)*sources[0].Score
		return SynthResult{
			Answer:     resp.Content,
			Confidence: clampConfidence(int(conf)),
			Grounded:   true,
		}
	}
	return SynthResult{
		Answer:     resp.Content,
		Confidence: clampConfidence(s.conf.UngroundedConfidence),
	}
}

func (s *Synthesizer) fallback() SynthResult {
	return SynthResult{
		Answer:   s.conf.FallbackAnswer,
		Fallback: true,
	}
}

func (s *Synthesizer) buildPrompt(query string, history []*entity.Message, sources []retrieval.ScoredSource) []*schema.Message {
	msgs := make([]*schema.Message, 0, len(history)+3)
	msgs = append(msgs, &schema.Message{Role: schema.System, Content: systemPrompt})

	for _, m := range history {
		role := schema.User
		switch m.Role {
		case entity.RoleAssistant:
			role = schema.Assistant
		case entity.RoleSystem:
			role = schema.System
		}
		msgs = append(msgs, &schema.Message{Role: role, Content: m.Content})
	}

	if len(sources) > 0 {
		var sb strings.Builder
		sb.WriteString("Reference material:\n")
		for _, src := range sources {
			sb.WriteString(fmt.Sprintf("[%s] (score %.2f) %s\n", src.RefID, src.Score, src.Content))
		}
		msgs = append(msgs, &schema.Message{Role: schema.System, Content: sb.String()})
	}

	msgs = append(msgs, &schema.Message{Role: schema.User, Content: query})
	return msgs
}

func clampConfidence(c int) int {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}
