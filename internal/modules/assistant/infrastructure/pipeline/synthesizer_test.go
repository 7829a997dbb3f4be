package pipeline

import (
	"context"
	"strings"
	"testing"

	"CampusAssist/internal/modules/assistant/infrastructure/retrieval"
)

func TestSynthesizeDirectAnswerSkipsModel(t *testing.T) {
	cm := &fakeChatModel{answer: "generated"}
	s := NewSynthesizer(cm, assistantConf())

	res := s.Synthesize(context.Background(), "what are the fees", nil, []retrieval.ScoredSource{
		{RefID: "faq:1", Content: "The fee is 5000 rupees.", Score: 0.92},
	})
	if res.Answer != "The fee is 5000 rupees." {
		t.Errorf("Answer = %q", res.Answer)
	}
	if res.Confidence != 92 {
		t.Errorf("Confidence = %d, want 92", res.Confidence)
	}
	if !res.Grounded || res.Fallback {
		t.Errorf("result flags = %+v", res)
	}
	if cm.calls != 0 {
		t.Errorf("model called %d times, want 0", cm.calls)
	}
}

func TestSynthesizeGroundedConfidenceFormula(t *testing.T) {
	cm := &fakeChatModel{answer: "Based on the fee schedule, 5000 rupees."}
	s := NewSynthesizer(cm, assistantConf())

	res := s.Synthesize(context.Background(), "fees?", nil, []retrieval.ScoredSource{
		{RefID: "doc:3#0", Content: "Fee schedule 2026", Score: 0.60},
	})
	// 30 + 55*0.60 = 63
	if res.Confidence != 63 {
		t.Errorf("Confidence = %d, want 63", res.Confidence)
	}
	if !res.Grounded {
		t.Error("generation with sources should be grounded")
	}
	if cm.calls != 1 {
		t.Errorf("model called %d times, want 1", cm.calls)
	}
	// 提示词里应带上检索依据
	foundRef := false
	for _, m := range cm.msgs {
		if m != nil && strings.Contains(m.Content, "doc:3#0") {
			foundRef = true
		}
	}
	if !foundRef {
		t.Error("prompt should include the reference material")
	}
}

func TestSynthesizeUngrounded(t *testing.T) {
	cm := &fakeChatModel{answer: "I am not sure, please contact the office."}
	s := NewSynthesizer(cm, assistantConf())

	res := s.Synthesize(context.Background(), "random question", nil, nil)
	if res.Confidence != 25 {
		t.Errorf("Confidence = %d, want 25", res.Confidence)
	}
	if res.Grounded {
		t.Error("no sources means ungrounded")
	}
}

func TestSynthesizeFallbackWithoutModel(t *testing.T) {
	s := NewSynthesizer(nil, assistantConf())

	res := s.Synthesize(context.Background(), "anything", nil, nil)
	if !res.Fallback {
		t.Error("nil model should fall back")
	}
	if res.Confidence != 0 {
		t.Errorf("Confidence = %d, want 0", res.Confidence)
	}
	if res.Answer != assistantConf().FallbackAnswer {
		t.Errorf("Answer = %q", res.Answer)
	}
}
