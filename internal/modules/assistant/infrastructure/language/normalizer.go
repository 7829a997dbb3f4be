package language

import (
	"context"
	"strings"

	"CampusAssist/internal/config"
	"CampusAssist/internal/modules/assistant/domain/repository"
	"CampusAssist/pkg/zlog"

	"go.uber.org/zap"
)

// NormalizeResult 入方向归一化结果
type NormalizeResult struct {
	PivotText    string // 中枢语言（en）文本
	Language     string // 解析后的会话语言
	Untranslated bool   // 所有翻译通道都失败，原文透传
}

// Normalizer 把用户文本折算到中枢语言，再把回答折算回会话语言。
// 翻译通道按顺序尝试，全部失败时降级为原文透传而不是报错。
type Normalizer struct {
	pivot     string
	supported map[string]bool
	providers []repository.TranslationProvider
}

func NewNormalizer(conf *config.Config, providers ...repository.TranslationProvider) *Normalizer {
	pivot := NormalizeCode(conf.TranslationConfig.PivotLanguage)
	if pivot == "" {
		pivot = "en"
	}
	supported := make(map[string]bool, len(conf.TranslationConfig.SupportedLanguages))
	for _, code := range conf.TranslationConfig.SupportedLanguages {
		supported[NormalizeCode(code)] = true
	}
	supported[pivot] = true
	return &Normalizer{pivot: pivot, supported: supported, providers: providers}
}

func (n *Normalizer) Pivot() string { return n.pivot }

// ResolveLanguage 结合声明语言与文字检测确定会话语言。
// 声明可信时优先声明；声明缺失或与文字明显冲突时以检测为准。
func (n *Normalizer) ResolveLanguage(text, declared string) string {
	resolved := ResolveCode(declared, n.supported)
	detected := DetectScriptLanguage(text)

	if detected == "" {
		// 纯拉丁文本：有合法声明就信声明，否则按中枢语言处理
		if resolved != "" {
			return resolved
		}
		return n.pivot
	}
	if detected == "hi" && devanagariLangs[NormalizeCode(declared)] && resolved != "" {
		// 天城文由 hi/mr 等共用，声明了其中之一则保留声明
		return resolved
	}
	if n.supported[detected] {
		return detected
	}
	if resolved != "" {
		return resolved
	}
	return n.pivot
}

// Normalize 入方向：把用户文本翻译到中枢语言
func (n *Normalizer) Normalize(ctx context.Context, text, declared string) NormalizeResult {
	lang := n.ResolveLanguage(text, declared)
	if lang == n.pivot {
		return NormalizeResult{PivotText: text, Language: lang}
	}
	out, ok := n.translate(ctx, text, lang, n.pivot)
	if !ok {
		return NormalizeResult{PivotText: text, Language: lang, Untranslated: true}
	}
	return NormalizeResult{PivotText: out, Language: lang}
}

// Denormalize 出方向：把中枢语言回答翻译回会话语言。
// 翻译失败时返回中枢语言原文，保证用户总能拿到回答。
func (n *Normalizer) Denormalize(ctx context.Context, text, targetLang string) (string, bool) {
	targetLang = NormalizeCode(targetLang)
	if targetLang == "" || targetLang == n.pivot {
		return text, true
	}
	out, ok := n.translate(ctx, text, n.pivot, targetLang)
	if !ok {
		return text, false
	}
	return out, true
}

func (n *Normalizer) translate(ctx context.Context, text, source, target string) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", true
	}
	for _, p := range n.providers {
		out, err := p.Translate(ctx, text, source, target)
		if err == nil && strings.TrimSpace(out) != "" {
			return out, true
		}
		zlog.Warn("translation provider failed",
			zap.String("provider", p.Name()),
			zap.String("source", source),
			zap.String("target", target),
			zap.Error(err))
	}
	return "", false
}
