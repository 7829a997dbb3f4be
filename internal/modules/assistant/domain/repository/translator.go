package repository

import "context"

// TranslationProvider 翻译能力抽象。
// 实现可能失败，Normalizer 按"主通道 → 备选通道 → 原样透传"的链路逐个降级，
// 任何一家失败都不应让整条应答流水线中断。
type TranslationProvider interface {
	// Name 通道名（日志与降级记录用）
	Name() string

	// Translate 把 text 从 sourceLang 翻译到 targetLang
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}
