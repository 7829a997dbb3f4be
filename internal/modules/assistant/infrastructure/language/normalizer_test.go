package language

import (
	"context"
	"errors"
	"testing"

	"CampusAssist/internal/config"
)

type fakeProvider struct {
	name  string
	out   string
	err   error
	calls int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	f.calls++
	return f.out, f.err
}

func testConfig() *config.Config {
	return &config.Config{
		TranslationConfig: config.TranslationConfig{
			PivotLanguage:      "en",
			SupportedLanguages: []string{"en", "hi", "gu", "mr", "pa", "ta", "bn", "te", "kn", "ml", "or"},
		},
	}
}

func TestResolveCodeFallback(t *testing.T) {
	supported := map[string]bool{"en": true, "hi": true}
	cases := []struct {
		in   string
		want string
	}{
		{"hi", "hi"},
		{"HI-IN", "hi"},
		{"raj", "hi"},
		{"en_US", "en"},
		{"fr", ""},
		{"", ""},
	}
	for _, c := range cases {
		if got := ResolveCode(c.in, supported); got != c.want {
			t.Errorf("ResolveCode(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestDetectScriptLanguage(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"फीस कितनी है", "hi"},
		{"ફી કેટલી છે", "gu"},
		{"கட்டணம் எவ்வளவு", "ta"},
		{"ਫੀਸ ਕਿੰਨੀ ਹੈ", "pa"},
		{"what are the fees", ""},
	}
	for _, c := range cases {
		if got := DetectScriptLanguage(c.text); got != c.want {
			t.Errorf("DetectScriptLanguage(%q) = %q, want %q", c.text, got, c.want)
		}
	}
}

func TestResolveLanguageDeclaredVsScript(t *testing.T) {
	n := NewNormalizer(testConfig())

	// 声明 raj，天城文文本：回落到 hi
	if got := n.ResolveLanguage("फीस कितनी है", "raj"); got != "hi" {
		t.Errorf("raj declared: got %q, want hi", got)
	}
	// 声明 mr，天城文文本：信任声明
	if got := n.ResolveLanguage("फी किती आहे", "mr"); got != "mr" {
		t.Errorf("mr declared: got %q, want mr", got)
	}
	// 声明 hi 但文本是古吉拉特文：以检测为准
	if got := n.ResolveLanguage("ફી કેટલી છે", "hi"); got != "gu" {
		t.Errorf("script mismatch: got %q, want gu", got)
	}
	// 无声明拉丁文本：按中枢语言
	if got := n.ResolveLanguage("what are the fees", ""); got != "en" {
		t.Errorf("latin no declaration: got %q, want en", got)
	}
}

func TestNormalizePivotPassthrough(t *testing.T) {
	p := &fakeProvider{name: "primary", out: "translated"}
	n := NewNormalizer(testConfig(), p)

	res := n.Normalize(context.Background(), "what are the fees", "en")
	if res.PivotText != "what are the fees" || res.Language != "en" || res.Untranslated {
		t.Fatalf("pivot input should pass through untouched: %+v", res)
	}
	if p.calls != 0 {
		t.Errorf("provider should not be called for pivot input, got %d calls", p.calls)
	}
}

func TestNormalizeProviderChainFallback(t *testing.T) {
	primary := &fakeProvider{name: "primary", err: errors.New("upstream down")}
	secondary := &fakeProvider{name: "secondary", out: "how much are the fees"}
	n := NewNormalizer(testConfig(), primary, secondary)

	res := n.Normalize(context.Background(), "फीस कितनी है", "hi")
	if res.Untranslated {
		t.Fatal("secondary provider succeeded, should not be untranslated")
	}
	if res.PivotText != "how much are the fees" {
		t.Errorf("PivotText = %q", res.PivotText)
	}
	if primary.calls != 1 || secondary.calls != 1 {
		t.Errorf("expected both providers tried once, got %d/%d", primary.calls, secondary.calls)
	}
}

func TestNormalizeAllProvidersFail(t *testing.T) {
	primary := &fakeProvider{name: "primary", err: errors.New("down")}
	secondary := &fakeProvider{name: "secondary", err: errors.New("also down")}
	n := NewNormalizer(testConfig(), primary, secondary)

	res := n.Normalize(context.Background(), "फीस कितनी है", "hi")
	if !res.Untranslated {
		t.Fatal("expected untranslated passthrough")
	}
	if res.PivotText != "फीस कितनी है" {
		t.Errorf("passthrough should keep original text, got %q", res.PivotText)
	}
	if res.Language != "hi" {
		t.Errorf("Language = %q, want hi", res.Language)
	}
}

func TestDenormalizeFailureKeepsPivotText(t *testing.T) {
	p := &fakeProvider{name: "primary", err: errors.New("down")}
	n := NewNormalizer(testConfig(), p)

	out, ok := n.Denormalize(context.Background(), "The fee is 5000 rupees.", "hi")
	if ok {
		t.Fatal("expected translation failure")
	}
	if out != "The fee is 5000 rupees." {
		t.Errorf("failed denormalize should return pivot text, got %q", out)
	}

	out, ok = n.Denormalize(context.Background(), "The fee is 5000 rupees.", "en")
	if !ok || out != "The fee is 5000 rupees." {
		t.Errorf("pivot target should pass through, got %q ok=%v", out, ok)
	}
}
