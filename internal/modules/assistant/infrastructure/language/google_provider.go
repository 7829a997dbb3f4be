package language

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"CampusAssist/internal/config"
	"CampusAssist/pkg/xerr"
)

// GoogleTranslateProvider 备选翻译通道，走 Translation API v2
type GoogleTranslateProvider struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

func NewGoogleTranslateProvider(conf *config.Config) (*GoogleTranslateProvider, error) {
	if conf == nil {
		return nil, fmt.Errorf("nil config")
	}

	apiKey := strings.TrimSpace(conf.TranslationConfig.GoogleTranslate.APIKey)
	if apiKey == "" {
		apiKey = strings.TrimSpace(os.Getenv("GOOGLE_TRANSLATE_API_KEY"))
	}
	if apiKey == "" {
		return nil, fmt.Errorf("google translation missing apiKey")
	}

	endpoint := strings.TrimSpace(conf.TranslationConfig.GoogleTranslate.Endpoint)
	if endpoint == "" {
		endpoint = "https://translation.googleapis.com/language/translate/v2"
	}

	timeout := 10 * time.Second
	if conf.TranslationConfig.GoogleTranslate.TimeoutSeconds > 0 {
		timeout = time.Duration(conf.TranslationConfig.GoogleTranslate.TimeoutSeconds) * time.Second
	}

	return &GoogleTranslateProvider{
		apiKey:   apiKey,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

func (p *GoogleTranslateProvider) Name() string { return "google" }

type googleTranslateResponse struct {
	Data struct {
		Translations []struct {
			TranslatedText string `json:"translatedText"`
		} `json:"translations"`
	} `json:"data"`
}

func (p *GoogleTranslateProvider) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	form := url.Values{}
	form.Set("q", text)
	form.Set("source", sourceLang)
	form.Set("target", targetLang)
	form.Set("format", "text")
	form.Set("key", p.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", xerr.Wrap(xerr.ErrTranslationUnavailable,
			fmt.Sprintf("google translate status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var out googleTranslateResponse
	if err = json.Unmarshal(body, &out); err != nil {
		return "", err
	}
	if len(out.Data.Translations) == 0 || out.Data.Translations[0].TranslatedText == "" {
		return "", xerr.New(xerr.CodeTranslationUnavailable, "google translate returned empty translation")
	}
	return out.Data.Translations[0].TranslatedText, nil
}
