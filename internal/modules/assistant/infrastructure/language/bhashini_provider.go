package language

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"CampusAssist/internal/config"
	"CampusAssist/pkg/xerr"
)

// BhashiniProvider 主翻译通道，走 Bhashini pipeline 接口
type BhashiniProvider struct {
	userID     string
	apiKey     string
	pipelineID string
	endpoint   string
	client     *http.Client
}

func NewBhashiniProvider(conf *config.Config) (*BhashiniProvider, error) {
	if conf == nil {
		return nil, fmt.Errorf("nil config")
	}

	userID := strings.TrimSpace(conf.TranslationConfig.Bhashini.UserID)
	apiKey := strings.TrimSpace(conf.TranslationConfig.Bhashini.APIKey)
	pipelineID := strings.TrimSpace(conf.TranslationConfig.Bhashini.PipelineID)
	endpoint := strings.TrimSpace(conf.TranslationConfig.Bhashini.Endpoint)
	if userID == "" {
		userID = strings.TrimSpace(os.Getenv("BHASHINI_USER_ID"))
	}
	if apiKey == "" {
		apiKey = strings.TrimSpace(os.Getenv("BHASHINI_API_KEY"))
	}
	if pipelineID == "" {
		pipelineID = strings.TrimSpace(os.Getenv("BHASHINI_PIPELINE_ID"))
	}
	if userID == "" || apiKey == "" || pipelineID == "" {
		return nil, fmt.Errorf("bhashini translation missing userID/apiKey/pipelineID")
	}
	if endpoint == "" {
		endpoint = "https://dhruva-api.bhashini.gov.in/services/inference/pipeline"
	}

	timeout := 15 * time.Second
	if conf.TranslationConfig.Bhashini.TimeoutSeconds > 0 {
		timeout = time.Duration(conf.TranslationConfig.Bhashini.TimeoutSeconds) * time.Second
	}

	return &BhashiniProvider{
		userID:     userID,
		apiKey:     apiKey,
		pipelineID: pipelineID,
		endpoint:   endpoint,
		client:     &http.Client{Timeout: timeout},
	}, nil
}

func (p *BhashiniProvider) Name() string { return "bhashini" }

type bhashiniRequest struct {
	PipelineTasks []bhashiniTask `json:"pipelineTasks"`
	InputData     bhashiniInput  `json:"inputData"`
}

type bhashiniTask struct {
	TaskType string         `json:"taskType"`
	Config   bhashiniConfig `json:"config"`
}

type bhashiniConfig struct {
	Language bhashiniLangPair `json:"language"`
}

type bhashiniLangPair struct {
	SourceLanguage string `json:"sourceLanguage"`
	TargetLanguage string `json:"targetLanguage"`
}

type bhashiniInput struct {
	Input []bhashiniText `json:"input"`
}

type bhashiniText struct {
	Source string `json:"source"`
	Target string `json:"target,omitempty"`
}

type bhashiniResponse struct {
	PipelineResponse []struct {
		TaskType string         `json:"taskType"`
		Output   []bhashiniText `json:"output"`
	} `json:"pipelineResponse"`
}

func (p *BhashiniProvider) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	reqBody := bhashiniRequest{
		PipelineTasks: []bhashiniTask{{
			TaskType: "translation",
			Config: bhashiniConfig{
				Language: bhashiniLangPair{SourceLanguage: sourceLang, TargetLanguage: targetLang},
			},
		}},
		InputData: bhashiniInput{Input: []bhashiniText{{Source: text}}},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("userID", p.userID)
	req.Header.Set("ulcaApiKey", p.apiKey)
	req.Header.Set("pipelineId", p.pipelineID)

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
			fmt.Sprintf("bhashini status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var out bhashiniResponse
	if err = json.Unmarshal(body, &out); err != nil {
		return "", err
	}
	for _, task := range out.PipelineResponse {
		if task.TaskType != "translation" {
			continue
		}
		if len(task.Output) > 0 && task.Output[0].Target != "" {
			return task.Output[0].Target, nil
		}
	}
	return "", xerr.New(xerr.CodeTranslationUnavailable, "bhashini returned empty translation")
}
