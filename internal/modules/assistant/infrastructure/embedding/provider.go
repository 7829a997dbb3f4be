package embedding

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"CampusAssist/internal/config"

	arkEmbed "github.com/cloudwego/eino-ext/components/embedding/ark"
	dashscopeEmbed "github.com/cloudwego/eino-ext/components/embedding/dashscope"
	openaiEmbed "github.com/cloudwego/eino-ext/components/embedding/openai"
	"github.com/cloudwego/eino/components/embedding"
)

type EmbedderMeta struct {
	Provider string
	Model    string
	Dim      int
}

// NewEmbedderFromConfig 按配置构造向量化组件，维度缺省取 Milvus 集合维度
func NewEmbedderFromConfig(ctx context.Context, conf *config.Config) (embedding.Embedder, EmbedderMeta, error) {
	if conf == nil {
		return nil, EmbedderMeta{}, fmt.Errorf("nil config")
	}

	dim := conf.MilvusConfig.VectorDim
	if conf.AIConfig.Embedding.Dimensions > 0 {
		dim = conf.AIConfig.Embedding.Dimensions
	}
	provider := strings.ToLower(strings.TrimSpace(conf.AIConfig.Embedding.Provider))
	model := strings.TrimSpace(conf.AIConfig.Embedding.Model)

	switch provider {
	case "", "mock":
		if model == "" {
			model = "mock"
		}
		return NewMockEmbedder(dim), EmbedderMeta{Provider: "mock", Model: model, Dim: dim}, nil
	case "openai":
		em, err := newOpenAIEmbedder(ctx, conf, model, dim)
		if err != nil {
			return nil, EmbedderMeta{}, err
		}
		return em, EmbedderMeta{Provider: "openai", Model: model, Dim: dim}, nil
	case "ark":
		em, err := newArkEmbedder(ctx, conf, model)
		if err != nil {
			return nil, EmbedderMeta{}, err
		}
		return em, EmbedderMeta{Provider: "ark", Model: model, Dim: dim}, nil
	case "dashscope":
		em, err := newDashscopeEmbedder(ctx, conf, model, dim)
		if err != nil {
			return nil, EmbedderMeta{}, err
		}
		return em, EmbedderMeta{Provider: "dashscope", Model: model, Dim: dim}, nil
	default:
		return nil, EmbedderMeta{}, fmt.Errorf("unknown embedding provider: %s", provider)
	}
}

func newOpenAIEmbedder(ctx context.Context, conf *config.Config, model string, dim int) (embedding.Embedder, error) {
	apiKey := firstNonEmpty(conf.AIConfig.Embedding.APIKey, os.Getenv("OPENAI_API_KEY"))
	baseURL := firstNonEmpty(conf.AIConfig.Embedding.BaseURL, os.Getenv("OPENAI_BASE_URL"))
	if model == "" {
		model = strings.TrimSpace(os.Getenv("OPENAI_EMBED_MODEL"))
	}
	if apiKey == "" || model == "" {
		return nil, fmt.Errorf("openai embedding missing apiKey/model")
	}

	timeout := 30 * time.Second
	if conf.AIConfig.Embedding.TimeoutSeconds > 0 {
		timeout = time.Duration(conf.AIConfig.Embedding.TimeoutSeconds) * time.Second
	}
	localDim := dim
	return openaiEmbed.NewEmbedder(ctx, &openaiEmbed.EmbeddingConfig{
		APIKey:     apiKey,
		Model:      model,
		BaseURL:    baseURL,
		Timeout:    timeout,
		Dimensions: &localDim,
	})
}

func newArkEmbedder(ctx context.Context, conf *config.Config, model string) (embedding.Embedder, error) {
	apiKey := firstNonEmpty(conf.AIConfig.Embedding.APIKey, os.Getenv("ARK_API_KEY"))
	baseURL := firstNonEmpty(conf.AIConfig.Embedding.BaseURL, os.Getenv("ARK_BASE_URL"))
	if model == "" {
		model = strings.TrimSpace(os.Getenv("ARK_EMBED_MODEL"))
	}
	if apiKey == "" || model == "" {
		return nil, fmt.Errorf("ark embedding missing apiKey/model")
	}
	return arkEmbed.NewEmbedder(ctx, &arkEmbed.EmbeddingConfig{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: baseURL,
	})
}

func newDashscopeEmbedder(ctx context.Context, conf *config.Config, model string, dim int) (embedding.Embedder, error) {
	apiKey := firstNonEmpty(conf.AIConfig.Embedding.APIKey, os.Getenv("DASHSCOPE_API_KEY"))
	if model == "" {
		model = strings.TrimSpace(os.Getenv("DASHSCOPE_EMBED_MODEL"))
	}
	if apiKey == "" || model == "" {
		return nil, fmt.Errorf("dashscope embedding missing apiKey/model")
	}
	localDim := dim
	return dashscopeEmbed.NewEmbedder(ctx, &dashscopeEmbed.EmbeddingConfig{
		Model:      model,
		APIKey:     apiKey,
		Dimensions: &localDim,
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
