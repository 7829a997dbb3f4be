package config

import (
	"log"
	"os"

	"github.com/BurntSushi/toml"
)

type MainConfig struct {
	AppName string `toml:"appName"`
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
}

type MysqlConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	DatabaseName string `toml:"databaseName"`
}

type LogConfig struct {
	LogPath string `toml:"logPath"`
}

type JwtConfig struct {
	Key         string `toml:"key"`
	ExpireHours int    `toml:"expireHours"`
	Issuer      string `toml:"issuer"`
}

type MilvusConfig struct {
	Address        string `toml:"address"`
	Username       string `toml:"username"`
	Password       string `toml:"password"`
	DBName         string `toml:"dbName"`
	CollectionName string `toml:"collectionName"`
	VectorDim      int    `toml:"vectorDim"`
	MetricType     string `toml:"metricType"`
}

type KafkaConfig struct {
	Brokers         []string `toml:"brokers"`
	ClientID        string   `toml:"clientID"`
	ReindexTopic    string   `toml:"reindexTopic"`
	ConsumerGroupID string   `toml:"consumerGroupID"`
}

type AIEmbeddingConfig struct {
	Provider        string `toml:"provider"`
	APIKey          string `toml:"apiKey"`
	AccessKey       string `toml:"accessKey"`
	SecretKey       string `toml:"secretKey"`
	BaseURL         string `toml:"baseURL"`
	Region          string `toml:"region"`
	Model           string `toml:"model"`
	Dimensions      int    `toml:"dimensions"`
	TimeoutSeconds  int    `toml:"timeoutSeconds"`
	RetryTimes      int    `toml:"retryTimes"`
	ByAzure         bool   `toml:"byAzure"`
	AzureAPIVersion string `toml:"azureApiVersion"`
}

type AIChatModelConfig struct {
	Provider        string  `toml:"provider"`
	APIKey          string  `toml:"apiKey"`
	AccessKey       string  `toml:"accessKey"`
	SecretKey       string  `toml:"secretKey"`
	BaseURL         string  `toml:"baseURL"`
	Region          string  `toml:"region"`
	Model           string  `toml:"model"`
	TimeoutSeconds  int     `toml:"timeoutSeconds"`
	RetryTimes      int     `toml:"retryTimes"`
	Temperature     float64 `toml:"temperature"`
	MaxTokens       int     `toml:"maxTokens"`
	ByAzure         bool    `toml:"byAzure"`
	AzureAPIVersion string  `toml:"azureApiVersion"`
}

type AIConfig struct {
	Embedding AIEmbeddingConfig `toml:"embedding"`
	ChatModel AIChatModelConfig `toml:"chatModel"`
}

// BhashiniConfig Bhashini 翻译服务配置（主翻译通道）
type BhashiniConfig struct {
	UserID         string `toml:"userID"`
	APIKey         string `toml:"apiKey"`
	PipelineID     string `toml:"pipelineID"`
	Endpoint       string `toml:"endpoint"`
	TimeoutSeconds int    `toml:"timeoutSeconds"`
}

// GoogleTranslateConfig Google 翻译配置（备选翻译通道）
type GoogleTranslateConfig struct {
	APIKey         string `toml:"apiKey"`
	Endpoint       string `toml:"endpoint"`
	TimeoutSeconds int    `toml:"timeoutSeconds"`
}

type TranslationConfig struct {
	PivotLanguage      string                `toml:"pivotLanguage"`
	SupportedLanguages []string              `toml:"supportedLanguages"`
	Bhashini           BhashiniConfig        `toml:"bhashini"`
	GoogleTranslate    GoogleTranslateConfig `toml:"googleTranslate"`
}

// AssistantConfig 应答流水线的策略参数（阈值均为可调配置，非算法常量）
type AssistantConfig struct {
	TopK                  int      `toml:"topK"`                  // 检索返回条数（默认 5）
	MinScore              float64  `toml:"minScore"`              // 检索得分下限（默认 0.30）
	HighConfidence        int      `toml:"highConfidence"`        // 直接命中阈值，0-100（默认 75）
	EscalationThreshold   int      `toml:"escalationThreshold"`   // 低于该置信度升级人工，0-100（默认 40）
	GroundedBase          int      `toml:"groundedBase"`          // 有引用生成的置信度基数（默认 30）
	GroundedScale         int      `toml:"groundedScale"`         // 有引用生成的检索得分权重（默认 55）
	UngroundedConfidence  int      `toml:"ungroundedConfidence"`  // 无引用纯生成的置信度（默认 25）
	MaxHistory            int      `toml:"maxHistory"`            // 上下文窗口消息条数（默认 10）
	SessionTimeoutHours   int      `toml:"sessionTimeoutHours"`   // 会话空闲超时（默认 24）
	LockTTLSeconds        int      `toml:"lockTTLSeconds"`        // 会话锁 TTL（默认 60）
	LockWaitSeconds       int      `toml:"lockWaitSeconds"`       // 会话锁等待上限（默认 10）
	FallbackAnswer        string   `toml:"fallbackAnswer"`        // LLM 不可用时的兜底回答
	HighStakesIntents     []string `toml:"highStakesIntents"`     // 翻译链路耗尽时需升级的意图
	RollupCronSpec        string   `toml:"rollupCronSpec"`        // 日报表聚合的 Cron（默认 0 1 * * *）
	SessionSweepCronSpec  string   `toml:"sessionSweepCronSpec"`  // 超时会话清理的 Cron（默认 30 * * * *）
	RollupTopQueriesLimit int      `toml:"rollupTopQueriesLimit"` // 日报表热门问题条数（默认 10）
}

type RedisConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	Password     string `toml:"password"`
	DB           int    `toml:"db"`
	PoolSize     int    `toml:"poolSize"`
	MinIdleConns int    `toml:"minIdleConns"`
}

type Config struct {
	MainConfig        `toml:"mainConfig"`
	MysqlConfig       `toml:"mysqlConfig"`
	JwtConfig         `toml:"jwtConfig"`
	MilvusConfig      `toml:"milvusConfig"`
	KafkaConfig       `toml:"kafkaConfig"`
	AIConfig          `toml:"aiConfig"`
	TranslationConfig `toml:"translationConfig"`
	AssistantConfig   `toml:"assistantConfig"`
	LogConfig         `toml:"logConfig"`
	RedisConfig       `toml:"redisConfig"`
}

var config *Config

func LoadConfig() error {
	configPath := os.Getenv("CAMPUS_ASSIST_CONFIG")
	if configPath == "" {
		configPath = "configs/config_local.toml"
	}
	if _, err := toml.DecodeFile(configPath, config); err != nil {
		log.Printf("加载配置文件失败: %v, 尝试使用默认设置", err)
		return err
	}
	return nil
}

func GetConfig() *Config {
	if config == nil {
		config = new(Config)
		_ = LoadConfig()
		applyDefaults(config)
	}
	return config
}

// applyDefaults 填充策略参数默认值（与线上长期运行值保持一致）
func applyDefaults(c *Config) {
	if c.AssistantConfig.TopK <= 0 {
		c.AssistantConfig.TopK = 5
	}
	if c.AssistantConfig.MinScore <= 0 {
		c.AssistantConfig.MinScore = 0.30
	}
	if c.AssistantConfig.HighConfidence <= 0 {
		c.AssistantConfig.HighConfidence = 75
	}
	if c.AssistantConfig.EscalationThreshold <= 0 {
		c.AssistantConfig.EscalationThreshold = 40
	}
	if c.AssistantConfig.GroundedBase <= 0 {
		c.AssistantConfig.GroundedBase = 30
	}
	if c.AssistantConfig.GroundedScale <= 0 {
		c.AssistantConfig.GroundedScale = 55
	}
	if c.AssistantConfig.UngroundedConfidence <= 0 {
		c.AssistantConfig.UngroundedConfidence = 25
	}
	if c.AssistantConfig.MaxHistory <= 0 {
		c.AssistantConfig.MaxHistory = 10
	}
	if c.AssistantConfig.SessionTimeoutHours <= 0 {
		c.AssistantConfig.SessionTimeoutHours = 24
	}
	if c.AssistantConfig.LockTTLSeconds <= 0 {
		c.AssistantConfig.LockTTLSeconds = 60
	}
	if c.AssistantConfig.LockWaitSeconds <= 0 {
		c.AssistantConfig.LockWaitSeconds = 10
	}
	if c.AssistantConfig.FallbackAnswer == "" {
		c.AssistantConfig.FallbackAnswer = "I could not find a confident answer right now. Please rephrase your question, or contact the campus office for help."
	}
	if len(c.AssistantConfig.HighStakesIntents) == 0 {
		c.AssistantConfig.HighStakesIntents = []string{"escalation_request", "fee_inquiry", "admission_inquiry"}
	}
	if c.AssistantConfig.RollupCronSpec == "" {
		c.AssistantConfig.RollupCronSpec = "0 1 * * *"
	}
	if c.AssistantConfig.SessionSweepCronSpec == "" {
		c.AssistantConfig.SessionSweepCronSpec = "30 * * * *"
	}
	if c.AssistantConfig.RollupTopQueriesLimit <= 0 {
		c.AssistantConfig.RollupTopQueriesLimit = 10
	}
	if c.TranslationConfig.PivotLanguage == "" {
		c.TranslationConfig.PivotLanguage = "en"
	}
	if len(c.TranslationConfig.SupportedLanguages) == 0 {
		c.TranslationConfig.SupportedLanguages = []string{"en", "hi", "raj", "gu", "mr", "pa", "ta", "bn", "te", "kn", "ml", "or"}
	}
}
