package http

import (
	"context"
	"fmt"
	"strings"

	"CampusAssist/internal/config"
	"CampusAssist/internal/initial"
	jwtMiddleware "CampusAssist/internal/middleware/jwt"
	"CampusAssist/internal/modules/assistant/application/service"
	"CampusAssist/internal/modules/assistant/domain/repository"
	"CampusAssist/internal/modules/assistant/infrastructure/embedding"
	"CampusAssist/internal/modules/assistant/infrastructure/intent"
	"CampusAssist/internal/modules/assistant/infrastructure/language"
	"CampusAssist/internal/modules/assistant/infrastructure/llm"
	"CampusAssist/internal/modules/assistant/infrastructure/mq"
	"CampusAssist/internal/modules/assistant/infrastructure/mq/kafka"
	"CampusAssist/internal/modules/assistant/infrastructure/persistence"
	"CampusAssist/internal/modules/assistant/infrastructure/pipeline"
	"CampusAssist/internal/modules/assistant/infrastructure/queue"
	"CampusAssist/internal/modules/assistant/infrastructure/retrieval"
	"CampusAssist/internal/modules/assistant/infrastructure/sessionlock"
	"CampusAssist/internal/modules/assistant/infrastructure/vectordb"
	assistantHandler "CampusAssist/internal/modules/assistant/interface/http"
	"CampusAssist/internal/modules/assistant/interface/scheduler"
	"CampusAssist/pkg/redis"
	"CampusAssist/pkg/zlog"

	einoEmbedding "github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
	cors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var GE *gin.Engine

// Scheduler 定时任务入口，main 中 Start/Stop
var Scheduler *scheduler.SchedulerManager

// ReindexWorker 重建索引消费者，Kafka 未配置时为 nil
var ReindexWorker *queue.ReindexConsumerWorker

func init() {
	conf := config.GetConfig()
	ctx := context.Background()

	GE = gin.Default()
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	GE.Use(cors.New(corsConfig))

	// 仓储层
	sessionRepo := persistence.NewSessionRepository(initial.GormDB)
	messageRepo := persistence.NewMessageRepository(initial.GormDB)
	turnRepo := persistence.NewTurnRepository(initial.GormDB)
	faqRepo := persistence.NewFAQRepository(initial.GormDB)
	docRepo := persistence.NewDocumentRepository(initial.GormDB)
	escRepo := persistence.NewEscalationRepository(initial.GormDB)
	fbRepo := persistence.NewFeedbackRepository(initial.GormDB)
	logRepo := persistence.NewConversationLogRepository(initial.GormDB)

	// AI 组件：嵌入模型缺失只降级为纯关键词检索，对话模型缺失走兜底回答
	embedder := buildEmbedder(ctx, conf)
	chatModel := buildChatModel(ctx, conf)
	vectors := buildVectorStore(conf)

	// 翻译链：Bhashini 优先，Google 备选，都挂掉则原文透传
	var providers []repository.TranslationProvider
	if p, err := language.NewBhashiniProvider(conf); err != nil {
		zlog.Warn("bhashini provider unavailable", zap.Error(err))
	} else {
		providers = append(providers, p)
	}
	if p, err := language.NewGoogleTranslateProvider(conf); err != nil {
		zlog.Warn("google translate provider unavailable", zap.Error(err))
	} else {
		providers = append(providers, p)
	}
	normalizer := language.NewNormalizer(conf, providers...)

	retriever := retrieval.NewRetriever(faqRepo, docRepo, vectors, embedder,
		conf.AssistantConfig.TopK, conf.AssistantConfig.MinScore)
	classifier := intent.NewClassifier()
	synthesizer := pipeline.NewSynthesizer(chatModel, conf.AssistantConfig)

	chatPipe, err := pipeline.NewChatPipeline(
		sessionRepo, messageRepo, turnRepo,
		normalizer, retriever, classifier, synthesizer,
		conf.AssistantConfig,
	)
	if err != nil {
		zlog.Fatal(fmt.Sprintf("build chat pipeline failed: %v", err))
	}

	// 会话锁：Redis 可用用分布式锁，否则退化为进程内锁（仅单实例部署安全）
	var locker repository.SessionLocker
	if redis.IsConnected() {
		locker = sessionlock.NewRedisLocker()
	} else {
		zlog.Warn("redis unavailable, falling back to in-process session lock")
		locker = sessionlock.NewLocalLocker()
	}

	publisher := buildPublisher(conf)
	ReindexWorker = buildReindexWorker(conf, docRepo, vectors, embedder)

	chatSvc := service.NewChatService(locker, chatPipe, sessionRepo, messageRepo, conf.AssistantConfig)
	faqSvc := service.NewFAQService(faqRepo)
	docSvc := service.NewDocumentService(docRepo, publisher, conf.KafkaConfig.ReindexTopic)
	escSvc := service.NewEscalationService(escRepo)
	fbSvc := service.NewFeedbackService(fbRepo, messageRepo)
	analyticsSvc := service.NewAnalyticsService(messageRepo, escRepo, logRepo, conf.AssistantConfig)

	Scheduler = scheduler.NewSchedulerManager(analyticsSvc, sessionRepo, conf.AssistantConfig)

	chatH := assistantHandler.NewChatHandler(chatSvc)
	faqH := assistantHandler.NewFAQHandler(faqSvc)
	docH := assistantHandler.NewDocumentHandler(docSvc)
	escH := assistantHandler.NewEscalationHandler(escSvc)
	fbH := assistantHandler.NewFeedbackHandler(fbSvc)
	analyticsH := assistantHandler.NewAnalyticsHandler(analyticsSvc)

	// 学生侧入口不做鉴权：对话入口来自 Web 挂件和 IM 回调
	GE.POST("/assistant/chat", chatH.Chat)
	GE.GET("/assistant/history", chatH.History)
	GE.POST("/assistant/feedback", fbH.Create)

	admin := GE.Group("/admin")
	admin.Use(jwtMiddleware.Auth())
	admin.POST("/faq/create", faqH.Create)
	admin.POST("/faq/update", faqH.Update)
	admin.POST("/faq/status", faqH.SetStatus)
	admin.GET("/faq/list", faqH.List)
	admin.POST("/document/create", docH.Create)
	admin.GET("/document/list", docH.List)
	admin.POST("/document/ingest", docH.Ingest)
	admin.POST("/document/reindex", docH.Reindex)
	admin.GET("/escalation/list", escH.List)
	admin.POST("/escalation/assign", escH.Assign)
	admin.POST("/escalation/resolve", escH.Resolve)
	admin.POST("/escalation/close", escH.Close)
	admin.POST("/analytics/rollup", analyticsH.Rollup)
	admin.GET("/analytics/report", analyticsH.Report)
}

func buildEmbedder(ctx context.Context, conf *config.Config) einoEmbedding.Embedder {
	embedder, meta, err := embedding.NewEmbedderFromConfig(ctx, conf)
	if err != nil {
		zlog.Warn("embedder unavailable, vector retrieval disabled", zap.Error(err))
		return nil
	}
	zlog.Info("embedder ready", zap.String("provider", meta.Provider), zap.String("model", meta.Model))
	return embedder
}

func buildChatModel(ctx context.Context, conf *config.Config) model.BaseChatModel {
	chatModel, meta, err := llm.NewChatModelFromConfig(ctx, conf)
	if err != nil {
		zlog.Warn("chat model unavailable, answers fall back to canned reply", zap.Error(err))
		return nil
	}
	zlog.Info("chat model ready", zap.String("provider", meta.Provider), zap.String("model", meta.Model))
	return chatModel
}

func buildVectorStore(conf *config.Config) repository.VectorStore {
	if initial.MilvusClient == nil {
		return nil
	}
	collection := strings.TrimSpace(conf.MilvusConfig.CollectionName)
	if collection == "" {
		collection = "ca_doc_vectors"
	}
	dim := conf.MilvusConfig.VectorDim
	if dim <= 0 {
		dim = 768
	}
	store, err := vectordb.NewMilvusStore(initial.MilvusClient, collection, dim)
	if err != nil {
		zlog.Warn("milvus store unavailable, vector retrieval disabled", zap.Error(err))
		return nil
	}
	return store
}

func buildPublisher(conf *config.Config) mq.Publisher {
	if len(conf.KafkaConfig.Brokers) == 0 {
		zlog.Warn("kafka not configured, reindex events will not be published")
		return nil
	}
	publisher, err := kafka.NewSaramaPublisher(kafka.PublisherConfig{
		Brokers:  conf.KafkaConfig.Brokers,
		ClientID: conf.KafkaConfig.ClientID,
	})
	if err != nil {
		zlog.Error("kafka publisher init failed", zap.Error(err))
		return nil
	}
	return publisher
}

func buildReindexWorker(
	conf *config.Config,
	docRepo repository.DocumentRepository,
	vectors repository.VectorStore,
	embedder einoEmbedding.Embedder,
) *queue.ReindexConsumerWorker {
	if len(conf.KafkaConfig.Brokers) == 0 || vectors == nil || embedder == nil {
		zlog.Warn("reindex consumer disabled (kafka/milvus/embedder not all available)")
		return nil
	}
	consumer, err := kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers:  conf.KafkaConfig.Brokers,
		GroupID:  conf.KafkaConfig.ConsumerGroupID,
		Topics:   []string{conf.KafkaConfig.ReindexTopic},
		ClientID: conf.KafkaConfig.ClientID,
	})
	if err != nil {
		zlog.Error("kafka consumer init failed", zap.Error(err))
		return nil
	}
	return queue.NewReindexConsumerWorker(consumer, docRepo, vectors, embedder)
}
