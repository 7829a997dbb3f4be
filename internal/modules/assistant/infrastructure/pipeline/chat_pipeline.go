package pipeline

import (
	"context"
	"fmt"

	"CampusAssist/internal/config"
	"CampusAssist/internal/modules/assistant/application/dto/respond"
	"CampusAssist/internal/modules/assistant/domain/repository"
	"CampusAssist/internal/modules/assistant/infrastructure/intent"
	"CampusAssist/internal/modules/assistant/infrastructure/language"
	"CampusAssist/internal/modules/assistant/infrastructure/retrieval"

	"github.com/cloudwego/eino/compose"
)

// ChatTurnRequest 一轮对话的流水线输入
type ChatTurnRequest struct {
	Platform   string
	ExternalId string
	Text       string
	Language   string // 声明语言（可空）
}

// ChatTurnResult 一轮对话的流水线输出
type ChatTurnResult struct {
	SessionID         string
	Answer            string
	Language          string
	Intent            string
	Confidence        int
	SourceRefs        []respond.SourceRefEntry
	EscalationOpened  bool
	Untranslated      bool
	RetrievalDegraded bool
	QueryID           string
	Timing            respond.TimingInfo
	Err               error
}

// ChatPipeline 应答流水线（Eino Graph 串联七个节点）：
// LoadSession → Normalize → Retrieve → Classify → Synthesize → Decide → Persist
type ChatPipeline struct {
	sessionRepo repository.SessionRepository
	messageRepo repository.MessageRepository
	turnRepo    repository.TurnRepository
	normalizer  *language.Normalizer
	retriever   *retrieval.Retriever
	classifier  *intent.Classifier
	synthesizer *Synthesizer
	conf        config.AssistantConfig
	r           compose.Runnable[*ChatTurnRequest, *ChatTurnResult]
}

func NewChatPipeline(
	sessionRepo repository.SessionRepository,
	messageRepo repository.MessageRepository,
	turnRepo repository.TurnRepository,
	normalizer *language.Normalizer,
	retriever *retrieval.Retriever,
	classifier *intent.Classifier,
	synthesizer *Synthesizer,
	conf config.AssistantConfig,
) (*ChatPipeline, error) {
	if sessionRepo == nil || messageRepo == nil || turnRepo == nil {
		return nil, fmt.Errorf("repositories are nil")
	}
	if normalizer == nil || retriever == nil || classifier == nil || synthesizer == nil {
		return nil, fmt.Errorf("pipeline stages are nil")
	}

	p := &ChatPipeline{
		sessionRepo: sessionRepo,
		messageRepo: messageRepo,
		turnRepo:    turnRepo,
		normalizer:  normalizer,
		retriever:   retriever,
		classifier:  classifier,
		synthesizer: synthesizer,
		conf:        conf,
	}

	r, err := p.buildGraph(context.Background())
	if err != nil {
		return nil, err
	}
	p.r = r
	return p, nil
}

// Execute 执行一轮对话。业务失败放在 Result.Err，框架错误走返回值。
func (p *ChatPipeline) Execute(ctx context.Context, req *ChatTurnRequest) (*ChatTurnResult, error) {
	if req == nil {
		return nil, fmt.Errorf("request is nil")
	}
	if p.r == nil {
		return nil, fmt.Errorf("pipeline runnable is nil")
	}
	return p.r.Invoke(ctx, req)
}

func (p *ChatPipeline) buildGraph(ctx context.Context) (compose.Runnable[*ChatTurnRequest, *ChatTurnResult], error) {
	const (
		LoadSession = "LoadSession"
		Normalize   = "Normalize"
		Retrieve    = "Retrieve"
		Classify    = "Classify"
		Synthesize  = "Synthesize"
		Decide      = "Decide"
		Persist     = "Persist"
	)

	g := compose.NewGraph[*ChatTurnRequest, *ChatTurnResult]()

	_ = g.AddLambdaNode(LoadSession, compose.InvokableLambdaWithOption(p.loadSessionNode), compose.WithNodeName(LoadSession))
	_ = g.AddLambdaNode(Normalize, compose.InvokableLambdaWithOption(p.normalizeNode), compose.WithNodeName(Normalize))
	_ = g.AddLambdaNode(Retrieve, compose.InvokableLambdaWithOption(p.retrieveNode), compose.WithNodeName(Retrieve))
	_ = g.AddLambdaNode(Classify, compose.InvokableLambdaWithOption(p.classifyNode), compose.WithNodeName(Classify))
	_ = g.AddLambdaNode(Synthesize, compose.InvokableLambdaWithOption(p.synthesizeNode), compose.WithNodeName(Synthesize))
	_ = g.AddLambdaNode(Decide, compose.InvokableLambdaWithOption(p.decideNode), compose.WithNodeName(Decide))
	_ = g.AddLambdaNode(Persist, compose.InvokableLambdaWithOption(p.persistNode), compose.WithNodeName(Persist))

	_ = g.AddEdge(compose.START, LoadSession)
	_ = g.AddEdge(LoadSession, Normalize)
	_ = g.AddEdge(Normalize, Retrieve)
	_ = g.AddEdge(Retrieve, Classify)
	_ = g.AddEdge(Classify, Synthesize)
	_ = g.AddEdge(Synthesize, Decide)
	_ = g.AddEdge(Decide, Persist)
	_ = g.AddEdge(Persist, compose.END)

	return g.Compile(ctx, compose.WithGraphName("ChatPipeline"), compose.WithNodeTriggerMode(compose.AllPredecessor))
}
