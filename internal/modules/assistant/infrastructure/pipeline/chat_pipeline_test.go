package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"CampusAssist/internal/config"
	"CampusAssist/internal/modules/assistant/domain/entity"
	"CampusAssist/internal/modules/assistant/domain/repository"
	"CampusAssist/internal/modules/assistant/infrastructure/intent"
	"CampusAssist/internal/modules/assistant/infrastructure/language"
	"CampusAssist/internal/modules/assistant/infrastructure/retrieval"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// ---- fakes ----

type fakeSessionRepo struct {
	sessions map[string]*entity.Session // key: platform|external_id
	nextId   int64
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*entity.Session)}
}

func originKey(platform, externalId string) string { return platform + "|" + externalId }

func (f *fakeSessionRepo) CreateSession(ctx context.Context, s *entity.Session) error {
	f.nextId++
	s.Id = f.nextId
	f.sessions[originKey(s.Platform, s.ExternalId)] = s
	return nil
}

func (f *fakeSessionRepo) GetBySessionID(ctx context.Context, sessionId string) (*entity.Session, error) {
	for _, s := range f.sessions {
		if s.SessionId == sessionId {
			return s, nil
		}
	}
	return nil, nil
}

func (f *fakeSessionRepo) GetByOrigin(ctx context.Context, platform, externalId string) (*entity.Session, error) {
	return f.sessions[originKey(platform, externalId)], nil
}

func (f *fakeSessionRepo) DeactivateIdleBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

type fakeMessageRepo struct {
	messages  []*entity.Message
	lastLimit int
}

func (f *fakeMessageRepo) ListRecentMessages(ctx context.Context, sessionId string, limit int) ([]*entity.Message, error) {
	f.lastLimit = limit
	var out []*entity.Message
	for _, m := range f.messages {
		if m.SessionId == sessionId {
			out = append(out, m)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (f *fakeMessageRepo) ListMessages(ctx context.Context, sessionId string, limit, offset int) ([]*entity.Message, error) {
	return nil, nil
}

func (f *fakeMessageRepo) GetByID(ctx context.Context, id int64) (*entity.Message, error) {
	return nil, nil
}

func (f *fakeMessageRepo) ListByCreatedRange(ctx context.Context, from, to time.Time) ([]*entity.Message, error) {
	return nil, nil
}

type fakeTurnRepo struct {
	turns []*repository.TurnRecord
	open  map[string]bool // session_id → 有开启中的升级单
}

func newFakeTurnRepo() *fakeTurnRepo { return &fakeTurnRepo{open: make(map[string]bool)} }

func (f *fakeTurnRepo) CommitTurn(ctx context.Context, rec *repository.TurnRecord) (bool, error) {
	f.turns = append(f.turns, rec)
	if rec.EscalationReason == "" {
		return false, nil
	}
	if f.open[rec.Session.SessionId] {
		return false, nil
	}
	f.open[rec.Session.SessionId] = true
	return true, nil
}

type fakeChatModel struct {
	answer string
	err    error
	calls  int
	msgs   []*schema.Message
}

func (f *fakeChatModel) Generate(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.calls++
	f.msgs = in
	if f.err != nil {
		return nil, f.err
	}
	return &schema.Message{Role: schema.Assistant, Content: f.answer}, nil
}

func (f *fakeChatModel) Stream(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not supported")
}

type fakeTranslator struct {
	name string
	err  error
}

func (f *fakeTranslator) Name() string { return f.name }

func (f *fakeTranslator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "[" + targetLang + "] " + text, nil
}

type fakeFAQRepo struct {
	faqs []*entity.FAQ
}

func (f *fakeFAQRepo) CreateFAQ(ctx context.Context, faq *entity.FAQ) error        { return nil }
func (f *fakeFAQRepo) UpdateFAQ(ctx context.Context, faq *entity.FAQ) error        { return nil }
func (f *fakeFAQRepo) GetByID(ctx context.Context, id int64) (*entity.FAQ, error)  { return nil, nil }
func (f *fakeFAQRepo) ListActive(ctx context.Context) ([]*entity.FAQ, error)       { return f.faqs, nil }
func (f *fakeFAQRepo) SetStatus(ctx context.Context, id int64, status int8) error  { return nil }
func (f *fakeFAQRepo) List(ctx context.Context, category, language string, limit, offset int) ([]*entity.FAQ, error) {
	return f.faqs, nil
}

type fakeDocRepo struct{}

func (fakeDocRepo) CreateDocument(ctx context.Context, doc *entity.Document) error { return nil }
func (fakeDocRepo) GetByDocumentID(ctx context.Context, documentId string) (*entity.Document, error) {
	return nil, nil
}
func (fakeDocRepo) ListDocuments(ctx context.Context, limit, offset int) ([]*entity.Document, error) {
	return nil, nil
}
func (fakeDocRepo) ListIndexedIDs(ctx context.Context) ([]int64, error) { return nil, nil }
func (fakeDocRepo) ReplaceChunks(ctx context.Context, docId int64, chunks []*entity.DocumentChunk) error {
	return nil
}
func (fakeDocRepo) ListChunks(ctx context.Context, docId int64) ([]*entity.DocumentChunk, error) {
	return nil, nil
}
func (fakeDocRepo) MarkIndexed(ctx context.Context, docId int64, vectorIds map[int64]string) error {
	return nil
}

// ---- harness ----

type pipelineFixture struct {
	pipeline    *ChatPipeline
	sessionRepo *fakeSessionRepo
	messageRepo *fakeMessageRepo
	turnRepo    *fakeTurnRepo
	chatModel   *fakeChatModel
}

func assistantConf() config.AssistantConfig {
	return config.AssistantConfig{
		TopK:                 5,
		MinScore:             0.30,
		HighConfidence:       75,
		EscalationThreshold:  40,
		GroundedBase:         30,
		GroundedScale:        55,
		UngroundedConfidence: 25,
		MaxHistory:           10,
		FallbackAnswer:       "I could not find a confident answer right now.",
		HighStakesIntents:    []string{"escalation_request", "fee_inquiry", "admission_inquiry"},
	}
}

func translationConf() *config.Config {
	return &config.Config{
		TranslationConfig: config.TranslationConfig{
			PivotLanguage:      "en",
			SupportedLanguages: []string{"en", "hi", "gu", "mr", "pa", "ta", "bn", "te", "kn", "ml", "or"},
		},
	}
}

func feeFAQ() *entity.FAQ {
	return &entity.FAQ{
		Id:           1,
		Question:     "How much are the tuition fees?",
		Answer:       "The tuition fee is 5000 rupees per semester.",
		Category:     "fees",
		KeywordsJson: `["fee","fees","tuition"]`,
		Status:       entity.FAQStatusActive,
	}
}

func newFixture(t *testing.T, faqs []*entity.FAQ, chatModel *fakeChatModel, translators ...repository.TranslationProvider) *pipelineFixture {
	t.Helper()
	conf := assistantConf()
	normalizer := language.NewNormalizer(translationConf(), translators...)
	retr := retrieval.NewRetriever(&fakeFAQRepo{faqs: faqs}, fakeDocRepo{}, nil, nil, conf.TopK, conf.MinScore)

	var cm model.BaseChatModel
	if chatModel != nil {
		cm = chatModel
	}
	synth := NewSynthesizer(cm, conf)

	sessionRepo := newFakeSessionRepo()
	messageRepo := &fakeMessageRepo{}
	turnRepo := newFakeTurnRepo()

	p, err := NewChatPipeline(sessionRepo, messageRepo, turnRepo, normalizer, retr, intent.NewClassifier(), synth, conf)
	if err != nil {
		t.Fatal(err)
	}
	return &pipelineFixture{
		pipeline:    p,
		sessionRepo: sessionRepo,
		messageRepo: messageRepo,
		turnRepo:    turnRepo,
		chatModel:   chatModel,
	}
}

func (fx *pipelineFixture) run(t *testing.T, req *ChatTurnRequest) *ChatTurnResult {
	t.Helper()
	res, err := fx.pipeline.Execute(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	return res
}

// ---- tests ----

func TestChatTurnFAQDirectHit(t *testing.T) {
	fx := newFixture(t, []*entity.FAQ{feeFAQ()}, &fakeChatModel{answer: "generated"})

	res := fx.run(t, &ChatTurnRequest{Platform: "web", ExternalId: "u1", Text: "what are the fees"})
	if res.Err != nil {
		t.Fatal(res.Err)
	}
	if res.Answer != "The tuition fee is 5000 rupees per semester." {
		t.Errorf("direct hit should return the FAQ answer verbatim, got %q", res.Answer)
	}
	if res.Confidence != 100 {
		t.Errorf("Confidence = %d, want 100", res.Confidence)
	}
	if res.Intent != intent.IntentFeeInquiry {
		t.Errorf("Intent = %q", res.Intent)
	}
	if res.EscalationOpened {
		t.Error("confident answer should not escalate")
	}
	if fx.chatModel.calls != 0 {
		t.Errorf("direct hit should not call the model, got %d calls", fx.chatModel.calls)
	}
	if len(res.SourceRefs) == 0 || res.SourceRefs[0].RefID != "faq:1" {
		t.Errorf("SourceRefs = %+v", res.SourceRefs)
	}
	if res.SessionID == "" {
		t.Error("new session id should be assigned")
	}
}

func TestChatTurnTranslationChainExhausted(t *testing.T) {
	primary := &fakeTranslator{name: "primary", err: errors.New("down")}
	secondary := &fakeTranslator{name: "secondary", err: errors.New("down too")}
	fx := newFixture(t, []*entity.FAQ{feeFAQ()}, &fakeChatModel{answer: "generated"}, primary, secondary)

	res := fx.run(t, &ChatTurnRequest{Platform: "web", ExternalId: "u1", Text: "फीस कितनी है", Language: "hi"})
	if res.Err != nil {
		t.Fatal(res.Err)
	}
	if !res.Untranslated {
		t.Error("all providers down should mark the turn untranslated")
	}
	if res.Language != "hi" {
		t.Errorf("Language = %q, want hi", res.Language)
	}
	if res.Answer == "" {
		t.Error("turn should still produce an answer")
	}
	// pivot 文本是未翻译的原文，检索得分不可信，置信度必须压到无引用档
	if res.Confidence > assistantConf().UngroundedConfidence {
		t.Errorf("Confidence = %d, want at most %d for an untranslated turn", res.Confidence, assistantConf().UngroundedConfidence)
	}
}

func TestChatTurnUntranslatedHighStakesEscalates(t *testing.T) {
	// 高风险意图 + 翻译链路耗尽：即便 FAQ 直接命中也要升级人工
	primary := &fakeTranslator{name: "primary", err: errors.New("down")}
	secondary := &fakeTranslator{name: "secondary", err: errors.New("down too")}
	fx := newFixture(t, []*entity.FAQ{feeFAQ()}, nil, primary, secondary)

	res := fx.run(t, &ChatTurnRequest{Platform: "web", ExternalId: "u1", Text: "fees", Language: "hi"})
	if res.Err != nil {
		t.Fatal(res.Err)
	}
	if !res.Untranslated {
		t.Fatal("all providers down should mark the turn untranslated")
	}
	if res.Intent != intent.IntentFeeInquiry {
		t.Fatalf("Intent = %q", res.Intent)
	}
	if res.Confidence > assistantConf().UngroundedConfidence {
		t.Errorf("Confidence = %d, want at most %d", res.Confidence, assistantConf().UngroundedConfidence)
	}
	if !res.EscalationOpened {
		t.Fatal("untranslated high stakes turn should open an escalation")
	}
	rec := fx.turnRepo.turns[len(fx.turnRepo.turns)-1]
	if !strings.Contains(rec.EscalationReason, "translation unavailable") {
		t.Errorf("EscalationReason = %q, want the translation trigger", rec.EscalationReason)
	}
}

func TestChatTurnMidConfidenceHighStakesDoesNotEscalate(t *testing.T) {
	// fee_inquiry 部分命中 FAQ，置信度落在升级阈值与直答线之间：不该升级
	fx := newFixture(t, []*entity.FAQ{feeFAQ()}, &fakeChatModel{answer: "You can pay fees at the accounts office."})

	res := fx.run(t, &ChatTurnRequest{Platform: "web", ExternalId: "u1", Text: "how do I pay the fees"})
	if res.Err != nil {
		t.Fatal(res.Err)
	}
	if res.Intent != intent.IntentFeeInquiry {
		t.Fatalf("Intent = %q", res.Intent)
	}
	conf := assistantConf()
	if res.Confidence < conf.EscalationThreshold || res.Confidence >= conf.HighConfidence {
		t.Fatalf("Confidence = %d, want between %d and %d", res.Confidence, conf.EscalationThreshold, conf.HighConfidence)
	}
	if res.EscalationOpened {
		t.Error("confidence above the escalation threshold should not escalate")
	}
	rec := fx.turnRepo.turns[len(fx.turnRepo.turns)-1]
	if rec.EscalationReason != "" {
		t.Errorf("EscalationReason = %q, want empty", rec.EscalationReason)
	}
}

func TestChatTurnGenerationUnavailableFallsBack(t *testing.T) {
	// 无命中 FAQ，模型也不可用：兜底话术 + 置信度 0 + 低置信升级
	fx := newFixture(t, nil, nil)

	res := fx.run(t, &ChatTurnRequest{Platform: "web", ExternalId: "u1", Text: "where is the library"})
	if res.Err != nil {
		t.Fatal(res.Err)
	}
	if res.Answer != assistantConf().FallbackAnswer {
		t.Errorf("Answer = %q, want fallback", res.Answer)
	}
	if res.Confidence != 0 {
		t.Errorf("Confidence = %d, want 0", res.Confidence)
	}
	if !res.EscalationOpened {
		t.Error("confidence below threshold should open an escalation")
	}
}

func TestChatTurnGenerationErrorFallsBack(t *testing.T) {
	fx := newFixture(t, nil, &fakeChatModel{err: errors.New("model unavailable")})

	res := fx.run(t, &ChatTurnRequest{Platform: "web", ExternalId: "u1", Text: "where is the library"})
	if res.Err != nil {
		t.Fatal(res.Err)
	}
	if res.Answer != assistantConf().FallbackAnswer {
		t.Errorf("Answer = %q, want fallback", res.Answer)
	}
	if !res.EscalationOpened {
		t.Error("fallback answer should escalate")
	}
}

func TestChatTurnEscalationOpensOnce(t *testing.T) {
	fx := newFixture(t, nil, nil)

	first := fx.run(t, &ChatTurnRequest{Platform: "web", ExternalId: "u1", Text: "I want to talk to a human"})
	if first.Err != nil {
		t.Fatal(first.Err)
	}
	if !first.EscalationOpened {
		t.Fatal("first escalation request should open a ticket")
	}

	second := fx.run(t, &ChatTurnRequest{Platform: "web", ExternalId: "u1", Text: "I still want to talk to a human"})
	if second.Err != nil {
		t.Fatal(second.Err)
	}
	if second.EscalationOpened {
		t.Error("a session with an open ticket should not open another")
	}
	if first.SessionID != second.SessionID {
		t.Errorf("same origin should reuse the session: %q vs %q", first.SessionID, second.SessionID)
	}
}

func TestChatTurnHistoryWindowBound(t *testing.T) {
	cm := &fakeChatModel{answer: "generated"}
	fx := newFixture(t, nil, cm)

	// 先建会话
	res := fx.run(t, &ChatTurnRequest{Platform: "web", ExternalId: "u1", Text: "hello there friend"})
	if res.Err != nil {
		t.Fatal(res.Err)
	}

	// 塞入远超窗口的历史
	for i := 0; i < 30; i++ {
		fx.messageRepo.messages = append(fx.messageRepo.messages, &entity.Message{
			SessionId: res.SessionID,
			Role:      entity.RoleUser,
			Content:   fmt.Sprintf("old message %d", i),
		})
	}

	res = fx.run(t, &ChatTurnRequest{Platform: "web", ExternalId: "u1", Text: "tell me something new please"})
	if res.Err != nil {
		t.Fatal(res.Err)
	}
	if fx.messageRepo.lastLimit != assistantConf().MaxHistory {
		t.Errorf("history loaded with limit %d, want %d", fx.messageRepo.lastLimit, assistantConf().MaxHistory)
	}
	// system prompt + 最多 MaxHistory 条历史 + 用户问题
	maxMsgs := assistantConf().MaxHistory + 2
	if len(cm.msgs) > maxMsgs {
		t.Errorf("prompt has %d messages, want at most %d", len(cm.msgs), maxMsgs)
	}
}

func TestChatTurnCorruptContextIsReset(t *testing.T) {
	fx := newFixture(t, []*entity.FAQ{feeFAQ()}, nil)

	res := fx.run(t, &ChatTurnRequest{Platform: "web", ExternalId: "u1", Text: "what are the fees"})
	if res.Err != nil {
		t.Fatal(res.Err)
	}

	sess, _ := fx.sessionRepo.GetBySessionID(context.Background(), res.SessionID)
	sess.ContextJson = `{broken json`

	res = fx.run(t, &ChatTurnRequest{Platform: "web", ExternalId: "u1", Text: "what are the fees"})
	if res.Err != nil {
		t.Fatalf("corrupt context must not break the turn: %v", res.Err)
	}

	last := fx.turnRepo.turns[len(fx.turnRepo.turns)-1]
	parsed, err := entity.ParseSessionContext(last.ContextJson)
	if err != nil {
		t.Fatalf("persisted context should be valid again: %v", err)
	}
	if parsed.TurnCount != 1 {
		t.Errorf("reset context should restart turn count, got %d", parsed.TurnCount)
	}
}

func TestChatTurnUngroundedAnswerEscalates(t *testing.T) {
	// 检索为空、模型给出无依据回答：置信度 25 低于升级阈值，应升级
	fx := newFixture(t, nil, &fakeChatModel{answer: "Fees vary by program."})

	res := fx.run(t, &ChatTurnRequest{Platform: "web", ExternalId: "u1", Text: "how do I pay the fees"})
	if res.Err != nil {
		t.Fatal(res.Err)
	}
	if res.Intent != intent.IntentFeeInquiry {
		t.Fatalf("Intent = %q", res.Intent)
	}
	if res.Confidence >= assistantConf().EscalationThreshold {
		t.Fatalf("ungrounded confidence should stay below threshold, got %d", res.Confidence)
	}
	if !res.EscalationOpened {
		t.Error("answer below the escalation threshold should escalate")
	}
}

func TestChatTurnPersistedMessages(t *testing.T) {
	translator := &fakeTranslator{name: "primary"}
	fx := newFixture(t, []*entity.FAQ{feeFAQ()}, nil, translator)

	res := fx.run(t, &ChatTurnRequest{Platform: "telegram", ExternalId: "u9", Text: "फीस कितनी है", Language: "hi"})
	if res.Err != nil {
		t.Fatal(res.Err)
	}

	if len(fx.turnRepo.turns) != 1 {
		t.Fatalf("expected 1 committed turn, got %d", len(fx.turnRepo.turns))
	}
	rec := fx.turnRepo.turns[0]
	if rec.UserMessage.OriginalContent != "फीस कितनी है" {
		t.Errorf("user original content = %q", rec.UserMessage.OriginalContent)
	}
	if rec.UserMessage.OriginalLanguage != "hi" {
		t.Errorf("user original language = %q", rec.UserMessage.OriginalLanguage)
	}
	if !strings.HasPrefix(rec.UserMessage.Content, "[en] ") {
		t.Errorf("user pivot content = %q", rec.UserMessage.Content)
	}
	if rec.AssistantMessage.Role != entity.RoleAssistant {
		t.Errorf("assistant role = %q", rec.AssistantMessage.Role)
	}
	if rec.Language != "hi" {
		t.Errorf("turn language = %q", rec.Language)
	}
}
