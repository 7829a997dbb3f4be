package service

import (
	"context"
	"testing"
	"time"

	"CampusAssist/internal/config"
	"CampusAssist/internal/modules/assistant/application/dto/request"
	"CampusAssist/internal/modules/assistant/domain/entity"
)

type fakeMessageRepo struct {
	messages []*entity.Message
}

func (f *fakeMessageRepo) ListRecentMessages(ctx context.Context, sessionId string, limit int) ([]*entity.Message, error) {
	return nil, nil
}

func (f *fakeMessageRepo) ListMessages(ctx context.Context, sessionId string, limit, offset int) ([]*entity.Message, error) {
	return nil, nil
}

func (f *fakeMessageRepo) GetByID(ctx context.Context, id int64) (*entity.Message, error) {
	for _, m := range f.messages {
		if m.Id == id {
			return m, nil
		}
	}
	return nil, nil
}

func (f *fakeMessageRepo) ListByCreatedRange(ctx context.Context, from, to time.Time) ([]*entity.Message, error) {
	var out []*entity.Message
	for _, m := range f.messages {
		if !m.CreatedAt.Before(from) && m.CreatedAt.Before(to) {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeEscalationRepo struct {
	escalations []*entity.Escalation
	updated     []*entity.Escalation
}

func (f *fakeEscalationRepo) EnsureOpenEscalation(ctx context.Context, sessionId, reason string) (bool, error) {
	return false, nil
}

func (f *fakeEscalationRepo) GetOpenBySession(ctx context.Context, sessionId string) (*entity.Escalation, error) {
	return nil, nil
}

func (f *fakeEscalationRepo) GetByID(ctx context.Context, id int64) (*entity.Escalation, error) {
	for _, e := range f.escalations {
		if e.Id == id {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeEscalationRepo) ListByStatus(ctx context.Context, status string, limit, offset int) ([]*entity.Escalation, error) {
	return f.escalations, nil
}

func (f *fakeEscalationRepo) UpdateEscalation(ctx context.Context, esc *entity.Escalation) error {
	f.updated = append(f.updated, esc)
	for i, e := range f.escalations {
		if e.Id == esc.Id {
			f.escalations[i] = esc
		}
	}
	return nil
}

func (f *fakeEscalationRepo) CountByCreatedRange(ctx context.Context, from, to time.Time) (int64, error) {
	var n int64
	for _, e := range f.escalations {
		if !e.CreatedAt.Before(from) && e.CreatedAt.Before(to) {
			n++
		}
	}
	return n, nil
}

type fakeLogRepo struct {
	rows map[string]*entity.ConversationLog
}

func newFakeLogRepo() *fakeLogRepo {
	return &fakeLogRepo{rows: make(map[string]*entity.ConversationLog)}
}

func (f *fakeLogRepo) UpsertByDate(ctx context.Context, row *entity.ConversationLog) error {
	f.rows[row.Date.Format("2006-01-02")] = row
	return nil
}

func (f *fakeLogRepo) GetByDate(ctx context.Context, date time.Time) (*entity.ConversationLog, error) {
	return f.rows[date.Format("2006-01-02")], nil
}

func rollupConf() config.AssistantConfig {
	return config.AssistantConfig{RollupTopQueriesLimit: 2}
}

func dayAt(hour int) time.Time {
	return time.Date(2026, 8, 30, hour, 0, 0, 0, time.Local)
}

func userMsg(session, lang, intentName, content string, at time.Time) *entity.Message {
	return &entity.Message{
		SessionId:        session,
		Role:             entity.RoleUser,
		Content:          content,
		OriginalLanguage: lang,
		Intent:           intentName,
		CreatedAt:        at,
	}
}

func assistantMsg(session string, confidence int, at time.Time) *entity.Message {
	return &entity.Message{
		SessionId:  session,
		Role:       entity.RoleAssistant,
		Confidence: confidence,
		CreatedAt:  at,
	}
}

func TestDailyRollupAggregates(t *testing.T) {
	msgRepo := &fakeMessageRepo{messages: []*entity.Message{
		userMsg("s1", "hi", "fee_inquiry", "What are the fees", dayAt(9)),
		assistantMsg("s1", 90, dayAt(9)),
		userMsg("s1", "hi", "fee_inquiry", "what are the  fees", dayAt(10)),
		assistantMsg("s1", 70, dayAt(10)),
		userMsg("s2", "en", "hostel_inquiry", "hostel allotment", dayAt(11)),
		assistantMsg("s2", 50, dayAt(11)),
		// 次日消息不应计入
		userMsg("s3", "en", "exam_inquiry", "exam dates", dayAt(9).Add(24*time.Hour)),
	}}
	escRepo := &fakeEscalationRepo{escalations: []*entity.Escalation{
		{Id: 1, SessionId: "s2", CreatedAt: dayAt(11)},
		{Id: 2, SessionId: "s9", CreatedAt: dayAt(9).Add(-24 * time.Hour)},
	}}
	logRepo := newFakeLogRepo()
	svc := NewAnalyticsService(msgRepo, escRepo, logRepo, rollupConf())

	report, err := svc.DailyRollup(context.Background(), dayAt(15))
	if err != nil {
		t.Fatal(err)
	}
	if report.TotalConversations != 2 {
		t.Errorf("TotalConversations = %d, want 2", report.TotalConversations)
	}
	if report.TotalMessages != 6 {
		t.Errorf("TotalMessages = %d, want 6", report.TotalMessages)
	}
	if report.EscalationCount != 1 {
		t.Errorf("EscalationCount = %d, want 1", report.EscalationCount)
	}
	if report.AvgConfidence != 70 {
		t.Errorf("AvgConfidence = %d, want 70", report.AvgConfidence)
	}
	if report.Languages["hi"] != 2 || report.Languages["en"] != 1 {
		t.Errorf("Languages = %v", report.Languages)
	}
	if report.Intents["fee_inquiry"] != 2 {
		t.Errorf("Intents = %v", report.Intents)
	}
	// 大小写和重复空白归一后，两条费用提问合并为一个条目
	if len(report.TopQueries) != 2 || report.TopQueries[0].Query != "what are the fees" || report.TopQueries[0].Count != 2 {
		t.Errorf("TopQueries = %v", report.TopQueries)
	}
}

func TestDailyRollupIdempotent(t *testing.T) {
	msgRepo := &fakeMessageRepo{messages: []*entity.Message{
		userMsg("s1", "en", "fee_inquiry", "fees", dayAt(9)),
		assistantMsg("s1", 80, dayAt(9)),
	}}
	escRepo := &fakeEscalationRepo{}
	logRepo := newFakeLogRepo()
	svc := NewAnalyticsService(msgRepo, escRepo, logRepo, rollupConf())

	for i := 0; i < 3; i++ {
		if _, err := svc.DailyRollup(context.Background(), dayAt(12)); err != nil {
			t.Fatal(err)
		}
	}
	if len(logRepo.rows) != 1 {
		t.Fatalf("rerun should overwrite the same row, got %d rows", len(logRepo.rows))
	}
	report, err := svc.GetReport(context.Background(), dayAt(12))
	if err != nil {
		t.Fatal(err)
	}
	if report.TotalMessages != 2 || report.AvgConfidence != 80 {
		t.Errorf("report = %+v", report)
	}
}

func TestEscalationTransitions(t *testing.T) {
	escRepo := &fakeEscalationRepo{escalations: []*entity.Escalation{
		{Id: 1, SessionId: "s1", OpenFlag: &entity.EscalationOpenFlag, Status: entity.EscalationStatusPending},
		{Id: 2, SessionId: "s2", OpenFlag: &entity.EscalationOpenFlag, Status: entity.EscalationStatusPending},
	}}
	svc := NewEscalationService(escRepo)
	ctx := context.Background()

	// pending 可不经受理直接 resolved
	out2, err := svc.Resolve(ctx, request.ResolveEscalationRequest{Id: 2, ResolutionNotes: "duplicate of another ticket"})
	if err != nil {
		t.Fatal(err)
	}
	if out2.Status != entity.EscalationStatusResolved {
		t.Errorf("pending should resolve directly: %+v", out2)
	}

	out, err := svc.Assign(ctx, request.AssignEscalationRequest{Id: 1, AssignedTo: "staff01"})
	if err != nil {
		t.Fatal(err)
	}
	if out.Status != entity.EscalationStatusAssigned || out.AssignedTo != "staff01" {
		t.Errorf("after assign: %+v", out)
	}

	out, err = svc.Resolve(ctx, request.ResolveEscalationRequest{Id: 1, ResolutionNotes: "answered by phone"})
	if err != nil {
		t.Fatal(err)
	}
	if out.Status != entity.EscalationStatusResolved || out.ResolvedAt == "" {
		t.Errorf("after resolve: %+v", out)
	}
	// resolved 属于终结态，open_flag 应被清掉
	last := escRepo.updated[len(escRepo.updated)-1]
	if last.OpenFlag != nil {
		t.Error("terminal state should clear open_flag")
	}

	out, err = svc.Close(ctx, request.CloseEscalationRequest{Id: 1})
	if err != nil {
		t.Fatal(err)
	}
	if out.Status != entity.EscalationStatusClosed {
		t.Errorf("after close: %+v", out)
	}

	// closed 后不允许任何流转
	if _, err = svc.Assign(ctx, request.AssignEscalationRequest{Id: 1, AssignedTo: "staff02"}); err == nil {
		t.Fatal("closed → assigned must be rejected")
	}
}
