package service

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"CampusAssist/internal/config"
	"CampusAssist/internal/modules/assistant/application/dto/respond"
	"CampusAssist/internal/modules/assistant/domain/entity"
	"CampusAssist/internal/modules/assistant/domain/repository"
	"CampusAssist/pkg/xerr"
	"CampusAssist/pkg/zlog"

	"go.uber.org/zap"
)

type AnalyticsService interface {
	// DailyRollup 聚合某天的对话数据并幂等写入日报表（重跑覆盖）
	DailyRollup(ctx context.Context, date time.Time) (*respond.DailyReportRespond, error)

	// GetReport 读取某天的日报表
	GetReport(ctx context.Context, date time.Time) (*respond.DailyReportRespond, error)
}

type analyticsServiceImpl struct {
	msgRepo repository.MessageRepository
	escRepo repository.EscalationRepository
	logRepo repository.ConversationLogRepository
	conf    config.AssistantConfig
}

func NewAnalyticsService(
	msgRepo repository.MessageRepository,
	escRepo repository.EscalationRepository,
	logRepo repository.ConversationLogRepository,
	conf config.AssistantConfig,
) AnalyticsService {
	return &analyticsServiceImpl{
		msgRepo: msgRepo,
		escRepo: escRepo,
		logRepo: logRepo,
		conf:    conf,
	}
}

func (s *analyticsServiceImpl) DailyRollup(ctx context.Context, date time.Time) (*respond.DailyReportRespond, error) {
	day := truncateToDay(date)
	next := day.Add(24 * time.Hour)

	msgs, err := s.msgRepo.ListByCreatedRange(ctx, day, next)
	if err != nil {
		zlog.Error("rollup list messages failed", zap.Error(err))
		return nil, xerr.ErrServerError
	}
	escCount, err := s.escRepo.CountByCreatedRange(ctx, day, next)
	if err != nil {
		zlog.Error("rollup count escalations failed", zap.Error(err))
		return nil, xerr.ErrServerError
	}

	sessions := make(map[string]bool)
	languages := make(map[string]int)
	intents := make(map[string]int)
	queries := make(map[string]int)
	confidenceSum, assistantCount := 0, 0

	for _, m := range msgs {
		sessions[m.SessionId] = true
		switch m.Role {
		case entity.RoleUser:
			if m.OriginalLanguage != "" {
				languages[m.OriginalLanguage]++
			}
			if m.Intent != "" {
				intents[m.Intent]++
			}
			if q := normalizeQuery(m.Content); q != "" {
				queries[q]++
			}
		case entity.RoleAssistant:
			confidenceSum += m.Confidence
			assistantCount++
		}
	}

	avgConfidence := 0
	if assistantCount > 0 {
		avgConfidence = confidenceSum / assistantCount
	}
	topQueries := topQueryCounts(queries, s.conf.RollupTopQueriesLimit)

	row := &entity.ConversationLog{
		Date:               day,
		TotalConversations: len(sessions),
		TotalMessages:      len(msgs),
		EscalationCount:    int(escCount),
		AvgConfidence:      avgConfidence,
		LanguagesJson:      encodeJSON(languages),
		IntentsJson:        encodeJSON(intents),
		TopQueriesJson:     encodeJSON(topQueries),
	}
	if err = s.logRepo.UpsertByDate(ctx, row); err != nil {
		zlog.Error("rollup upsert failed", zap.String("date", day.Format("2006-01-02")), zap.Error(err))
		return nil, xerr.ErrServerError
	}

	zlog.Info("daily rollup done",
		zap.String("date", day.Format("2006-01-02")),
		zap.Int("conversations", len(sessions)),
		zap.Int("messages", len(msgs)),
		zap.Int("escalations", int(escCount)),
		zap.Int("avg_confidence", avgConfidence))

	return toDailyReportRespond(row), nil
}

func (s *analyticsServiceImpl) GetReport(ctx context.Context, date time.Time) (*respond.DailyReportRespond, error) {
	row, err := s.logRepo.GetByDate(ctx, truncateToDay(date))
	if err != nil {
		zlog.Error("get report failed", zap.Error(err))
		return nil, xerr.ErrServerError
	}
	if row == nil {
		return nil, xerr.ErrNotFound
	}
	return toDailyReportRespond(row), nil
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// normalizeQuery 统一大小写与空白，便于同问题聚合
func normalizeQuery(content string) string {
	q := strings.ToLower(strings.TrimSpace(content))
	return strings.Join(strings.Fields(q), " ")
}

// topQueryCounts 频次降序，同频按字典序保证排行稳定
func topQueryCounts(queries map[string]int, limit int) []respond.QueryCount {
	if limit <= 0 {
		limit = 10
	}
	out := make([]respond.QueryCount, 0, len(queries))
	for q, c := range queries {
		out = append(out, respond.QueryCount{Query: q, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Query < out[j].Query
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func encodeJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func toDailyReportRespond(row *entity.ConversationLog) *respond.DailyReportRespond {
	languages := make(map[string]int)
	intents := make(map[string]int)
	var topQueries []respond.QueryCount
	_ = json.Unmarshal([]byte(row.LanguagesJson), &languages)
	_ = json.Unmarshal([]byte(row.IntentsJson), &intents)
	_ = json.Unmarshal([]byte(row.TopQueriesJson), &topQueries)

	return &respond.DailyReportRespond{
		Date:               row.Date.Format("2006-01-02"),
		TotalConversations: row.TotalConversations,
		TotalMessages:      row.TotalMessages,
		EscalationCount:    row.EscalationCount,
		AvgConfidence:      row.AvgConfidence,
		Languages:          languages,
		Intents:            intents,
		TopQueries:         topQueries,
	}
}
