package retrieval

import (
	"encoding/json"
	"strings"
	"unicode"

	"CampusAssist/internal/modules/assistant/domain/entity"
)

// stopwords 查询中不参与打分的虚词
var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "is": true, "are": true, "was": true,
	"were": true, "be": true, "do": true, "does": true, "did": true, "can": true,
	"could": true, "will": true, "would": true, "should": true, "what": true,
	"when": true, "where": true, "which": true, "who": true,
	"whom": true, "how": true, "why": true, "i": true, "me": true, "my": true,
	"you": true, "your": true, "it": true, "its": true, "of": true, "in": true,
	"on": true, "at": true, "to": true, "for": true, "with": true, "about": true,
	"and": true, "or": true, "please": true, "tell": true, "know": true,
	"want": true, "there": true, "this": true, "that": true, "these": true,
	"those": true, "have": true, "has": true, "had": true, "get": true,
	"any": true, "some": true, "much": true, "many": true,
}

// Tokenize 小写分词并滤掉停用词，保留字母数字串
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if stopwords[f] {
			continue
		}
		out = append(out, f)
	}
	return out
}

// KeywordScorer 对活跃 FAQ 做关键词覆盖打分。
// 查询实义词命中 FAQ 关键词集记 1.0，命中问题文本记 0.5，
// 得分 = 权重和 / 查询实义词数，封顶 1.0。
type KeywordScorer struct {
	faqs []scoredFAQ
}

type scoredFAQ struct {
	faq      *entity.FAQ
	keywords map[string]bool
	question map[string]bool
}

func NewKeywordScorer(faqs []*entity.FAQ) *KeywordScorer {
	s := &KeywordScorer{faqs: make([]scoredFAQ, 0, len(faqs))}
	for _, f := range faqs {
		entry := scoredFAQ{
			faq:      f,
			keywords: make(map[string]bool),
			question: make(map[string]bool),
		}
		var kws []string
		if f.KeywordsJson != "" {
			// 关键词坏 JSON 只影响该条，不中断打分
			_ = json.Unmarshal([]byte(f.KeywordsJson), &kws)
		}
		for _, kw := range kws {
			for _, tok := range Tokenize(kw) {
				entry.keywords[tok] = true
			}
		}
		for _, tok := range Tokenize(f.Question) {
			entry.question[tok] = true
		}
		s.faqs = append(s.faqs, entry)
	}
	return s
}

// FAQHit 关键词打分结果
type FAQHit struct {
	FAQ   *entity.FAQ
	Score float64
}

// Score 返回得分不低于 minScore 的 FAQ，未排序
func (s *KeywordScorer) Score(query string, minScore float64) []FAQHit {
	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return nil
	}

	hits := make([]FAQHit, 0, 4)
	for _, entry := range s.faqs {
		var sum float64
		for _, tok := range tokens {
			switch {
			case entry.keywords[tok]:
				sum += 1.0
			case entry.question[tok]:
				sum += 0.5
			}
		}
		score := sum / float64(len(tokens))
		if score > 1.0 {
			score = 1.0
		}
		if score >= minScore && score > 0 {
			hits = append(hits, FAQHit{FAQ: entry.faq, Score: score})
		}
	}
	return hits
}
