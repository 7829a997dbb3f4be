package intent

import (
	"regexp"
	"strings"
)

// 识别出的意图标签
const (
	IntentGreeting           = "greeting"
	IntentThanks             = "thanks"
	IntentEscalationRequest  = "escalation_request"
	IntentFeeInquiry         = "fee_inquiry"
	IntentAdmissionInquiry   = "admission_inquiry"
	IntentScholarshipInquiry = "scholarship_inquiry"
	IntentHostelInquiry      = "hostel_inquiry"
	IntentExamInquiry        = "exam_inquiry"
	IntentDocumentRequest    = "document_request"
	IntentUnknown            = "unknown"
)

type intentRule struct {
	name     string
	patterns []*regexp.Regexp
	keywords []string
}

// Classifier 基于规则的意图识别，规则按序匹配，先命中者生效。
// 规则都没命中时由调用方用检索类目兜底。
type Classifier struct {
	rules []intentRule
}

func NewClassifier() *Classifier {
	return &Classifier{rules: []intentRule{
		{
			name: IntentEscalationRequest,
			patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)\b(talk|speak|connect)\s+(to|with)\s+(a\s+)?(human|person|staff|someone|agent|officer)\b`),
				regexp.MustCompile(`(?i)\bhuman\s+(help|support|agent)\b`),
			},
			keywords: []string{"complaint", "escalate", "grievance", "not helpful"},
		},
		{
			name: IntentGreeting,
			patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)^\s*(hi|hello|hey|namaste|good\s+(morning|afternoon|evening))\b[\s!.,]*$`),
			},
		},
		{
			name: IntentThanks,
			patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)^\s*(thanks|thank\s+you|thankyou|dhanyavad)\b`),
			},
		},
		{
			name:     IntentFeeInquiry,
			keywords: []string{"fee", "fees", "tuition", "payment", "installment", "refund", "dues"},
		},
		{
			name:     IntentAdmissionInquiry,
			keywords: []string{"admission", "admissions", "enroll", "enrollment", "apply", "application", "eligibility", "cutoff", "merit list"},
		},
		{
			name:     IntentScholarshipInquiry,
			keywords: []string{"scholarship", "scholarships", "stipend", "financial aid", "fee waiver"},
		},
		{
			name:     IntentHostelInquiry,
			keywords: []string{"hostel", "dormitory", "mess", "room allotment", "warden", "accommodation"},
		},
		{
			name:     IntentExamInquiry,
			keywords: []string{"exam", "exams", "examination", "result", "results", "marksheet", "timetable", "datesheet", "revaluation", "backlog"},
		},
		{
			name:     IntentDocumentRequest,
			keywords: []string{"certificate", "transcript", "bonafide", "migration", "degree", "provisional", "id card", "duplicate"},
		},
	}}
}

// Classify 对中枢语言文本做规则匹配，没命中返回 unknown
func (c *Classifier) Classify(text string) string {
	lower := strings.ToLower(text)
	for _, rule := range c.rules {
		if matchesRule(lower, rule) {
			return rule.name
		}
	}
	return IntentUnknown
}

func matchesRule(lower string, rule intentRule) bool {
	for _, re := range rule.patterns {
		if re.MatchString(lower) {
			return true
		}
	}
	for _, kw := range rule.keywords {
		if containsWord(lower, kw) {
			return true
		}
	}
	return false
}

// containsWord 短语直接子串匹配，单词要求词边界，避免 exam 命中 example
func containsWord(lower, kw string) bool {
	if strings.Contains(kw, " ") {
		return strings.Contains(lower, kw)
	}
	idx := 0
	for {
		i := strings.Index(lower[idx:], kw)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(kw)
		leftOK := start == 0 || !isWordByte(lower[start-1])
		rightOK := end == len(lower) || !isWordByte(lower[end])
		if leftOK && rightOK {
			return true
		}
		idx = start + 1
	}
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9' || b == '_'
}
