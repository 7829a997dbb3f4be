package intent

import "testing"

func TestClassify(t *testing.T) {
	c := NewClassifier()
	cases := []struct {
		text string
		want string
	}{
		{"hello", IntentGreeting},
		{"Good morning!", IntentGreeting},
		{"thanks a lot", IntentThanks},
		{"I want to talk to a human", IntentEscalationRequest},
		{"please connect me with staff, this is not helpful", IntentEscalationRequest},
		{"I have a complaint about the mess food", IntentEscalationRequest},
		{"what are the fees for btech", IntentFeeInquiry},
		{"how do I apply for admission", IntentAdmissionInquiry},
		{"is there any scholarship for sc students", IntentScholarshipInquiry},
		{"how to get hostel room allotment", IntentHostelInquiry},
		{"when is the exam timetable released", IntentExamInquiry},
		{"I need a bonafide certificate", IntentDocumentRequest},
		{"for example, anything else", IntentUnknown},
		{"where is the library", IntentUnknown},
	}
	for _, c2 := range cases {
		if got := c.Classify(c2.text); got != c2.want {
			t.Errorf("Classify(%q) = %q, want %q", c2.text, got, c2.want)
		}
	}
}

func TestClassifyFirstMatchWins(t *testing.T) {
	c := NewClassifier()
	// 同时包含升级诉求和费用词，升级规则在前应先命中
	if got := c.Classify("the fee answer was wrong, I want to escalate"); got != IntentEscalationRequest {
		t.Errorf("got %q, want %q", got, IntentEscalationRequest)
	}
}

func TestClassifyWordBoundary(t *testing.T) {
	c := NewClassifier()
	if got := c.Classify("show me an example of the syllabus"); got == IntentExamInquiry {
		t.Error("exam should not match inside example")
	}
}
