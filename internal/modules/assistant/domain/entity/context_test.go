package entity

import (
	"errors"
	"testing"
)

func TestParseSessionContext(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    SessionContext
		wantErr bool
	}{
		{
			name: "empty returns default",
			raw:  "",
			want: DefaultSessionContext(),
		},
		{
			name: "whitespace only returns default",
			raw:  "   \n",
			want: DefaultSessionContext(),
		},
		{
			name: "valid context",
			raw:  `{"version":1,"last_intent":"fee_inquiry","turn_count":3}`,
			want: SessionContext{Version: 1, LastIntent: "fee_inquiry", TurnCount: 3},
		},
		{
			name: "legacy row without version upgrades to current",
			raw:  `{"last_intent":"greeting","turn_count":1}`,
			want: SessionContext{Version: ContextSchemaVersion, LastIntent: "greeting", TurnCount: 1},
		},
		{
			name: "unknown fields ignored",
			raw:  `{"version":1,"turn_count":2,"legacy_slot":"x"}`,
			want: SessionContext{Version: 1, TurnCount: 2},
		},
		{
			name:    "broken json resets to default",
			raw:     `{"version":1,`,
			want:    DefaultSessionContext(),
			wantErr: true,
		},
		{
			name:    "future version treated as corrupt",
			raw:     `{"version":99,"turn_count":5}`,
			want:    DefaultSessionContext(),
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSessionContext(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr = %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseSessionContextFutureVersionError(t *testing.T) {
	_, err := ParseSessionContext(`{"version":2}`)
	if !errors.Is(err, ErrContextVersionTooNew) {
		t.Errorf("err = %v, want ErrContextVersionTooNew", err)
	}
}

func TestSessionContextEncodeRoundTrip(t *testing.T) {
	c := SessionContext{Version: 1, LastIntent: "hostel_inquiry", PendingClarification: "which hostel?", TurnCount: 7}
	got, err := ParseSessionContext(c.Encode())
	if err != nil {
		t.Fatal(err)
	}
	if got != c {
		t.Errorf("got %+v, want %+v", got, c)
	}
}
