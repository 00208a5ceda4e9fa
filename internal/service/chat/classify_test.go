package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIntent(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"exact keyword", "seoul_event", IntentEvent},
		{"keyword inside chatter", "분류 결과는 SEOUL_EVENT 입니다.", IntentEvent},
		{"general", "general", IntentGeneral},
		{"garbage defaults to general", "잘 모르겠어요", IntentGeneral},
		{"empty defaults to general", "", IntentGeneral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseIntent(tt.raw))
		})
	}
}

func TestParseFollowup(t *testing.T) {
	assert.True(t, parseFollowup("follow-up"))
	assert.True(t, parseFollowup("이것은 Follow-Up 질문입니다"))
	assert.False(t, parseFollowup("new_query"))
	assert.False(t, parseFollowup("followup")) // not the expected token
	assert.False(t, parseFollowup(""))
}

func TestParseDateRange(t *testing.T) {
	dr := parseDateRange(`{"start_date": "2025-11-15", "end_date": "2025-11-16"}`)
	require.NotNil(t, dr)
	assert.Equal(t, "2025-11-15", dr.StartDate)
	assert.Equal(t, "2025-11-16", dr.EndDate)
}

func TestParseDateRange_CodeFences(t *testing.T) {
	dr := parseDateRange("```json\n{\"start_date\": \"2025-11-15\", \"end_date\": \"\"}\n```")
	require.NotNil(t, dr)
	assert.Equal(t, "2025-11-15", dr.StartDate)
	assert.Equal(t, "", dr.EndDate)
}

func TestParseDateRange_Degrades(t *testing.T) {
	assert.Nil(t, parseDateRange("no dates here"), "malformed output means no filter")
	assert.Nil(t, parseDateRange(`{"start_date": "", "end_date": ""}`), "both empty means no filter")
	assert.Nil(t, parseDateRange(""))
}
