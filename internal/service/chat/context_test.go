package chat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/haeyeon/festabot/internal/core"
)

func testEvents() []core.Event {
	return []core.Event{
		{ID: 12, Title: "서울빛초롱축제", Place: "광화문광장", StartDate: "2025-12-12", EndDate: "2026-01-04", Codename: "축제", UseFee: "무료"},
		{ID: 45, Title: "한강 겨울 마켓", Place: "여의도 한강공원", StartDate: "2025-12-01", EndDate: "2025-12-25", Codename: "축제", UseFee: "무료"},
		{ID: 77, Title: "국악 한마당", Place: "국립국악원", StartDate: "2025-11-20", EndDate: "2025-11-22", Codename: "국악", UseFee: "유료"},
	}
}

func TestRenderEventContext(t *testing.T) {
	out := renderEventContext(testEvents(), 0, nil)
	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[0], "id=12")
	assert.Contains(t, lines[0], "서울빛초롱축제")
}

func TestRenderEventContext_Empty(t *testing.T) {
	assert.Equal(t, "현재 추천 가능한 행사가 없습니다.", renderEventContext(nil, 0, nil))
}

func TestRenderEventContext_TokenBudget(t *testing.T) {
	countWords := func(s string) int { return len(strings.Fields(s)) }

	full := renderEventContext(testEvents(), 0, nil)
	perLine := countWords(strings.Split(full, "\n")[0])

	// Budget fits roughly one line: trailing candidates are dropped.
	out := renderEventContext(testEvents(), perLine, countWords)
	assert.Len(t, strings.Split(out, "\n"), 1)
	assert.Contains(t, out, "id=12")

	// The first candidate always survives even an absurdly small budget.
	out = renderEventContext(testEvents(), 1, countWords)
	assert.Contains(t, out, "id=12")
}

func TestParseSelection(t *testing.T) {
	events := testEvents()

	tests := []struct {
		name string
		raw  string
		want []int64
	}{
		{"comma separated", "12,45", []int64{12, 45}},
		{"with spaces and text", "추천: 45, 12 입니다", []int64{45, 12}},
		{"unknown ids dropped", "12, 999", []int64{12}},
		{"all unknown falls back to all", "999, 1000", []int64{12, 45, 77}},
		{"nothing parseable falls back to all", "없음", []int64{12, 45, 77}},
		{"empty falls back to all", "", []int64{12, 45, 77}},
		{"duplicates collapsed", "12,12,45", []int64{12, 45}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseSelection(tt.raw, events))
		})
	}
}
