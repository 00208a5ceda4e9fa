package chat

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"

	"github.com/haeyeon/festabot/internal/core"
)

type tokenCounter func(string) int

// newTokenCounter prefers a real BPE count; if the encoding cannot be
// loaded it falls back to a rough rune heuristic so prompt budgeting
// still works offline.
func newTokenCounter() tokenCounter {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return func(s string) int { return utf8.RuneCountInString(s) / 2 }
	}
	return func(s string) int { return len(enc.Encode(s, nil, nil)) }
}

func renderEventLine(ev core.Event) string {
	return fmt.Sprintf(
		"- id=%d, 제목: %s, 장소: %s, 기간: %s ~ %s, 분류: %s, 요금: %s, 문의: %s, 프로그램: %s",
		ev.ID, ev.Title, ev.Place, ev.StartDate, ev.EndDate, ev.Codename, ev.UseFee, ev.Inquiry, ev.Program)
}

// renderEventContext turns the candidate list into the structured text
// block both LLM calls ground on. When tokenBudget is positive,
// trailing candidates that would blow the budget are dropped; the
// first candidate always survives.
func renderEventContext(events []core.Event, tokenBudget int, count tokenCounter) string {
	if len(events) == 0 {
		return "현재 추천 가능한 행사가 없습니다."
	}

	var b strings.Builder
	used := 0
	for i, ev := range events {
		line := renderEventLine(ev)
		if tokenBudget > 0 && count != nil {
			cost := count(line)
			if i > 0 && used+cost > tokenBudget {
				break
			}
			used += cost
		}
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
	}
	return b.String()
}

var intTokenRe = regexp.MustCompile(`\d+`)

// parseSelection extracts the chosen ids from the selection response.
// Identifiers not present in the candidate set are discarded; if
// nothing usable remains the whole candidate set is used, so a
// confused model degrades to "show everything" rather than nothing.
func parseSelection(raw string, candidates []core.Event) []int64 {
	valid := make(map[int64]struct{}, len(candidates))
	for _, ev := range candidates {
		valid[ev.ID] = struct{}{}
	}

	var selected []int64
	seen := make(map[int64]struct{})
	for _, tok := range intTokenRe.FindAllString(raw, -1) {
		id, err := strconv.ParseInt(tok, 10, 64)
		if err != nil {
			continue
		}
		if _, ok := valid[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		selected = append(selected, id)
	}

	if len(selected) == 0 {
		all := make([]int64, 0, len(candidates))
		for _, ev := range candidates {
			all = append(all, ev.ID)
		}
		return all
	}
	return selected
}
