package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/haeyeon/festabot/internal/core"
	"github.com/haeyeon/festabot/pkg/log"
)

// classifyIntent routes the message to either the event-recommendation
// branch or plain chat. Any LLM failure or unparseable output resolves
// to general chat: the safe branch never reuses stale context.
func (p *Pipeline) classifyIntent(ctx context.Context, message string) string {
	resp, err := p.llm.Complete(ctx, intentPrompt, "질문: "+message)
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("intent classification failed, defaulting to general")
		return IntentGeneral
	}
	intent := parseIntent(resp)
	log.FromCtx(ctx).Debug().Str("intent", intent).Msg("intent classified")
	return intent
}

func parseIntent(raw string) string {
	if strings.Contains(strings.ToLower(raw), IntentEvent) {
		return IntentEvent
	}
	return IntentGeneral
}

// decideFollowup asks whether the message continues the previous
// answer. With no previous candidate list the answer cannot matter, so
// the LLM is not consulted at all.
func (p *Pipeline) decideFollowup(ctx context.Context, message string, prevEventIDs []int64) bool {
	if len(prevEventIDs) == 0 {
		log.FromCtx(ctx).Debug().Msg("no previous recommendations, treating as new query")
		return false
	}

	user := fmt.Sprintf(
		"[이전 대화 맥락]\n이전 추천 이벤트 ID 목록: %v\n\n[현재 질문]\n%s\n\n이 질문은 꼬리 질문(follow-up)입니까, 새로운 질문(new_query)입니까?",
		prevEventIDs, message)

	resp, err := p.llm.Complete(ctx, followupPrompt, user)
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("follow-up classification failed, treating as new query")
		return false
	}
	isFollowup := parseFollowup(resp)
	log.FromCtx(ctx).Debug().Bool("is_followup", isFollowup).Msg("follow-up classified")
	return isFollowup
}

func parseFollowup(raw string) bool {
	return strings.Contains(strings.ToLower(raw), "follow-up")
}

// extractDateRange pulls an optional calendar-date filter out of the
// message, anchored to the current date so relative expressions
// resolve. Best effort only: any failure means no filter.
func (p *Pipeline) extractDateRange(ctx context.Context, message, currentDate string) *core.DateRange {
	system := fmt.Sprintf(dateExtractionPrompt, currentDate)
	resp, err := p.llm.Complete(ctx, system, "질문: "+message)
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("date extraction failed, no date filter")
		return nil
	}
	dr := parseDateRange(resp)
	if dr == nil {
		log.FromCtx(ctx).Debug().Msg("no date filter extracted")
	} else {
		log.FromCtx(ctx).Debug().Str("start", dr.StartDate).Str("end", dr.EndDate).Msg("date filter extracted")
	}
	return dr
}

func parseDateRange(raw string) *core.DateRange {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var dr core.DateRange
	if err := json.Unmarshal([]byte(cleaned), &dr); err != nil {
		return nil
	}
	if dr.StartDate == "" && dr.EndDate == "" {
		return nil
	}
	return &dr
}
