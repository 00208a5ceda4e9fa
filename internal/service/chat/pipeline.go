package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/haeyeon/festabot/internal/config"
	"github.com/haeyeon/festabot/internal/core"
	"github.com/haeyeon/festabot/internal/providers/embedding"
	"github.com/haeyeon/festabot/pkg/log"
)

// ErrTurnNotSaved reports that the reply was computed but the turn
// pair could not be persisted. The result returned alongside it is
// still valid; callers must not claim the turn was recorded.
var ErrTurnNotSaved = errors.New("turn not saved")

type LLMProvider interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

type Embedder interface {
	Embed(ctx context.Context, text string, purpose embedding.Purpose) ([]float32, error)
}

type ConversationStore interface {
	LoadOrCreate(ctx context.Context, userID string) (*core.ConversationSnapshot, error)
	SaveTurn(ctx context.Context, conversationID int64, lastTurn int, userText string, queryEmbedding []float32, reply string, relatedIDs []int64) error
}

type EventStore interface {
	FindByIDs(ctx context.Context, ids []int64) ([]core.Event, error)
	FindByDateRange(ctx context.Context, dr core.DateRange, limit int) ([]core.Event, error)
	FindSimilar(ctx context.Context, query []float32, k int) ([]core.Event, error)
}

// State carries one request through the pipeline stages. Each field is
// set by exactly one stage and read by later ones.
type State struct {
	UserID      string
	Message     string
	CurrentDate string

	Snapshot       *core.ConversationSnapshot
	QueryEmbedding []float32
	Intent         string
	IsFollowup     bool
	DateRange      *core.DateRange
	Candidates     []core.Event
	SelectedIDs    []int64
	Reply          string
	RelatedIDs     []int64
}

// Pipeline is the conversational recommendation flow: one instance is
// built at process start and shared across requests; per-request state
// lives in State only.
type Pipeline struct {
	llm      LLMProvider
	embedder Embedder
	convs    ConversationStore
	events   EventStore

	similarTopK   int
	dateFetchCap  int
	contextTokens int

	now        func() time.Time
	countToken tokenCounter
}

func NewPipeline(cfg *config.AppConfig, llm LLMProvider, embedder Embedder, convs ConversationStore, events EventStore) *Pipeline {
	p := &Pipeline{
		llm:           llm,
		embedder:      embedder,
		convs:         convs,
		events:        events,
		similarTopK:   cfg.SimilarTopK,
		dateFetchCap:  cfg.DateFetchCap,
		contextTokens: cfg.ContextTokens,
		now:           time.Now,
	}
	if p.contextTokens > 0 {
		p.countToken = newTokenCounter()
	}
	return p
}

// Reply runs the whole pipeline for one user message. On persistence
// failure it returns the computed result together with ErrTurnNotSaved.
func (p *Pipeline) Reply(ctx context.Context, userID, message string) (core.ChatResult, error) {
	st := &State{
		UserID:      userID,
		Message:     message,
		CurrentDate: p.now().Format("2006-01-02"),
	}

	snap, err := p.convs.LoadOrCreate(ctx, userID)
	if err != nil {
		return core.ChatResult{}, fmt.Errorf("load conversation: %w", err)
	}
	st.Snapshot = snap

	st.QueryEmbedding = p.embedQuery(ctx, message)

	st.Intent = p.classifyIntent(ctx, message)
	if st.Intent == IntentGeneral {
		p.generalChat(ctx, st)
	} else {
		st.IsFollowup = p.decideFollowup(ctx, message, snap.PrevEventIDs)
		if !st.IsFollowup {
			st.DateRange = p.extractDateRange(ctx, message, st.CurrentDate)
		}
		if err := p.retrieve(ctx, st); err != nil {
			return core.ChatResult{}, err
		}
		p.selectCandidates(ctx, st)
		if err := p.synthesize(ctx, st); err != nil {
			return core.ChatResult{}, err
		}
	}

	result := core.ChatResult{Reply: st.Reply, RelatedEventIDs: st.RelatedIDs}

	if err := p.convs.SaveTurn(ctx, snap.Conversation.ID, snap.LastTurn,
		message, st.QueryEmbedding, st.Reply, st.RelatedIDs); err != nil {
		log.FromCtx(ctx).Error().Err(err).Msg("failed to persist turn pair")
		return result, fmt.Errorf("%w: %s", ErrTurnNotSaved, err)
	}
	return result, nil
}

// embedQuery degrades to an empty vector when the embedding service is
// down: retrieval then relies on ID reuse and date filtering only.
func (p *Pipeline) embedQuery(ctx context.Context, message string) []float32 {
	emb, err := p.embedder.Embed(ctx, message, embedding.PurposeQuery)
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("query embedding unavailable, proceeding without it")
		return nil
	}
	return emb
}

// retrieve produces the ordered candidate set, trying strategies in
// strict priority order: follow-up ID reuse, date filter, vector
// similarity. An empty result is a valid outcome.
func (p *Pipeline) retrieve(ctx context.Context, st *State) error {
	logger := log.FromCtx(ctx)

	if st.IsFollowup && len(st.Snapshot.PrevEventIDs) > 0 {
		events, err := p.events.FindByIDs(ctx, st.Snapshot.PrevEventIDs)
		if err != nil {
			return fmt.Errorf("follow-up fetch: %w", err)
		}
		st.Candidates = events
		logger.Debug().Int("count", len(events)).Msg("reusing previous recommendations")
	} else if st.DateRange != nil {
		events, err := p.events.FindByDateRange(ctx, *st.DateRange, p.dateFetchCap)
		if err != nil {
			return fmt.Errorf("date range fetch: %w", err)
		}
		st.Candidates = events
		logger.Debug().Int("count", len(events)).Msg("date-filtered fetch")
	}

	if len(st.Candidates) == 0 && len(st.QueryEmbedding) > 0 {
		events, err := p.events.FindSimilar(ctx, st.QueryEmbedding, p.similarTopK)
		if err != nil {
			return fmt.Errorf("similarity fetch: %w", err)
		}
		st.Candidates = events
		logger.Debug().Int("count", len(events)).Msg("vector similarity fallback")
	}
	return nil
}

// selectCandidates asks the LLM to narrow the candidate list down to
// the most relevant ids. Everything fails open to the full set.
func (p *Pipeline) selectCandidates(ctx context.Context, st *State) {
	if len(st.Candidates) == 0 {
		st.SelectedIDs = nil
		return
	}

	system := fmt.Sprintf(selectionPrompt, st.CurrentDate)
	user := fmt.Sprintf("[사용자 질문]\n%s\n\n[추천 후보 행사 목록]\n%s",
		st.Message, renderEventContext(st.Candidates, p.contextTokens, p.countToken))

	resp, err := p.llm.Complete(ctx, system, user)
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("selection failed, keeping all candidates")
		st.SelectedIDs = parseSelection("", st.Candidates)
		return
	}
	st.SelectedIDs = parseSelection(resp, st.Candidates)
	log.FromCtx(ctx).Debug().Ints64("selected", st.SelectedIDs).Msg("candidates selected")
}

// synthesize builds the final grounded reply. With nothing selected it
// returns the canned no-match text without touching the LLM.
func (p *Pipeline) synthesize(ctx context.Context, st *State) error {
	if len(st.SelectedIDs) == 0 {
		st.Reply = noMatchReply
		st.RelatedIDs = nil
		return nil
	}

	selected, err := p.events.FindByIDs(ctx, st.SelectedIDs)
	if err != nil {
		return fmt.Errorf("selected fetch: %w", err)
	}
	if len(selected) == 0 {
		st.Reply = noMatchReply
		st.RelatedIDs = nil
		return nil
	}

	system := fmt.Sprintf(answerPrompt, st.CurrentDate)
	user := fmt.Sprintf(
		"다음은 사용자의 질문과, 답변을 작성할 때 사용할 서울시 축제/행사 목록이다.\n\n[사용자 질문]\n%s\n\n[최종 추천 행사 목록]\n%s\n\n항상 이 목록에 있는 정보만을 사용하여 답변을 작성해라.",
		st.Message, renderEventContext(selected, p.contextTokens, p.countToken))

	resp, err := p.llm.Complete(ctx, system, user)
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("reply synthesis failed, returning degraded reply")
		st.Reply = degradedReply
		st.RelatedIDs = nil
		return nil
	}

	st.Reply = resp
	st.RelatedIDs = st.SelectedIDs
	return nil
}

// generalChat answers without retrieval and reports no related events.
func (p *Pipeline) generalChat(ctx context.Context, st *State) {
	resp, err := p.llm.Complete(ctx, generalPrompt, st.Message)
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("general chat failed, returning degraded reply")
		st.Reply = degradedReply
		return
	}
	st.Reply = resp
}
