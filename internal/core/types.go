package core

import (
	"fmt"
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Conversation is one ongoing dialogue session. The active
// conversation for a user is the most recently updated one.
type Conversation struct {
	ID        int64
	UserID    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message is a single utterance within a conversation. Turn numbers
// are strictly increasing and unique within the conversation; a user
// message at turn n is always followed by an assistant message at
// turn n+1, written in the same transaction.
type Message struct {
	ID              int64
	ConversationID  int64
	Role            string
	Content         string
	Embedding       []float32 // user messages only
	RelatedEventIDs []int64   // assistant messages only
	Turn            int
	CreatedAt       time.Time
}

// Event is a recommendable Seoul cultural event record, owned by the
// ingestion job and read-only for the chat pipeline.
type Event struct {
	ID         int64
	Codename   string // 분류
	GuName     string // 자치구
	Title      string
	DateText   string
	Place      string
	OrgName    string
	UseTarget  string
	UseFee     string
	Inquiry    string
	Player     string
	Program    string
	EtcDesc    string
	OrgLink    string
	MainImg    string
	TicketType string
	StartDate  string // YYYY-MM-DD, may be empty
	EndDate    string
	ThemeCode  string
	Lot        float64
	Lat        float64
	IsFree     string
	HmpgAddr   string
	ProTime    string
	Embedding  []float32
}

// EmbeddingText is the chunk embedded for similarity search: title,
// venue and dates summarize the record well enough for retrieval.
func (e Event) EmbeddingText() string {
	return fmt.Sprintf("%s / %s / %s ~ %s / %s", e.Title, e.Place, e.StartDate, e.EndDate, e.Codename)
}

// ConversationSnapshot is the prior-state view the chat pipeline
// loads before doing anything else: the active conversation, the
// highest turn number, and the payloads of the latest user and
// assistant messages.
type ConversationSnapshot struct {
	Conversation       Conversation
	LastTurn           int
	PrevQueryEmbedding []float32
	PrevEventIDs       []int64
}

// DateRange is an optional [start, end] calendar-date filter in
// YYYY-MM-DD form extracted from the user message.
type DateRange struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// ChatResult is what the pipeline hands back to the transport layer.
type ChatResult struct {
	Reply           string
	RelatedEventIDs []int64
}

// User is an account for the auth and like endpoints.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}
