package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/citypulse-labs/bengaluru-climate/internal/climate"
	"github.com/citypulse-labs/bengaluru-climate/internal/logger"
	"github.com/citypulse-labs/bengaluru-climate/internal/session"
)

var (
	// ErrBusy reports that the session is still waiting on a previous reply.
	ErrBusy = errors.New("chat: a reply is already in flight for this session")
	// ErrEmptyMessage reports a blank user message.
	ErrEmptyMessage = errors.New("chat: empty message")
)

// FallbackReply is shown when the model cannot be reached. It still becomes
// part of the session history, because it is what the user saw.
const FallbackReply = "I'm sorry, I couldn't reach the climate assistant just now. " +
	"The dashboard data above is still live. Please try asking again in a moment."

// historyWindow caps how many prior turns are replayed to the model.
const historyWindow = 12

const systemPersona = `You are the Bengaluru climate dashboard assistant. ` +
	`You answer questions about the city's weather, air quality, lakes, ` +
	`urban heat and power demand using the live context below. Be concise ` +
	`and practical; prefer metric units and local names. When the context ` +
	`lacks the data for a question, say so instead of guessing.`

// SnapshotSource supplies a reasonably fresh dashboard snapshot.
type SnapshotSource interface {
	Fresh(ctx context.Context) *climate.Snapshot
}

// Orchestrator runs the chat flow: guard the session, ground the model in
// the latest snapshot, and degrade to a canned apology when the model is
// unavailable. Conversations survive model failures.
type Orchestrator struct {
	log        logger.Logger
	llm        Responder
	snapshots  SnapshotSource
	sessions   *session.Store
	maxContext int
}

// NewOrchestrator wires the chat flow. maxContextChars <= 0 selects the
// default context budget.
func NewOrchestrator(log logger.Logger, llm Responder, snapshots SnapshotSource, sessions *session.Store, maxContextChars int) *Orchestrator {
	if maxContextChars <= 0 {
		maxContextChars = climate.DefaultMaxContextChars
	}
	return &Orchestrator{
		log:        log,
		llm:        llm,
		snapshots:  snapshots,
		sessions:   sessions,
		maxContext: maxContextChars,
	}
}

// Reply is one assistant answer. Degraded marks fallback replies produced
// without the model.
type Reply struct {
	SessionID string    `json:"sessionId"`
	Text      string    `json:"text"`
	Degraded  bool      `json:"degraded"`
	At        time.Time `json:"at"`
}

// Respond handles one user message end to end. Each session processes one
// message at a time; concurrent sends get ErrBusy. Model failures do not
// fail the exchange, they produce the fallback reply instead.
func (o *Orchestrator) Respond(ctx context.Context, sessionID, message string) (*Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	id := o.sessions.GetOrCreate(sessionID)
	if !o.sessions.TryBegin(id) {
		return nil, ErrBusy
	}
	defer o.sessions.Finish(id)

	history, _ := o.sessions.History(id)
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}

	o.sessions.Append(id, session.Turn{Role: session.RoleUser, Text: message, At: time.Now().UTC()})

	snap := o.snapshots.Fresh(ctx)
	system := systemPersona + "\n\n=== Live dashboard context ===\n" +
		climate.AssembleContext(snap, o.maxContext)

	text, err := o.llm.Generate(ctx, system, history, message)
	degraded := false
	if err != nil {
		o.log.WithField("session", id).Warnf("model call failed, serving fallback: %v", err)
		text = FallbackReply
		degraded = true
	}

	reply := &Reply{
		SessionID: id,
		Text:      text,
		Degraded:  degraded,
		At:        time.Now().UTC(),
	}
	o.sessions.Append(id, session.Turn{Role: session.RoleAssistant, Text: text, At: reply.At})

	return reply, nil
}
