package retriever

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleHuman     Role = "human"
	RoleAssistant Role = "assistant"
)

// Turn is one utterance in a conversation.
type Turn struct {
	Role Role
	Text string
}

// History is an ordered, append-only sequence of conversation turns.
// It is owned by a single session and is not safe for concurrent mutation;
// per-request pipelines use a fresh empty History instead of sharing one.
type History struct {
	turns []Turn
}

// Append records a turn at the end of the history.
func (h *History) Append(role Role, text string) {
	h.turns = append(h.turns, Turn{Role: role, Text: text})
}

// Turns returns the recorded turns in order.
func (h *History) Turns() []Turn {
	return h.turns
}

// Empty reports whether no turns have been recorded.
func (h *History) Empty() bool {
	return h == nil || len(h.turns) == 0
}
