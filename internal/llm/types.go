package llm

// Role identifies who produced a message. Retrieval reformulation and chat
// sessions build multi-turn conversations; one-shot decisioning sends a
// single user message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn in a conversation.
type Message struct {
	Role    Role
	Content string
}

// CompletionRequest carries the parameters for one completion call.
// Structured extraction sets JSONMode so providers with a JSON response
// format enforce an object-shaped reply; Temperature 0 keeps extraction
// deterministic.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
	JSONMode    bool
}

// CompletionResponse is a provider's reply plus usage accounting.
type CompletionResponse struct {
	Content      string
	InputTokens  int
	OutputTokens int
	Model        string
	FinishReason string
}
