package extract

// StructuredQuery is the typed form of a free-text user query. Every field
// is optional; a field the model could not determine stays nil.
type StructuredQuery struct {
	Age            *int    `json:"age,omitempty"`
	Procedure      *string `json:"procedure,omitempty"`
	Location       *string `json:"location,omitempty"`
	PolicyDuration *string `json:"policy_duration,omitempty"`
}

// ClauseMapping links a policy clause to its relevance for the decision.
type ClauseMapping struct {
	Clause *string `json:"clause,omitempty"`
	Reason *string `json:"reason,omitempty"`
}

// DecisionOutput is the typed form of the model's decision. Amount is a
// finite number or nil, never a string.
type DecisionOutput struct {
	Decision      *string         `json:"decision,omitempty"`
	Amount        *float64        `json:"amount,omitempty"`
	Justification *string         `json:"justification,omitempty"`
	ClauseMapping []ClauseMapping `json:"clause_mapping,omitempty"`
}

// DecisionResult is the final response: the decision merged with the
// synthesized answer.
type DecisionResult struct {
	Answer        *string         `json:"answer,omitempty"`
	Decision      *string         `json:"decision,omitempty"`
	Amount        *float64        `json:"amount,omitempty"`
	Justification *string         `json:"justification,omitempty"`
	ClauseMapping []ClauseMapping `json:"clause_mapping,omitempty"`
}
