package model

// TurnState stores per-invocation state for the Eino Graph.
// Concurrency model:
//   - Registered as Graph Local State via compose.WithGenLocalState.
//   - Read and written only inside Eino state handlers or compose.ProcessState,
//     which serialize access, so no extra locking is needed.
//   - Conversation memory is not kept here; it outlives the invocation and is
//     owned by the session's MessagesManager.
type TurnState struct {
	SessionID string
	Query     string
	Intent    Intent
	City      string // resolved location, empty when none

	// Accumulated total LLM cost (USD) across model invocations for this turn
	TotalCostUSD float64
}

// QueryInput represents the input for one user turn.
type QueryInput struct {
	SessionID string `json:"session_id"`
	Query     string `json:"query"`
}
