package model

// Interaction is one user/bot turn inside a session.
type Interaction struct {
	Timestamp   int64  `json:"timestamp"`
	UserMessage string `json:"user_message"`
	BotResponse string `json:"bot_response"`
}

// Session is the per-connection conversation state. Profile entries
// (rank, interests) are derived from message content and live only as
// long as the session does.
type Session struct {
	ID           string            `json:"session_id"`
	Interactions []Interaction     `json:"interactions"`
	Profile      map[string]string `json:"profile,omitempty"`
}
