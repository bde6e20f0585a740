package model

type EventType string

const (
	EventMeta   EventType = "meta"
	EventChunk  EventType = "chunk"
	EventAnswer EventType = "answer"
	EventError  EventType = "error"
)

// QueryEvent is one item of the query result stream. Every query
// terminates with exactly one answer or error event; meta and chunk
// events may precede it.
type QueryEvent struct {
	Type    EventType `json:"type"`
	Text    string    `json:"text,omitempty"`
	Message string    `json:"message,omitempty"`
	Sources []string  `json:"sources,omitempty"`
	Context []string  `json:"context,omitempty"`
}

func MetaEvent(sources, context []string) QueryEvent {
	return QueryEvent{Type: EventMeta, Sources: sources, Context: context}
}

func AnswerEvent(text string) QueryEvent {
	return QueryEvent{Type: EventAnswer, Text: text}
}

func ErrorEvent(message string) QueryEvent {
	return QueryEvent{Type: EventError, Message: message}
}
