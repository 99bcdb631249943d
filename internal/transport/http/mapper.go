package http

import (
	"time"

	"github.com/singiamtel/PS-cord/internal/core"
)

// MessageResponse represents a log line in API responses.
type MessageResponse struct {
	ID          string `json:"id"`
	Timestamp   string `json:"timestamp"`
	User        string `json:"user,omitempty"`
	Content     string `json:"content"`
	Type        string `json:"type"`
	Name        string `json:"name,omitempty"`
	Highlighted bool   `json:"highlighted"`
}

func messageResponse(m core.Message) MessageResponse {
	return MessageResponse{
		ID:          m.ID,
		Timestamp:   time.Unix(m.Timestamp, 0).UTC().Format(time.RFC3339),
		User:        m.User,
		Content:     m.Content,
		Type:        string(m.Type),
		Name:        m.Name,
		Highlighted: m.Highlighted(),
	}
}

func messageResponses(messages []core.Message) []MessageResponse {
	out := make([]MessageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, messageResponse(m))
	}
	return out
}
