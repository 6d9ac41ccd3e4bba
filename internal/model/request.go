package model

// ChatRequest is the body of POST /api/health-assistant/chat.
type ChatRequest struct {
	Message             string           `json:"message"`
	ConversationHistory []HistoryMessage `json:"conversationHistory"`
	UserID              string           `json:"userId"`
}

// HistoryMessage is one caller-supplied turn. Extra fields sent by the
// widget (timestamp) are ignored.
type HistoryMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
