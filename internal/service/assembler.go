package service

import (
	"github.com/cloudwego/eino/schema"

	"health-assistant/internal/model"
)

// Assembler builds the message list sent to the model: system prompt,
// caller history verbatim, then the new user message.
type Assembler struct {
	maxHistory int
	maxTokens  int
	counter    TokenCounter
}

// NewAssembler caps history at the most recent maxHistory entries and, when
// counter is set, drops the oldest remaining entries until the whole list
// fits maxTokens. Zero disables either cap.
func NewAssembler(maxHistory, maxTokens int, counter TokenCounter) *Assembler {
	return &Assembler{
		maxHistory: maxHistory,
		maxTokens:  maxTokens,
		counter:    counter,
	}
}

func (a *Assembler) Assemble(systemPrompt string, history []model.HistoryMessage, newMessage string) []*schema.Message {
	if a.maxHistory > 0 && len(history) > a.maxHistory {
		history = history[len(history)-a.maxHistory:]
	}

	messages := build(systemPrompt, history, newMessage)
	if a.counter == nil || a.maxTokens <= 0 {
		return messages
	}

	for len(history) > 0 && a.counter.CountMessages(messages) > a.maxTokens {
		history = history[1:]
		messages = build(systemPrompt, history, newMessage)
	}
	return messages
}

func build(systemPrompt string, history []model.HistoryMessage, newMessage string) []*schema.Message {
	messages := make([]*schema.Message, 0, len(history)+2)
	messages = append(messages, schema.SystemMessage(systemPrompt))
	for _, h := range history {
		messages = append(messages, &schema.Message{
			Role:    schema.RoleType(h.Role),
			Content: h.Content,
		})
	}
	messages = append(messages, schema.UserMessage(newMessage))
	return messages
}
