package service

import (
	"github.com/cloudwego/eino/schema"
	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter sizes an assembled conversation for the history budget.
type TokenCounter interface {
	CountMessages(messages []*schema.Message) int
}

type Tokenizer struct {
	encoding *tiktoken.Tiktoken
}

// NewTokenizer loads a tiktoken encoding; an empty name means cl100k_base.
func NewTokenizer(encoding string) (*Tokenizer, error) {
	if encoding == "" {
		encoding = "cl100k_base"
	}
	tkm, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, err
	}
	return &Tokenizer{encoding: tkm}, nil
}

func (t *Tokenizer) CountTokens(text string) int {
	return len(t.encoding.Encode(text, nil, nil))
}

// CountMessages charges 4 tokens of framing per message plus 3 for the
// reply primer.
func (t *Tokenizer) CountMessages(messages []*schema.Message) int {
	tokens := 0
	for _, m := range messages {
		tokens += 4
		tokens += t.CountTokens(m.Content)
		tokens += t.CountTokens(string(m.Role))
	}
	tokens += 3
	return tokens
}
