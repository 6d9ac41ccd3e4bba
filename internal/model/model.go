package model

import (
	"context"
	"fmt"

	"health-assistant/internal/config"
	"health-assistant/internal/utils"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/qwen"
	einoModel "github.com/cloudwego/eino/components/model"
)

// NewChatModel builds the completion client for the configured provider.
func NewChatModel(ctx context.Context, cfg config.LLMConfig) (einoModel.BaseChatModel, error) {
	switch cfg.Provider {
	case "groq", "openai":
		return newOpenAIChatModel(openaiChatModelConfig{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			HTTPClient:  utils.NewHTTPClient(cfg.Timeout),
		}), nil
	case "ark":
		return createArkModel(ctx, cfg)
	case "qwen":
		return createQwenModel(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported model provider: %s", cfg.Provider)
	}
}

func createArkModel(ctx context.Context, cfg config.LLMConfig) (einoModel.BaseChatModel, error) {
	temperature := cfg.Temperature
	maxTokens := cfg.MaxTokens

	chatModel, err := ark.NewChatModel(ctx, &ark.ChatModelConfig{
		BaseURL:     cfg.BaseURL,
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
		CustomHeader: map[string]string{
			"X-Ark-Thinking-Mode": "disable",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ark model: %w", err)
	}
	return chatModel, nil
}

func createQwenModel(ctx context.Context, cfg config.LLMConfig) (einoModel.BaseChatModel, error) {
	temperature := cfg.Temperature
	maxTokens := cfg.MaxTokens

	chatModel, err := qwen.NewChatModel(ctx, &qwen.ChatModelConfig{
		BaseURL:     cfg.BaseURL,
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
		Timeout:     cfg.Timeout,
		HTTPClient:  utils.NewHTTPClient(cfg.Timeout),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qwen model: %w", err)
	}
	return chatModel, nil
}
