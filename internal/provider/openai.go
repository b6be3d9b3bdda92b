package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/jordanhubbard/freebsd-src-on-mean-AI/internal/chat"
)

// OpenAIProvider 使用 go-openai SDK 的 Provider 实现，面向任何
// OpenAI 兼容端点（含本地推理服务）。
// OpenAIProvider implements Provider using the go-openai SDK, against any
// OpenAI-compatible endpoint (local inference servers included).
type OpenAIProvider struct {
	client *openai.Client
	model  string
	cfg    OpenAIConfig
	mu     sync.RWMutex
}

// OpenAIConfig SDK provider 配置
// OpenAIConfig is the SDK provider configuration
type OpenAIConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	TimeoutMS  int
	MaxRetries int
}

// NewOpenAIProvider 创建基于 SDK 的 provider
// NewOpenAIProvider creates an SDK-based provider
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	httpClient := &http.Client{}
	if cfg.TimeoutMS > 0 {
		httpClient.Timeout = time.Duration(cfg.TimeoutMS) * time.Millisecond
	}
	clientCfg.HTTPClient = httpClient

	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		cfg:    cfg,
	}
}

func (p *OpenAIProvider) Name() string {
	return "openai"
}

func (p *OpenAIProvider) CurrentModel() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.model
}

// Chat 带指数退避重试的请求入口；context 取消类错误不重试。
// Chat is the request entry point with exponential-backoff retries;
// context cancellation errors are not retried.
func (p *OpenAIProvider) Chat(ctx context.Context, messages []chat.Message, onTextChunk TextChunkFunc) (Response, error) {
	var lastErr error
	for attempt := 0; attempt <= p.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(150*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-ctx.Done():
				return Response{}, ctx.Err()
			case <-time.After(backoff):
			}
		}

		resp, err := p.chatStream(ctx, messages, onTextChunk)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		// 不可重试的错误 / Non-retryable errors
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Response{}, err
		}
		if attempt >= p.cfg.MaxRetries {
			break
		}
	}
	return Response{}, fmt.Errorf("provider chat failed after %d retries: %w", p.cfg.MaxRetries, lastErr)
}

func (p *OpenAIProvider) chatStream(ctx context.Context, messages []chat.Message, onTextChunk TextChunkFunc) (Response, error) {
	req := openai.ChatCompletionRequest{
		Model:    p.CurrentModel(),
		Messages: convertMessages(messages),
		Stream:   true,
		StreamOptions: &openai.StreamOptions{
			IncludeUsage: true,
		},
	}

	stream, err := p.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return Response{}, fmt.Errorf("create stream: %w", err)
	}
	defer stream.Close()

	var (
		contentBuilder strings.Builder
		finishReason   string
		usage          Usage
	)

	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// 如果已经收到部分内容，返回已有的而不是报错
			// If we already have partial content, return what we have
			if contentBuilder.Len() > 0 {
				break
			}
			return Response{}, fmt.Errorf("recv stream: %w", err)
		}

		for _, choice := range chunk.Choices {
			if choice.FinishReason != "" {
				finishReason = string(choice.FinishReason)
			}
			if choice.Delta.Content != "" {
				contentBuilder.WriteString(choice.Delta.Content)
				if onTextChunk != nil {
					onTextChunk(choice.Delta.Content)
				}
			}
		}

		// Usage (部分 provider 在最后一个 chunk 中返回)
		// Usage (some providers return it in the last chunk)
		if chunk.Usage != nil {
			usage = Usage{
				PromptTokens:     chunk.Usage.PromptTokens,
				CompletionTokens: chunk.Usage.CompletionTokens,
				TotalTokens:      chunk.Usage.TotalTokens,
			}
		}
	}

	return Response{
		Content:      contentBuilder.String(),
		FinishReason: finishReason,
		Usage:        usage,
	}, nil
}

func convertMessages(messages []chat.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}
	return out
}
