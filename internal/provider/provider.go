package provider

import (
	"context"

	"github.com/jordanhubbard/freebsd-src-on-mean-AI/internal/chat"
)

// TextChunkFunc 流式文本增量回调
// TextChunkFunc receives streamed text increments
type TextChunkFunc func(chunk string)

// Usage token 用量统计
// Usage reports token consumption
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Response 一次完整的模型回复
// Response is one complete model reply
type Response struct {
	Content      string
	FinishReason string
	Usage        Usage
}

// Provider 模型提供方接口。指令协议承载在纯文本回复里，因此不涉及
// function calling。
// Provider is the model backend interface. The directive protocol rides in
// plain-text replies, so function calling is not involved.
type Provider interface {
	// Chat 发送整个转写并返回一条回复（支持流式回调）
	// Chat sends the full transcript and returns one reply (supports a
	// streaming callback)
	Chat(ctx context.Context, messages []chat.Message, onTextChunk TextChunkFunc) (Response, error)

	// Name 返回 provider 名称
	// Name returns the provider name
	Name() string

	// CurrentModel 返回当前活跃模型
	// CurrentModel returns the current active model
	CurrentModel() string
}
