package analyzer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"SwapSentinel/internal/model"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const systemPrompt = "You are a professional cryptocurrency trading analyst focused on technical analysis " +
	"and market trend judgement. Return your analysis as a JSON object."

// Analyzer turns a market snapshot into a recommendation. It never fails:
// faults are folded into a HOLD recommendation.
type Analyzer interface {
	Analyze(ctx context.Context, snap *model.MarketSnapshot) *model.Recommendation
}

// Options configures the chat completion request.
type Options struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
	Proxy       string
}

// Engine calls an OpenAI-compatible chat completion endpoint.
type Engine struct {
	client *openai.Client
	opts   Options
	log    *zap.Logger
	now    func() time.Time
}

// NewEngine creates an engine against opts.BaseURL.
func NewEngine(opts Options, log *zap.Logger) *Engine {
	transport := &http.Transport{}
	if opts.Proxy != "" {
		if u, err := url.Parse(opts.Proxy); err == nil {
			transport.Proxy = http.ProxyURL(u)
		} else {
			log.Warn("ignoring invalid proxy", zap.Error(err))
		}
	}

	cfg := openai.DefaultConfig(opts.APIKey)
	cfg.BaseURL = opts.BaseURL
	cfg.HTTPClient = &http.Client{
		Timeout:   opts.Timeout,
		Transport: transport,
	}

	return &Engine{
		client: openai.NewClientWithConfig(cfg),
		opts:   opts,
		log:    log.Named("analyzer"),
		now:    time.Now,
	}
}

// Analyze builds the prompt, calls the model and parses its reply.
func (e *Engine) Analyze(ctx context.Context, snap *model.MarketSnapshot) *model.Recommendation {
	prompt := BuildPrompt(snap, e.now())

	e.log.Info("requesting analysis", zap.String("inst_id", snap.InstID), zap.String("model", e.opts.Model))
	content, err := e.complete(ctx, prompt)
	if err != nil {
		e.log.Error("analysis request failed", zap.Error(err))
		return failed(err)
	}

	rec := Parse(content)
	e.log.Info("analysis complete",
		zap.String("recommendation", string(rec.Action)),
		zap.Float64("confidence", rec.Confidence))
	return rec
}

func (e *Engine) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.opts.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: e.opts.Temperature,
		MaxTokens:   e.opts.MaxTokens,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("llm api error (status %d): %s", apiErr.HTTPStatusCode, apiErr.Message)
		}
		return "", fmt.Errorf("llm request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("llm response has no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
