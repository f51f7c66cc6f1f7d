package ai

import (
	"TraceSpectra/internal/config"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sashabaranov/go-openai"
)

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("AI API key is not configured")

const resultsPrompt = "You are a senior network performance engineer. " +
	"Please interpret the following results of an ns-2 congestion control experiment. " +
	"Goodput is in Mbps, PLR is the packet loss ratio in percent, the fairness index is Jain's index over the " +
	"trailing window of the run and CoV is the coefficient of variation of per-second throughput, " +
	"where \"inf\" means the stability could not be measured. " +
	"Compare the variants and queue disciplines, point out trade-offs and keep the answer concise.\n\n" +
	"--- Results ---\n%s\n--- End of Results ---"

// ResultsAnalyzer implements model.Analyzer on an OpenAI-compatible endpoint.
type ResultsAnalyzer struct {
	model   string
	timeout time.Duration
	client  *openai.Client
}

// NewResultsAnalyzer creates a new instance of ResultsAnalyzer.
func NewResultsAnalyzer(cfg *config.AIConfig) (*ResultsAnalyzer, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout for AI analyzer: %w", err)
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &ResultsAnalyzer{
		model:   cfg.Model,
		timeout: timeout,
		client:  openai.NewClientWithConfig(clientConfig),
	}, nil
}

func (a *ResultsAnalyzer) request(input string, stream bool) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model:     a.model,
		MaxTokens: 2048,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf(resultsPrompt, input),
			},
		},
		Stream: stream,
	}
}

// AnalyzeResults returns the model's interpretation of a rendered comparison.
func (a *ResultsAnalyzer) AnalyzeResults(ctx context.Context, input string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	resp, err := a.client.CreateChatCompletion(ctx, a.request(input, false))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("AI request timeout: %w", err)
		}
		if errors.Is(err, context.Canceled) {
			return "", fmt.Errorf("AI request canceled by client: %w", err)
		}
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("OpenAI API returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// AnalyzeStream is like AnalyzeResults but hands the answer to sendChunk as
// it arrives.
func (a *ResultsAnalyzer) AnalyzeStream(ctx context.Context, input string, sendChunk func(string) error) error {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	stream, err := a.client.CreateChatCompletionStream(ctx, a.request(input, true))
	if err != nil {
		return fmt.Errorf("failed to create chat completion stream: %w", err)
	}
	defer stream.Close()

	for {
		response, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("stream error: %w", err)
		}
		if len(response.Choices) == 0 {
			continue
		}
		if err := sendChunk(response.Choices[0].Delta.Content); err != nil {
			return fmt.Errorf("failed to send chunk: %w", err)
		}
	}
}
