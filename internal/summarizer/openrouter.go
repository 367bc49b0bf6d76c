package summarizer

import (
	"context"
	"fmt"
	"strings"
	"summation/internal/domain"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	DefaultEndpoint = "https://openrouter.ai/api/v1"
	DefaultTimeout  = 30 * time.Second

	appTitle = "Summation"

	promptTemplate = `Provide a concise summary of the following content in approximately 300 words:

%s

Summary:`
)

// BuildPrompt embeds content verbatim into the summary instruction.
func BuildPrompt(content string) string {
	return fmt.Sprintf(promptTemplate, content)
}

// OpenRouterSummarizer calls an OpenAI-compatible chat completions endpoint.
// A client is built per call from the request config and is not reused.
type OpenRouterSummarizer struct{}

func NewOpenRouterSummarizer() *OpenRouterSummarizer {
	return &OpenRouterSummarizer{}
}

func (s *OpenRouterSummarizer) Summarize(ctx context.Context, req Request) (string, error) {
	cfg := req.Config

	if strings.TrimSpace(cfg.Credential) == "" {
		return "", domain.NewError(domain.KindMissingInput, "credential is empty", nil)
	}

	if strings.TrimSpace(req.Text) == "" {
		return "", domain.NewError(domain.KindGenerationFailed, "input is empty", nil)
	}

	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = domain.Temperature
	}

	client := openai.NewClient(
		option.WithAPIKey(cfg.Credential),
		option.WithBaseURL(endpoint),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(timeout),
		option.WithHeader("X-Title", appTitle),
	)

	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(cfg.Model.ID()),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(BuildPrompt(req.Text)),
		},
		Temperature: openai.Float(temperature),
	})
	if err != nil {
		return "", domain.NewError(domain.KindGenerationFailed, "do request", err).Redact(cfg.Credential)
	}

	if len(resp.Choices) == 0 {
		return "", domain.NewError(
			domain.KindGenerationFailed,
			"do request",
			fmt.Errorf("no choices in response (model = %s)", cfg.Model.ID()),
		)
	}

	summary := strings.TrimSpace(resp.Choices[0].Message.Content)
	if summary == "" {
		return "", domain.NewError(
			domain.KindGenerationFailed,
			"do request",
			fmt.Errorf("output text is missing (finishReason = %s)", resp.Choices[0].FinishReason),
		)
	}

	return summary, nil
}
