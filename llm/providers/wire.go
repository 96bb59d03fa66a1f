package providers

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/blackjuly/ultra-mcp/llm/llmtypes"
)

// OpenAICompatMessage is the wire shape for a single chat message in the
// OpenAI chat-completions format, shared by OpenAI, Azure, Bailian,
// Ollama, and OpenRouter.
type OpenAICompatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content,omitempty"`
	Name    string `json:"name,omitempty"`
}

// OpenAICompatRequest is the wire shape of a chat-completions request.
type OpenAICompatRequest struct {
	Model       string                `json:"model"`
	Messages    []OpenAICompatMessage `json:"messages"`
	MaxTokens   int                   `json:"max_tokens,omitempty"`
	Temperature float32               `json:"temperature,omitempty"`
	ReasoningEffort string            `json:"reasoning_effort,omitempty"`
	Stream      bool                  `json:"stream,omitempty"`
}

// OpenAICompatChoice is one choice in a chat-completions response.
type OpenAICompatChoice struct {
	Index        int                  `json:"index"`
	FinishReason string               `json:"finish_reason"`
	Message      OpenAICompatMessage  `json:"message"`
	Delta        *OpenAICompatMessage `json:"delta,omitempty"`
}

// OpenAICompatUsage mirrors the chat-completions usage block.
type OpenAICompatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// OpenAICompatResponse is the wire shape of a chat-completions response,
// reused for both the full response and each SSE chunk.
type OpenAICompatResponse struct {
	ID      string               `json:"id"`
	Model   string               `json:"model"`
	Created int64                `json:"created,omitempty"`
	Choices []OpenAICompatChoice `json:"choices"`
	Usage   *OpenAICompatUsage   `json:"usage,omitempty"`
}

// ConvertMessagesToOpenAI converts llmtypes.Message to the wire shape,
// prepending a system message when SystemPrompt is set.
func ConvertMessagesToOpenAI(systemPrompt string, msgs []llmtypes.Message) []OpenAICompatMessage {
	out := make([]OpenAICompatMessage, 0, len(msgs)+1)
	if systemPrompt != "" {
		out = append(out, OpenAICompatMessage{Role: "system", Content: systemPrompt})
	}
	for _, m := range msgs {
		out = append(out, OpenAICompatMessage{Role: string(m.Role), Content: m.Content, Name: m.Name})
	}
	return out
}

// ToLLMChatResponse converts a decoded chat-completions response to the
// gateway's unified ChatResponse-shaped fields (provider + text + usage).
func ToLLMChatResponse(oa OpenAICompatResponse) (text, finishReason string, usage OpenAICompatUsage) {
	if len(oa.Choices) > 0 {
		text = oa.Choices[0].Message.Content
		finishReason = oa.Choices[0].FinishReason
	}
	if oa.Usage != nil {
		usage = *oa.Usage
	}
	return text, finishReason, usage
}

// StreamSSE parses a server-sent-events body in the OpenAI chat-completions
// shape and passes each decoded delta to emit. Lines
// that aren't valid "data: " payloads are silently skipped (spec.md §4.1);
// the literal "[DONE]" terminates the stream. Closing ctx aborts the
// producer and releases body.
func StreamSSE(ctx context.Context, body io.ReadCloser, providerName string, emit func(chunk StreamDelta)) {
	defer body.Close()
	reader := bufio.NewReader(body)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err != io.EOF {
				select {
				case <-ctx.Done():
				default:
					emit(StreamDelta{Err: TransportError(err, providerName)})
				}
			}
			return
		}
		line = strings.TrimSpace(line)
		if line == "" || !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			return
		}

		var oaResp OpenAICompatResponse
		if err := json.Unmarshal([]byte(data), &oaResp); err != nil {
			// ParseError: malformed chunk, skip silently and continue.
			continue
		}

		var usage *OpenAICompatUsage
		if oaResp.Usage != nil {
			usage = oaResp.Usage
		}

		if len(oaResp.Choices) == 0 {
			// OpenAI's stream_options.include_usage sends a final chunk
			// with an empty choices array and the only populated usage
			// block; without this, that chunk is dropped on the floor
			// and the tracker records null usage for a stream the
			// upstream did report usage for.
			if usage != nil {
				select {
				case <-ctx.Done():
					return
				default:
				}
				emit(StreamDelta{ID: oaResp.ID, Model: oaResp.Model, Usage: usage})
			}
			continue
		}

		for _, choice := range oaResp.Choices {
			delta := ""
			if choice.Delta != nil {
				delta = choice.Delta.Content
			}
			select {
			case <-ctx.Done():
				return
			default:
			}
			emit(StreamDelta{
				ID:           oaResp.ID,
				Model:        oaResp.Model,
				ContentDelta: delta,
				FinishReason: choice.FinishReason,
				Usage:        usage,
			})
		}
	}
}

// StreamDelta is one decoded SSE event, passed to the caller-supplied
// emit callback in StreamSSE.
type StreamDelta struct {
	ID           string
	Model        string
	ContentDelta string
	FinishReason string
	Usage        *OpenAICompatUsage
	Err          *llmtypes.Error
}

// DefaultTimeout is the adapter default when a provider config leaves
// Timeout unset.
const DefaultTimeout = 30 * time.Second
