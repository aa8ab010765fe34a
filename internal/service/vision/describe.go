// Package vision demonstrates three ways of sending a local image to a
// vision-capable completion endpoint: through the in-house HTTP provider,
// through the official OpenAI SDK pointed at the same base URL, and from a
// data-URI file produced earlier by the encoder CLI.
package vision

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/sandevgo/lensbot/internal/core"
	"github.com/sandevgo/lensbot/pkg/dataurl"
	"github.com/sandevgo/lensbot/pkg/log"
)

const DefaultQuestion = "What's in this image?"

type Describer struct {
	provider core.AIProvider
	sdkModel string
	sdk      openai.Client
}

func NewDescriber(provider core.AIProvider, apiKey, baseURL, model string) *Describer {
	return &Describer{
		provider: provider,
		sdkModel: model,
		sdk: openai.NewClient(
			option.WithAPIKey(apiKey),
			option.WithBaseURL(baseURL+"/v1"),
			option.WithHeader("HTTP-Referer", core.LensRepositoryURL),
			option.WithHeader("X-Title", core.LensName),
		),
	}
}

// Direct encodes the image and sends it through the provider's own
// chat-completions client.
func (d *Describer) Direct(ctx context.Context, imagePath, question string) (string, error) {
	res, err := dataurl.Encode(imagePath)
	if err != nil {
		return "", err
	}
	return d.sendURI(ctx, res.URI(), question)
}

// ViaSDK sends the same request through the OpenAI SDK instead of the
// hand-rolled HTTP client.
func (d *Describer) ViaSDK(ctx context.Context, imagePath, question string) (string, error) {
	res, err := dataurl.Encode(imagePath)
	if err != nil {
		return "", err
	}

	completion, err := d.sdk.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(d.sdkModel),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(question),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL: res.URI(),
				}),
			}),
		},
	})
	if err != nil {
		return "", fmt.Errorf("sdk chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("sdk returned no choices")
	}
	return completion.Choices[0].Message.Content, nil
}

// FromURIFile reads a previously saved data URI (the output of
// `lens encode -o`) and sends it without touching the original image.
func (d *Describer) FromURIFile(ctx context.Context, uriPath, question string) (string, error) {
	data, err := os.ReadFile(uriPath)
	if err != nil {
		return "", fmt.Errorf("failed to read uri file: %w", err)
	}

	uri := strings.TrimSpace(string(data))
	if !strings.HasPrefix(uri, "data:") {
		return "", fmt.Errorf("%s does not contain a data URI", uriPath)
	}
	return d.sendURI(ctx, uri, question)
}

func (d *Describer) sendURI(ctx context.Context, uri, question string) (string, error) {
	log.FromCtx(ctx).Debug().Int("uri_length", len(uri)).Msg("sending image to vision model")

	msg := core.Message{
		Role:    core.RoleUser,
		Content: question,
		Parts:   []core.ContentPart{core.ImagePart(uri)},
	}

	answer, err := d.provider.Chat(ctx, []core.Message{msg}, nil)
	if err != nil {
		return "", err
	}
	return answer.Content, nil
}
