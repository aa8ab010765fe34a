package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sandevgo/lensbot/internal/core"
	"github.com/sandevgo/lensbot/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetrier() *retry.Retrier {
	return retry.NewRetrier(&retry.Config{
		MaxRetries:    2,
		BackoffFactor: 1.0,
		InitialDelay:  time.Millisecond,
		MaxDelay:      time.Millisecond,
	})
}

func newTestProvider(url string) *OpenAICompatible {
	p := NewOpenAICompatible(OpenAICompatibleConfig{
		BaseURL:    url,
		APIKey:     "test-key",
		Model:      "test/model",
		AuthHeader: "Authorization",
		AuthPrefix: "Bearer ",
	})
	p.retrier = fastRetrier()
	return p
}

func TestOpenAICompatible_Chat(t *testing.T) {
	var gotBody map[string]any
	var gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"a cat"}}]}`)
	}))
	defer server.Close()

	provider := newTestProvider(server.URL)

	history := []core.Message{{Role: core.RoleUser, Content: "what is in this image?"}}
	msg, err := provider.Chat(context.Background(), history, nil)

	require.NoError(t, err)
	assert.Equal(t, core.RoleAssistant, msg.Role)
	assert.Equal(t, "a cat", msg.Content)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "test/model", gotBody["model"])
	assert.NotContains(t, gotBody, "tools", "tools key omitted when none registered")
}

func TestOpenAICompatible_Chat_MultimodalPayload(t *testing.T) {
	var gotBody struct {
		Messages []struct {
			Role    string `json:"role"`
			Content any    `json:"content"`
		} `json:"messages"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`)
	}))
	defer server.Close()

	provider := newTestProvider(server.URL)

	history := []core.Message{{
		Role:    core.RoleUser,
		Content: "describe this",
		Parts:   []core.ContentPart{core.ImagePart("data:image/png;base64,AAAA")},
	}}
	_, err := provider.Chat(context.Background(), history, nil)
	require.NoError(t, err)

	require.Len(t, gotBody.Messages, 1)
	parts, ok := gotBody.Messages[0].Content.([]any)
	require.True(t, ok, "content must be a part array when an image is attached")
	require.Len(t, parts, 2)

	text := parts[0].(map[string]any)
	assert.Equal(t, "text", text["type"])
	assert.Equal(t, "describe this", text["text"])

	image := parts[1].(map[string]any)
	assert.Equal(t, "image_url", image["type"])
	assert.Equal(t, "data:image/png;base64,AAAA", image["image_url"].(map[string]any)["url"])
}

func TestOpenAICompatible_Chat_ToolCalls(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[{"message":{
			"role":"assistant",
			"content":"",
			"tool_calls":[{"id":"call_1","type":"function","function":{"name":"fetch_url","arguments":"{\"url\":\"https://example.com\"}"}}]
		}}]}`)
	}))
	defer server.Close()

	provider := newTestProvider(server.URL)

	msg, err := provider.Chat(context.Background(), []core.Message{{Role: core.RoleUser, Content: "fetch it"}}, []core.Tool{
		{Type: "function", Function: core.Function{Name: "fetch_url", Parameters: json.RawMessage(`{}`)}},
	})

	require.NoError(t, err)
	require.Len(t, msg.ToolCalls, 1)
	assert.Equal(t, "call_1", msg.ToolCalls[0].ID)
	assert.Equal(t, "fetch_url", msg.ToolCalls[0].Function.Name)
}

func TestOpenAICompatible_Chat_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":"bad key"}`)
	}))
	defer server.Close()

	provider := newTestProvider(server.URL)

	_, err := provider.Chat(context.Background(), []core.Message{{Role: core.RoleUser, Content: "hi"}}, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "http 401")
	assert.Equal(t, int32(1), calls.Load())
}

func TestOpenAICompatible_Chat_ServerErrorRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"recovered"}}]}`)
	}))
	defer server.Close()

	provider := newTestProvider(server.URL)

	msg, err := provider.Chat(context.Background(), []core.Message{{Role: core.RoleUser, Content: "hi"}}, nil)

	require.NoError(t, err)
	assert.Equal(t, "recovered", msg.Content)
	assert.Equal(t, int32(3), calls.Load())
}

func TestOpenAICompatible_Chat_DefaultHeaders(t *testing.T) {
	var gotUA, gotCT string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotCT = r.Header.Get("Content-Type")
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`)
	}))
	defer server.Close()

	provider := newTestProvider(server.URL)

	_, err := provider.Chat(context.Background(), []core.Message{{Role: core.RoleUser, Content: "hi"}}, nil)

	require.NoError(t, err)
	assert.Contains(t, gotUA, core.LensName)
	assert.Equal(t, "application/json", gotCT)
}

func TestOpenAICompatible_Chat_ConfiguredTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"too late"}}]}`)
	}))
	defer server.Close()

	provider := NewOpenAICompatible(OpenAICompatibleConfig{
		BaseURL: server.URL,
		Model:   "test/model",
		Timeout: 50 * time.Millisecond,
	})
	provider.retrier = fastRetrier()

	_, err := provider.Chat(context.Background(), []core.Message{{Role: core.RoleUser, Content: "hi"}}, nil)

	require.Error(t, err)
}

func TestOpenAICompatible_Chat_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[]}`)
	}))
	defer server.Close()

	provider := newTestProvider(server.URL)

	_, err := provider.Chat(context.Background(), []core.Message{{Role: core.RoleUser, Content: "hi"}}, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty choices")
}

func TestOpenRouter_Models(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/models", r.URL.Path)
		require.Equal(t, http.MethodGet, r.Method)
		fmt.Fprint(w, `{"data":[
			{"id":"anthropic/claude-3-5-sonnet","name":"Claude 3.5 Sonnet","context_length":200000},
			{"id":"qwen/qwen2.5-vl-32b-instruct:free","name":"Qwen2.5 VL 32B","context_length":32768}
		]}`)
	}))
	defer server.Close()

	provider := NewOpenRouterWithBaseURL(server.URL, "test-key", "test/model")

	models, err := provider.Models(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "anthropic/claude-3-5-sonnet", models[0].ID)
	assert.Equal(t, 200000, models[0].ContextLength)
}
