package vision

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sandevgo/lensbot/internal/core"
	"github.com/sandevgo/lensbot/pkg/dataurl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingProvider struct {
	answer string
	err    error
	seen   []core.Message
}

func (p *capturingProvider) Chat(ctx context.Context, history []core.Message, tools []core.Tool) (core.Message, error) {
	p.seen = history
	if p.err != nil {
		return core.Message{}, p.err
	}
	return core.Message{Role: core.RoleAssistant, Content: p.answer}, nil
}

func writeImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "photo.jpg")
	require.NoError(t, os.WriteFile(path, []byte{0xFF, 0xD8, 0xFF, 0xE0}, 0o644))
	return path
}

func TestDescriber_Direct(t *testing.T) {
	provider := &capturingProvider{answer: "a sunset"}
	d := NewDescriber(provider, "key", "https://openrouter.ai/api", "test/model")

	answer, err := d.Direct(context.Background(), writeImage(t), "what do you see?")

	require.NoError(t, err)
	assert.Equal(t, "a sunset", answer)

	require.Len(t, provider.seen, 1)
	msg := provider.seen[0]
	assert.Equal(t, core.RoleUser, msg.Role)
	assert.Equal(t, "what do you see?", msg.Content)
	require.Len(t, msg.Parts, 1)
	assert.True(t, strings.HasPrefix(msg.Parts[0].ImageURL.URL, "data:image/jpeg;base64,"))
}

func TestDescriber_Direct_MissingImage(t *testing.T) {
	d := NewDescriber(&capturingProvider{}, "key", "https://openrouter.ai/api", "test/model")

	_, err := d.Direct(context.Background(), "/no/such/photo.jpg", "what do you see?")

	require.Error(t, err)
	assert.ErrorIs(t, err, dataurl.ErrNotFound)
}

func TestDescriber_FromURIFile(t *testing.T) {
	provider := &capturingProvider{answer: "a logo"}
	d := NewDescriber(provider, "key", "https://openrouter.ai/api", "test/model")

	res := dataurl.EncodeBytes("logo.png", []byte{0x89, 0x50, 0x4E, 0x47})
	path := filepath.Join(t.TempDir(), "logo.b64")
	require.NoError(t, os.WriteFile(path, []byte(res.URI()+"\n"), 0o644))

	answer, err := d.FromURIFile(context.Background(), path, "describe")

	require.NoError(t, err)
	assert.Equal(t, "a logo", answer)
	require.Len(t, provider.seen, 1)
	assert.Equal(t, res.URI(), provider.seen[0].Parts[0].ImageURL.URL)
}

func TestDescriber_FromURIFile_NotAURI(t *testing.T) {
	d := NewDescriber(&capturingProvider{}, "key", "https://openrouter.ai/api", "test/model")

	path := filepath.Join(t.TempDir(), "junk.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))

	_, err := d.FromURIFile(context.Background(), path, "describe")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not contain a data URI")
}

func TestDescriber_ProviderErrorSurfaces(t *testing.T) {
	provider := &capturingProvider{err: errors.New("upstream down")}
	d := NewDescriber(provider, "key", "https://openrouter.ai/api", "test/model")

	_, err := d.Direct(context.Background(), writeImage(t), "describe")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream down")
}
