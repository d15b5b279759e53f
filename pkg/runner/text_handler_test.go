package runner

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aretw0/tagbot/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextHandler_Output(t *testing.T) {
	out := &bytes.Buffer{}
	handler := NewTextHandler(strings.NewReader(""), out,
		WithTextHandlerRenderer(func(s string) (string, error) {
			return "Rendered: " + s, nil
		}))

	require.NoError(t, handler.Output(context.Background(), "OxyCSBot", ports.Reply{Text: "Hello World"}))
	assert.Equal(t, "OxyCSBot: Rendered: Hello World\n", out.String())
}

func TestTextHandler_RendererFailureFallsBack(t *testing.T) {
	out := &bytes.Buffer{}
	handler := NewTextHandler(strings.NewReader(""), out,
		WithTextHandlerRenderer(func(string) (string, error) {
			return "", errors.New("boom")
		}))

	require.NoError(t, handler.Output(context.Background(), "Bot", ports.Reply{Text: "plain"}))
	assert.Equal(t, "Bot: plain\n", out.String())
}

func TestTextHandler_Input(t *testing.T) {
	out := &bytes.Buffer{}
	handler := NewTextHandler(strings.NewReader("  my user input  \nsecond"), out, WithPrompt())

	val, err := handler.Input(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "my user input", val)

	val, err = handler.Input(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "second", val)

	_, err = handler.Input(context.Background())
	assert.ErrorIs(t, err, io.EOF)

	assert.Equal(t, "> > > ", out.String())
}

func TestTextHandler_NoPromptForPipes(t *testing.T) {
	out := &bytes.Buffer{}
	handler := NewTextHandler(strings.NewReader("hello\n"), out)
	assert.False(t, handler.Interactive)

	_, err := handler.Input(context.Background())
	require.NoError(t, err)
	assert.Empty(t, out.String())
}

func TestTextHandler_RejectsOversizedInput(t *testing.T) {
	t.Setenv(EnvMaxInputSize, "8")
	out := &bytes.Buffer{}
	handler := NewTextHandler(strings.NewReader("far too long for the limit\nok\n"), out)

	val, err := handler.Input(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", val)
	assert.Contains(t, out.String(), "input exceeds maximum allowed size")
}

func TestJSONHandler_Input(t *testing.T) {
	in := strings.NewReader(`{"text":"  hi there "}` + "\n" + `"quoted"` + "\n" + "raw words\n")
	handler := NewJSONHandler(in, &bytes.Buffer{})

	for _, want := range []string{"hi there", "quoted", "raw words"} {
		got, err := handler.Input(context.Background())
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := handler.Input(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestJSONHandler_OutputCarriesError(t *testing.T) {
	out := &bytes.Buffer{}
	handler := NewJSONHandler(strings.NewReader(""), out)

	err := handler.Output(context.Background(), "Bot", ports.Reply{
		Text:  "",
		State: "waiting",
		Turns: 2,
		Err:   errors.New("no transition"),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Bot","state":"waiting","turns":2,"error":"no transition"}`, out.String())
}
