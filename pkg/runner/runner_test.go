package runner_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/tagbot"
	"github.com/aretw0/tagbot/pkg/adapters/memory"
	"github.com/aretw0/tagbot/pkg/bots/officehours"
	"github.com/aretw0/tagbot/pkg/ports"
	"github.com/aretw0/tagbot/pkg/runner"
	"github.com/aretw0/tagbot/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T) *session.Manager {
	t.Helper()
	bot, err := tagbot.New(officehours.Definition())
	require.NoError(t, err)
	return session.NewManager(bot, memory.NewStore())
}

// scriptedResponder returns canned outcomes in order and records what it saw.
type scriptedResponder struct {
	replies []ports.Reply
	errs    []error
	seen    []string
}

func (s *scriptedResponder) Respond(_ context.Context, _ string, text string) (ports.Reply, error) {
	i := len(s.seen)
	s.seen = append(s.seen, text)
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	var reply ports.Reply
	if i < len(s.replies) {
		reply = s.replies[i]
	}
	return reply, err
}

func TestRunner_Conversation(t *testing.T) {
	in := strings.NewReader("office hours for jeff\n\nyes\nquit\nthanks\n")
	out := &bytes.Buffer{}

	r := runner.NewRunner(
		runner.WithResponder(newManager(t)),
		runner.WithName(officehours.Name),
		runner.WithIO(in, out),
	)
	require.NoError(t, r.Run(context.Background()))

	assert.Equal(t,
		"OfficeHoursBot: Are you asking about office hours for Jeff?\n"+
			"OfficeHoursBot: Jeff's office hours are Wednesdays 10am-noon in Fowler 309.\n",
		out.String())
}

func TestRunner_ExitIsCaseInsensitive(t *testing.T) {
	responder := &scriptedResponder{}
	r := runner.NewRunner(
		runner.WithResponder(responder),
		runner.WithIO(strings.NewReader("EXIT\nhello\n"), &bytes.Buffer{}),
	)
	require.NoError(t, r.Run(context.Background()))
	assert.Empty(t, responder.seen)
}

func TestRunner_EOFEndsCleanly(t *testing.T) {
	responder := &scriptedResponder{replies: []ports.Reply{{Text: "hi"}}}
	out := &bytes.Buffer{}
	r := runner.NewRunner(
		runner.WithResponder(responder),
		runner.WithIO(strings.NewReader("hello"), out),
	)
	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, []string{"hello"}, responder.seen)
	assert.Equal(t, "Bot: hi\n", out.String())
}

func TestRunner_Diagnostics(t *testing.T) {
	responder := &scriptedResponder{
		replies: []ports.Reply{
			{Text: "", State: "waiting", Err: errors.New(`respond from "confused": no transition`)},
			{},
			{Text: "still here"},
		},
		errs: []error{nil, errors.New("store unavailable"), nil},
	}
	out := &bytes.Buffer{}
	r := runner.NewRunner(
		runner.WithResponder(responder),
		runner.WithIO(strings.NewReader("one\ntwo\nthree\n"), out),
	)
	require.NoError(t, r.Run(context.Background()))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, `[System] respond from "confused": no transition`, lines[0])
	assert.Equal(t, "Bot: ", lines[1])
	assert.Equal(t, "[System] store unavailable", lines[2])
	assert.Equal(t, "Bot: still here", lines[3])
}

func TestRunner_Renderer(t *testing.T) {
	responder := &scriptedResponder{replies: []ports.Reply{{Text: "hi"}}}
	out := &bytes.Buffer{}
	r := runner.NewRunner(
		runner.WithResponder(responder),
		runner.WithIO(strings.NewReader("hello\n"), out),
		runner.WithRenderer(func(s string) (string, error) { return "**" + s + "**\n", nil }),
	)
	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, "Bot: **hi**\n", out.String())
}

func TestRunner_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	responder := &scriptedResponder{}
	r := runner.NewRunner(
		runner.WithResponder(responder),
		runner.WithIO(strings.NewReader("hello\n"), &bytes.Buffer{}),
	)
	require.NoError(t, r.Run(ctx))
	assert.Empty(t, responder.seen)
}

func TestRunner_RequiresResponder(t *testing.T) {
	r := runner.NewRunner(runner.WithIO(strings.NewReader(""), &bytes.Buffer{}))
	assert.Error(t, r.Run(context.Background()))
}

func TestRunner_JSONMode(t *testing.T) {
	in := strings.NewReader(`{"text": "office hours for kathryn"}` + "\n" + `"yes"` + "\n" + "thanks\n")
	out := &bytes.Buffer{}

	r := runner.NewRunner(
		runner.WithResponder(newManager(t)),
		runner.WithName(officehours.Name),
		runner.WithInputHandler(runner.NewJSONHandler(in, out)),
	)
	require.NoError(t, r.Run(context.Background()))

	dec := json.NewDecoder(out)
	var got []map[string]any
	for dec.More() {
		var line map[string]any
		require.NoError(t, dec.Decode(&line))
		got = append(got, line)
	}
	require.Len(t, got, 3)

	assert.Equal(t, "Are you asking about office hours for Kathryn?", got[0]["reply"])
	assert.Equal(t, "confirm_kathryn", got[0]["state"])
	assert.Equal(t, "Kathryn's office hours are Fridays 11am-1pm in Fowler 304.", got[1]["reply"])
	assert.Equal(t, officehours.ThanksMessage, got[2]["reply"])
	assert.EqualValues(t, 3, got[2]["turns"])
	assert.Equal(t, officehours.Name, got[2]["name"])
}
