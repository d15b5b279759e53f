package graph_test

import (
	"context"
	"testing"

	"github.com/aretw0/tagbot"
	"github.com/aretw0/tagbot/internal/presentation/graph"
	"github.com/aretw0/tagbot/pkg/bots/officehours"
	"github.com/aretw0/tagbot/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateMermaid_Shapes(t *testing.T) {
	def := officehours.Definition()
	out := graph.GenerateMermaid(def, nil, nil)

	assert.Contains(t, out, "graph TD\n")
	assert.Contains(t, out, `waiting(("waiting"))`)
	assert.Contains(t, out, `unknown_faculty["unknown_faculty"]`)
	assert.Contains(t, out, `confirm_hsing_hau["confirm_hsing-hau"]`)
	assert.Contains(t, out, `finish_thanks(["finish: thanks"])`)
	assert.Contains(t, out, "finish_thanks -.-> waiting")
	assert.NotContains(t, out, "Overlay")
}

func TestRecorder(t *testing.T) {
	rec := graph.NewRecorder()
	bot, err := tagbot.New(officehours.Definition(), tagbot.WithLifecycleHooks(rec.Hooks()))
	require.NoError(t, err)

	conv := bot.NewConversation()
	ctx := context.Background()
	for _, msg := range []string{"office hours please", "jeff", "yes", "office hours please"} {
		_, err := conv.Respond(ctx, msg)
		require.NoError(t, err)
	}

	edges := rec.Edges()
	assert.Equal(t, []graph.Edge{
		{From: "confirm_jeff", Reason: "location_jeff", Count: 1},
		{From: "unknown_faculty", To: "confirm_jeff", Count: 1},
		{From: "waiting", To: "unknown_faculty", Count: 2},
	}, edges)

	overlay := rec.Overlay()
	assert.Equal(t, domain.StateID("unknown_faculty"), overlay.Current)
	assert.Equal(t, []domain.StateID{"waiting", "unknown_faculty", "confirm_jeff"}, overlay.Visited)

	out := graph.GenerateMermaid(bot.Definition(), edges, overlay)
	assert.Contains(t, out, `waiting -- "2" --> unknown_faculty`)
	assert.Contains(t, out, "unknown_faculty --> confirm_jeff")
	assert.Contains(t, out, "confirm_jeff --> finish_location_jeff")
	assert.Contains(t, out, "class unknown_faculty current;")
	assert.Contains(t, out, "class confirm_jeff visited;")
}
