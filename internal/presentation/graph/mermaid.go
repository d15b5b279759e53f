// Package graph draws bot state machines as Mermaid flowcharts.
//
// Transitions live in handler code, so edges cannot be read from a
// definition. A Recorder collects them from lifecycle events instead, which
// makes the chart a picture of the paths conversations actually took.
package graph

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/tagbot/pkg/domain"
	"github.com/aretw0/tagbot/pkg/registry"
)

// Edge is an observed transition. Exactly one of To and Reason is set.
type Edge struct {
	From   domain.StateID
	To     domain.StateID
	Reason domain.FinishReason
	Count  int
}

// Overlay contains dynamic state data to visualize on the graph.
type Overlay struct {
	Visited []domain.StateID
	Current domain.StateID
}

// Recorder accumulates edges from lifecycle events. It is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	edges   map[Edge]int
	visited []domain.StateID
	seen    map[domain.StateID]bool
	current domain.StateID
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		edges: make(map[Edge]int),
		seen:  make(map[domain.StateID]bool),
	}
}

// Hooks returns lifecycle hooks feeding the recorder.
func (r *Recorder) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStateEnter: func(_ context.Context, e *domain.StateEvent) {
			r.add(Edge{From: e.From, To: e.To}, e.To)
		},
		OnFinish: func(_ context.Context, e *domain.FinishEvent) {
			r.add(Edge{From: e.From, Reason: e.Reason}, "")
		},
	}
}

func (r *Recorder) add(e Edge, entered domain.StateID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.edges[e]++
	r.visit(e.From)
	r.current = entered
	if entered != "" {
		r.visit(entered)
	}
}

func (r *Recorder) visit(s domain.StateID) {
	if !r.seen[s] {
		r.seen[s] = true
		r.visited = append(r.visited, s)
	}
}

// Edges returns the observed edges sorted by source, then target.
func (r *Recorder) Edges() []Edge {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Edge, 0, len(r.edges))
	for e, n := range r.edges {
		e.Count = n
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.From != b.From {
			return a.From < b.From
		}
		if a.To != b.To {
			return a.To < b.To
		}
		return a.Reason < b.Reason
	})
	return out
}

// Overlay returns the visited states and the state the last event left the machine in.
// An empty Current means the last event was a finish (back to the default state).
func (r *Recorder) Overlay() *Overlay {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &Overlay{
		Visited: append([]domain.StateID(nil), r.visited...),
		Current: r.current,
	}
}

// GenerateMermaid produces a Mermaid flowchart of def with the given edges.
// Shapes:
// - Default state: ((Circle))
// - Other states: [Rectangle]
// - Finish reasons: ([Stadium]), each looping back to the default state
func GenerateMermaid(def *registry.Definition, edges []Edge, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, s := range def.States {
		opener, closer := "[", "]"
		if s == def.Default {
			opener, closer = "((", "))"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", sanitizeMermaidID(string(s)), opener, s, closer)
	}
	for _, reason := range def.FinishReasons() {
		fmt.Fprintf(&sb, "    %s([\"finish: %s\"])\n", finishID(reason), reason)
		fmt.Fprintf(&sb, "    %s -.-> %s\n", finishID(reason), sanitizeMermaidID(string(def.Default)))
	}

	for _, e := range edges {
		to := sanitizeMermaidID(string(e.To))
		if e.Reason != "" {
			to = finishID(e.Reason)
		}
		arrow := "-->"
		if e.Count > 1 {
			arrow = fmt.Sprintf("-- \"%d\" -->", e.Count)
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", sanitizeMermaidID(string(e.From)), arrow, to)
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		for _, s := range overlay.Visited {
			fmt.Fprintf(&sb, "    class %s visited;\n", sanitizeMermaidID(string(s)))
		}
		if overlay.Current != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(string(overlay.Current)))
		}
	}
	return sb.String()
}

func finishID(reason domain.FinishReason) string {
	return "finish_" + sanitizeMermaidID(string(reason))
}

func sanitizeMermaidID(id string) string {
	return strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_").Replace(id)
}
