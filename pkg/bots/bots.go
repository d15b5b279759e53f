// Package bots is the catalog of concrete bots shipped with tagbot.
package bots

import (
	"fmt"
	"sort"

	"github.com/aretw0/tagbot/pkg/bots/officehours"
	"github.com/aretw0/tagbot/pkg/bots/oxycs"
	"github.com/aretw0/tagbot/pkg/ports"
	"github.com/aretw0/tagbot/pkg/registry"
	"github.com/aretw0/tagbot/pkg/tags"
)

// Deps are the collaborators a bot may need.
type Deps struct {
	// Words is the flagged-word detector.
	Words ports.WordDetector

	// Tags overrides the bot's phrase table when set.
	Tags *tags.Table
}

// Constructor builds a bot definition.
type Constructor func(deps Deps) (*registry.Definition, error)

var catalog = map[string]Constructor{
	"oxycs": func(deps Deps) (*registry.Definition, error) {
		if deps.Words == nil {
			return nil, fmt.Errorf("bot oxycs requires a word detector")
		}
		return oxycs.Definition(deps.Words, deps.Tags), nil
	},
	"officehours": func(deps Deps) (*registry.Definition, error) {
		def := officehours.Definition()
		if deps.Tags != nil {
			def.Tags = deps.Tags
		}
		return def, nil
	},
}

// Names lists the available bots.
func Names() []string {
	out := make([]string, 0, len(catalog))
	for name := range catalog {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Build returns the definition of the named bot.
func Build(name string, deps Deps) (*registry.Definition, error) {
	ctor, ok := catalog[name]
	if !ok {
		return nil, fmt.Errorf("unknown bot %q (available: %v)", name, Names())
	}
	return ctor(deps)
}
