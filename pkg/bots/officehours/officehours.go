// Package officehours is a bot that directs students to the office hours of
// computer science faculty.
//
// The identified professor is part of the state identifier
// (confirm_<faculty>), so a conversation needs no state besides its current state.
package officehours

import (
	"fmt"
	"strings"

	"github.com/aretw0/tagbot/pkg/domain"
	"github.com/aretw0/tagbot/pkg/registry"
	"github.com/aretw0/tagbot/pkg/tags"
)

// Name is the bot name used by the CLI and as speaker label.
const Name = "OfficeHoursBot"

const (
	StateWaiting             domain.StateID = "waiting"
	StateUnknownFaculty      domain.StateID = "unknown_faculty"
	StateUnrecognizedFaculty domain.StateID = "unrecognized_faculty"
)

const (
	FinishConfused domain.FinishReason = "confused"
	FinishFail     domain.FinishReason = "fail"
	FinishThanks   domain.FinishReason = "thanks"
)

const (
	TagOfficeHours domain.Tag = "office-hours"
	TagThanks      domain.Tag = "thanks"
	TagYes         domain.Tag = "yes"
	TagNo          domain.Tag = "no"
)

// Faculty describes one professor the bot knows about.
type Faculty struct {
	ID      string
	Name    string
	Aliases []string
	Office  string
}

// Tag is the tag carried by the faculty's name and aliases.
func (f Faculty) Tag() domain.Tag {
	return domain.Tag(f.ID)
}

// ConfirmState is the state asking whether the user meant this professor.
func (f Faculty) ConfirmState() domain.StateID {
	return domain.StateID("confirm_" + f.ID)
}

// LocationReason is the finish reason giving this professor's office hours.
func (f Faculty) LocationReason() domain.FinishReason {
	return domain.FinishReason("location_" + f.ID)
}

// DefaultFaculty is the built-in faculty list.
var DefaultFaculty = []Faculty{
	{ID: "celia", Name: "Celia", Aliases: []string{"celia"}, Office: "Tuesdays 2-4pm in Fowler 302"},
	{ID: "hsing-hau", Name: "Hsing-hau", Aliases: []string{"hsing-hau"}, Office: "Mondays 1-3pm in Fowler 307"},
	{ID: "jeff", Name: "Jeff", Aliases: []string{"jeff", "miller"}, Office: "Wednesdays 10am-noon in Fowler 309"},
	{ID: "justin", Name: "Justin", Aliases: []string{"justin", "li"}, Office: "Thursdays 3-5pm in Fowler 311"},
	{ID: "kathryn", Name: "Kathryn", Aliases: []string{"kathryn", "leonard"}, Office: "Fridays 11am-1pm in Fowler 304"},
}

// Messages.
const (
	UnknownFacultyPrompt = "Whose office hours are you looking for?"
	ConfusedMessage      = "Sorry, I'm just a simple bot that can't understand much. You can ask me about office hours though!"
	FailMessage          = "I've tried my best but I still don't understand. Maybe try asking other students?"
	ThanksMessage        = "You're welcome!"
)

// Definition builds the bot for the given faculty list (DefaultFaculty when empty).
func Definition(faculty ...Faculty) *registry.Definition {
	if len(faculty) == 0 {
		faculty = DefaultFaculty
	}
	b := &bot{faculty: faculty}

	entries := []tags.Entry{
		{Phrase: "office hours", Tags: []domain.Tag{TagOfficeHours}},
		{Phrase: "help", Tags: []domain.Tag{TagOfficeHours}},
		{Phrase: "thanks", Tags: []domain.Tag{TagThanks}},
		{Phrase: "thank you", Tags: []domain.Tag{TagThanks}},
		{Phrase: "yes", Tags: []domain.Tag{TagYes}},
		{Phrase: "yep", Tags: []domain.Tag{TagYes}},
		{Phrase: "yeah", Tags: []domain.Tag{TagYes}},
		{Phrase: "no", Tags: []domain.Tag{TagNo}},
		{Phrase: "nope", Tags: []domain.Tag{TagNo}},
	}

	def := &registry.Definition{
		Name:    Name,
		Default: StateWaiting,
		States:  []domain.StateID{StateWaiting, StateUnknownFaculty, StateUnrecognizedFaculty},
		Enter: map[domain.StateID]domain.EnterFunc{
			StateUnknownFaculty:      domain.Say(UnknownFacultyPrompt),
			StateUnrecognizedFaculty: domain.Say(b.unrecognizedPrompt()),
		},
		Respond: map[domain.StateID]domain.RespondFunc{
			StateWaiting:             b.respondFromWaiting,
			StateUnknownFaculty:      b.respondFromUnknownFaculty,
			StateUnrecognizedFaculty: b.respondFromUnrecognizedFaculty,
		},
		Finish: map[domain.FinishReason]domain.FinishFunc{
			FinishConfused: domain.Reply(ConfusedMessage),
			FinishFail:     domain.Reply(FailMessage),
			FinishThanks:   domain.Reply(ThanksMessage),
		},
	}

	for _, f := range faculty {
		for _, alias := range f.Aliases {
			entries = append(entries, tags.Entry{Phrase: alias, Tags: []domain.Tag{f.Tag()}})
		}
		def.States = append(def.States, f.ConfirmState())
		def.Enter[f.ConfirmState()] = domain.Say(fmt.Sprintf("Are you asking about office hours for %s?", f.Name))
		def.Respond[f.ConfirmState()] = b.respondFromConfirm(f)
		def.Finish[f.LocationReason()] = domain.Reply(fmt.Sprintf("%s's office hours are %s.", f.Name, f.Office))
	}

	def.Tags = tags.MustNew(entries...)
	return def
}

type bot struct {
	faculty []Faculty
}

// mentioned returns the first known professor tagged in the message.
func (b *bot) mentioned(counts domain.TagCount) (Faculty, bool) {
	for _, f := range b.faculty {
		if counts.Has(f.Tag()) {
			return f, true
		}
	}
	return Faculty{}, false
}

func (b *bot) unrecognizedPrompt() string {
	names := make([]string, len(b.faculty))
	for i, f := range b.faculty {
		names[i] = f.Name
	}
	list := names[0]
	if len(names) > 1 {
		list = strings.Join(names[:len(names)-1], ", ") + ", or " + names[len(names)-1]
	}
	return fmt.Sprintf("I'm not sure I understand - are you looking for %s?", list)
}

func (b *bot) respondFromWaiting(t domain.Transitioner, _ string, counts domain.TagCount) (string, error) {
	switch {
	case counts.Has(TagOfficeHours):
		if f, ok := b.mentioned(counts); ok {
			return t.EnterState(f.ConfirmState())
		}
		return t.EnterState(StateUnknownFaculty)
	case counts.Has(TagThanks):
		return t.Finish(FinishThanks)
	}
	return t.Finish(FinishConfused)
}

func (b *bot) respondFromUnknownFaculty(t domain.Transitioner, _ string, counts domain.TagCount) (string, error) {
	if f, ok := b.mentioned(counts); ok {
		return t.EnterState(f.ConfirmState())
	}
	return t.EnterState(StateUnrecognizedFaculty)
}

func (b *bot) respondFromUnrecognizedFaculty(t domain.Transitioner, _ string, counts domain.TagCount) (string, error) {
	if f, ok := b.mentioned(counts); ok {
		return t.EnterState(f.ConfirmState())
	}
	return t.Finish(FinishFail)
}

func (b *bot) respondFromConfirm(f Faculty) domain.RespondFunc {
	return func(t domain.Transitioner, _ string, counts domain.TagCount) (string, error) {
		switch {
		case counts.Has(TagYes):
			return t.Finish(f.LocationReason())
		case counts.Has(TagNo):
			return t.EnterState(StateUnknownFaculty)
		}
		return t.Finish(FinishConfused)
	}
}
