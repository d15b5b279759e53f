// Package oxycs is an emotional-support bot: it notices emotion words, asks
// follow-up questions, tells an anecdote and checks whether the user feels better.
package oxycs

import (
	"unicode/utf8"

	"github.com/aretw0/tagbot/pkg/domain"
	"github.com/aretw0/tagbot/pkg/ports"
	"github.com/aretw0/tagbot/pkg/registry"
	"github.com/aretw0/tagbot/pkg/tags"
)

// Name is the bot name used by the CLI and as speaker label.
const Name = "OxyCSBot"

const (
	StateWaiting            domain.StateID = "waiting"
	StateHi                 domain.StateID = "hi"
	StateTellMeMore         domain.StateID = "tell_me_more"
	StateEmotionDetection   domain.StateID = "emotion_detection"
	StateAnecdote           domain.StateID = "anecdote"
	StateSuggestion         domain.StateID = "suggestion"
	StateFeelBetterQuestion domain.StateID = "feel_better_question"
	StateFeelsBetter        domain.StateID = "feels_better"
)

const (
	FinishConfused domain.FinishReason = "confused"
	FinishSuccess  domain.FinishReason = "success"
	FinishFail     domain.FinishReason = "fail"
	FinishThanks   domain.FinishReason = "thanks"
)

const (
	TagSuccess domain.Tag = "success"
	TagHi      domain.Tag = "hi"
	TagBye     domain.Tag = "bye"
	TagThanks  domain.Tag = "thanks"
	TagIDK     domain.Tag = "idk"
	TagYay     domain.Tag = "yay"
	TagNo      domain.Tag = "no"
)

// Canned replies.
var (
	EmotionResponses = []string{
		"Oh no, I'm sorry about that:/ Why do you feel that way?",
		"I'm really sorry to hear that. What are you going to do?",
		"Sounds awful. Let it out, tell me more",
	}
	Greetings           = []string{"Hello.", "What's up?", "Yo."}
	GreetingQuestions   = []string{"How you doing?", "How are you?", "Are you alright?", "How's it going?"}
	TellMeMoreResponses = []string{"What happened?", "Can you tell me more about it?", "Why?"}
	Suggestions         = []string{"Um. I have some idea if you need more help.", "Why not talk to her first? "}
	MoreSuggestions     = []string{"It's not as hard as you think.", "Tell her how you feel. It's better to communicate than thinking by yourself."}

	Anecdote = "I'm sorry:/ I remember one time when my girlfriend was mad at me, I bought her chocolate. " +
		"I also told her she means so much to me, and that I know I messed up. I gave her time and space, " +
		"and waited until she came back around. We're still together to this day. I just rambled..." +
		"but does this help? "
	FeelBetterQuestion = "Do you feel better now?"
	FeelsBetter        = "Good to hear! Need anything else?"

	ConfusedMessage = "Sorry, what did you say?"
	SuccessMessage  = "Awesome:) Glad we could talk this out! I gotta go to some stuff now, later!"
	FailMessage     = "Sorry man, I don't know what to say."
	ThanksMessage   = "You're always welcome! But I gotta go now, see ya."
)

// shortGreetingLimit is the message length, in characters, under which a
// greeting is answered with small talk.
const shortGreetingLimit = 20

// Tags is the phrase table of the bot.
var Tags = tags.MustNew(
	tags.Entry{Phrase: "okay", Tags: []domain.Tag{TagSuccess}},
	tags.Entry{Phrase: "hi", Tags: []domain.Tag{TagHi}},
	tags.Entry{Phrase: "hello", Tags: []domain.Tag{TagHi}},
	tags.Entry{Phrase: "what's up", Tags: []domain.Tag{TagHi}},
	tags.Entry{Phrase: "bye", Tags: []domain.Tag{TagBye}},
	tags.Entry{Phrase: "see ya", Tags: []domain.Tag{TagBye}},
	tags.Entry{Phrase: "see you", Tags: []domain.Tag{TagBye}},
	tags.Entry{Phrase: "good bye", Tags: []domain.Tag{TagBye}},
	tags.Entry{Phrase: "alright then", Tags: []domain.Tag{TagBye}},
	tags.Entry{Phrase: "never thought about that", Tags: []domain.Tag{TagBye}},
	tags.Entry{Phrase: "thanks", Tags: []domain.Tag{TagThanks}},
	tags.Entry{Phrase: "thank you", Tags: []domain.Tag{TagThanks}},
	tags.Entry{Phrase: "good idea", Tags: []domain.Tag{TagThanks}},
	tags.Entry{Phrase: "I don't know", Tags: []domain.Tag{TagIDK}},
	tags.Entry{Phrase: "I'm confused", Tags: []domain.Tag{TagIDK}},
	tags.Entry{Phrase: "What should I do", Tags: []domain.Tag{TagIDK}},
	tags.Entry{Phrase: "idk", Tags: []domain.Tag{TagIDK}},
	tags.Entry{Phrase: "yes", Tags: []domain.Tag{TagYay}},
	tags.Entry{Phrase: "yep", Tags: []domain.Tag{TagYay}},
	tags.Entry{Phrase: "of course", Tags: []domain.Tag{TagYay}},
	tags.Entry{Phrase: "yeah", Tags: []domain.Tag{TagYay}},
	tags.Entry{Phrase: "not really", Tags: []domain.Tag{TagNo}},
	tags.Entry{Phrase: "no", Tags: []domain.Tag{TagNo}},
	tags.Entry{Phrase: "nope", Tags: []domain.Tag{TagNo}},
)

type bot struct {
	words ports.WordDetector
}

// Definition builds the bot definition. words is the flagged-word detector;
// table overrides the phrase table when non-nil.
func Definition(words ports.WordDetector, table ...*tags.Table) *registry.Definition {
	b := &bot{words: words}
	t := Tags
	if len(table) > 0 && table[0] != nil {
		t = table[0]
	}

	return &registry.Definition{
		Name:    Name,
		Default: StateWaiting,
		States: []domain.StateID{
			StateWaiting,
			StateHi,
			StateTellMeMore,
			StateEmotionDetection,
			StateAnecdote,
			StateSuggestion,
			StateFeelBetterQuestion,
			StateFeelsBetter,
		},
		Enter: map[domain.StateID]domain.EnterFunc{
			StateHi:                 domain.Join(" ", Greetings, GreetingQuestions),
			StateTellMeMore:         domain.OneOf(TellMeMoreResponses...),
			StateEmotionDetection:   domain.OneOf(EmotionResponses...),
			StateAnecdote:           domain.Say(Anecdote),
			StateSuggestion:         domain.Join("", Suggestions, MoreSuggestions),
			StateFeelBetterQuestion: domain.Say(FeelBetterQuestion),
			StateFeelsBetter:        domain.Say(FeelsBetter),
		},
		Respond: map[domain.StateID]domain.RespondFunc{
			StateWaiting:            b.respondFromWaiting,
			StateHi:                 b.respondFromHi,
			StateTellMeMore:         b.respondFromTellMeMore,
			StateEmotionDetection:   b.respondFromEmotionDetection,
			StateAnecdote:           b.respondFromAnecdote,
			StateSuggestion:         b.respondFromSuggestion,
			StateFeelBetterQuestion: b.respondFromFeelBetterQuestion,
			StateFeelsBetter:        b.respondFromFeelsBetter,
		},
		Finish: map[domain.FinishReason]domain.FinishFunc{
			FinishConfused: domain.Reply(ConfusedMessage),
			FinishSuccess:  domain.Reply(SuccessMessage),
			FinishFail:     domain.Reply(FailMessage),
			FinishThanks:   domain.Reply(ThanksMessage),
		},
		Tags: t,
	}
}

func (b *bot) respondFromWaiting(t domain.Transitioner, message string, tags domain.TagCount) (string, error) {
	switch {
	case b.words.Contains(message):
		return t.EnterState(StateEmotionDetection)
	case tags.Has(TagHi):
		if utf8.RuneCountInString(message) < shortGreetingLimit {
			return t.EnterState(StateHi)
		}
		return t.Finish(FinishConfused)
	case tags.Has(TagBye):
		return t.Finish(FinishSuccess)
	}
	return t.Finish(FinishConfused)
}

func (b *bot) respondFromHi(t domain.Transitioner, _ string, _ domain.TagCount) (string, error) {
	return t.EnterState(StateTellMeMore)
}

func (b *bot) respondFromTellMeMore(t domain.Transitioner, _ string, _ domain.TagCount) (string, error) {
	return t.EnterState(StateEmotionDetection)
}

func (b *bot) respondFromEmotionDetection(t domain.Transitioner, message string, tags domain.TagCount) (string, error) {
	switch {
	case tags.Has(TagIDK):
		return t.EnterState(StateAnecdote)
	case b.words.Contains(message):
		return t.EnterState(StateEmotionDetection)
	}
	return t.EnterState(StateTellMeMore)
}

func (b *bot) respondFromAnecdote(t domain.Transitioner, _ string, tags domain.TagCount) (string, error) {
	return b.checkFeeling(t, tags)
}

func (b *bot) respondFromSuggestion(t domain.Transitioner, message string, tags domain.TagCount) (string, error) {
	switch {
	case b.words.Contains(message):
		return t.EnterState(StateEmotionDetection)
	case tags.Has(TagThanks):
		return t.Finish(FinishThanks)
	}
	return t.EnterState(StateFeelBetterQuestion)
}

func (b *bot) respondFromFeelBetterQuestion(t domain.Transitioner, _ string, tags domain.TagCount) (string, error) {
	return b.checkFeeling(t, tags)
}

func (b *bot) respondFromFeelsBetter(t domain.Transitioner, _ string, tags domain.TagCount) (string, error) {
	switch {
	case tags.Has(TagNo):
		return t.Finish(FinishSuccess)
	case tags.Has(TagYay):
		return t.EnterState(StateTellMeMore)
	case tags.Has(TagThanks):
		return t.Finish(FinishThanks)
	}
	// Returning to the idle state must go through a finish.
	return t.Finish(FinishFail)
}

// checkFeeling handles the yes/no/thanks answer to "does this help?".
func (b *bot) checkFeeling(t domain.Transitioner, tags domain.TagCount) (string, error) {
	switch {
	case tags.Has(TagYay):
		return t.EnterState(StateFeelsBetter)
	case tags.Has(TagNo):
		return t.EnterState(StateSuggestion)
	case tags.Has(TagThanks):
		return t.Finish(FinishThanks)
	}
	return t.EnterState(StateTellMeMore)
}
