/*
Package tagbot is a tag-based finite-state dialogue engine for building small
conversational agents.

A bot is a declarative registry.Definition: a set of states, a per-state
handler table and a table mapping phrases to tags. Every message is scanned
for tags, then handed to the respond handler of the current state, which ends
by either entering another state (whose enter producer supplies the reply) or
finishing the flow (whose finish handler supplies the reply before the
conversation returns to the default state).

# Usage

	bot, err := tagbot.New(oxycs.Definition(lexicon.Default()))
	if err != nil {
		log.Fatal(err)
	}

	conv := bot.NewConversation()
	reply, err := conv.Respond(ctx, "my girlfriend is mad at me")
	if err != nil {
		// The conversation recovered to the default state; show a diagnostic.
		log.Printf("diagnostic: %v", err)
	}
	fmt.Println(reply)

Each conversation owns its own state; run one Conversation per user or
channel, or let session.Manager do the bookkeeping.
*/
package tagbot
