package slack

import (
	"strings"

	"github.com/slack-go/slack/slackevents"
)

// Mention returns how Slack renders an @-mention of userID.
func Mention(userID string) string {
	return "<@" + userID + ">"
}

// AtMessage returns the message of an @-message directed at botID.
// Events that are not plain messages (any subtype), text without a space
// and messages whose first token is not the bot mention are rejected.
func AtMessage(ev *slackevents.MessageEvent, botID string) (string, bool) {
	if ev == nil || ev.Type != "message" || ev.SubType != "" {
		return "", false
	}
	user, message, ok := strings.Cut(ev.Text, " ")
	if !ok {
		return "", false
	}
	if user != Mention(botID) {
		return "", false
	}
	return strings.TrimSpace(message), true
}
