package slack

import (
	"context"
	"fmt"

	slackapi "github.com/slack-go/slack"
)

// Poster posts messages to a channel. *slackapi.Client implements it.
type Poster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// Authenticator resolves the identity behind a token. *slackapi.Client implements it.
type Authenticator interface {
	AuthTestContext(ctx context.Context) (*slackapi.AuthTestResponse, error)
}

// NewClient creates a Web API client authenticated with a bot token.
func NewClient(token string, opts ...slackapi.Option) *slackapi.Client {
	return slackapi.New(token, opts...)
}

// BotUserID returns the user ID of the bot owning the token.
func BotUserID(ctx context.Context, auth Authenticator) (string, error) {
	resp, err := auth.AuthTestContext(ctx)
	if err != nil {
		return "", fmt.Errorf("slack auth.test: %w", err)
	}
	return resp.UserID, nil
}

// PostText posts text to channel.
func PostText(ctx context.Context, poster Poster, channel, text string) error {
	if _, _, err := poster.PostMessageContext(ctx, channel, slackapi.MsgOptionText(text, false)); err != nil {
		return fmt.Errorf("slack chat.postMessage: %w", err)
	}
	return nil
}
