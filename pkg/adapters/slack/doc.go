// Package slack connects a bot to Slack through the Events API.
//
// Only @-messages in channels are answered. Each channel is one
// conversation, and replies are posted back with chat.postMessage.
package slack
