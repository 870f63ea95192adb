package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/slack-go/slack"
)

// SlackConfig configures the Slack notifier channel.
type SlackConfig struct {
	Enabled bool   `json:"enabled" envconfig:"ENABLED"`
	Token   string `json:"token" envconfig:"TOKEN"`
	// Channel is the default delivery target when a notification's target
	// is not itself a Slack channel or user ID.
	Channel string `json:"channel" envconfig:"CHANNEL"`
}

// SlackNotifier posts notifications as Slack messages.
type SlackNotifier struct {
	client  *slack.Client
	channel string
}

func NewSlackNotifier(cfg SlackConfig) *SlackNotifier {
	return &SlackNotifier{
		client:  slack.New(cfg.Token),
		channel: cfg.Channel,
	}
}

func (n *SlackNotifier) Name() string { return "slack" }

// Notify posts the message. Targets that look like Slack IDs (channel "C…",
// DM "D…", user "U…") are used directly; anything else goes to the
// configured default channel with the target prefixed.
func (n *SlackNotifier) Notify(ctx context.Context, targetID, message string) error {
	channel := n.channel
	if isSlackID(targetID) {
		channel = targetID
	} else if targetID != "" {
		message = fmt.Sprintf("[%s] %s", targetID, message)
	}
	if channel == "" {
		return fmt.Errorf("slack: no delivery channel for target %q", targetID)
	}
	_, _, err := n.client.PostMessageContext(ctx, channel, slack.MsgOptionText(message, false))
	if err != nil {
		return fmt.Errorf("slack post: %w", err)
	}
	return nil
}

func isSlackID(id string) bool {
	if len(id) < 2 {
		return false
	}
	switch id[0] {
	case 'C', 'D', 'U', 'G':
		return strings.ToUpper(id) == id
	}
	return false
}
