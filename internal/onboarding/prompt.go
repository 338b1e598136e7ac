package onboarding

import (
	"context"
	"errors"
	"time"
)

// ErrPromptTimeout is returned by a Prompter when nobody answered in time.
var ErrPromptTimeout = errors.New("prompt timed out")

// Style is a button style hint.
type Style int

const (
	StylePrimary Style = iota
	StyleSecondary
	StyleSuccess
	StyleDanger
)

// Option is one choice on a prompt.
type Option struct {
	ID    string
	Label string
	Emoji string
	Style Style
}

// Message is a rendered embed.
type Message struct {
	Title       string
	Description string
	Color       int
	Footer      string
	Thumbnail   string
}

// Prompt asks one member to pick one option.
type Prompt struct {
	GuildID   string
	ChannelID string
	UserID    string // only this member may answer
	Message   Message
	Options   []Option
	Timeout   time.Duration
}

// Answer is a member's choice on a prompt.
type Answer interface {
	Choice() string
	// Reply responds privately to the member who answered.
	Reply(ctx context.Context, m Message) error
}

// Prompter presents a prompt and waits for the answer or ErrPromptTimeout.
type Prompter interface {
	Prompt(ctx context.Context, p Prompt) (Answer, error)
}

// Platform is everything the flow needs from the chat service.
type Platform interface {
	Prompter
	Send(ctx context.Context, channelID string, m Message) error
	AddRole(ctx context.Context, guildID, userID, roleID string) error
}
