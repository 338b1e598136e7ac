package discord

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"github.com/keshon/whisperling/internal/onboarding"
)

// promptPrefix marks button custom IDs owned by onboarding prompts.
const promptPrefix = "onb"

const defaultPromptTimeout = 60 * time.Second

func promptCustomID(promptID, optionID string) string {
	return promptPrefix + ":" + promptID + ":" + optionID
}

// parsePromptCustomID splits "onb:<prompt>:<option>". Option IDs may contain colons.
func parsePromptCustomID(customID string) (promptID, optionID string, ok bool) {
	rest, found := strings.CutPrefix(customID, promptPrefix+":")
	if !found {
		return "", "", false
	}
	promptID, optionID, ok = strings.Cut(rest, ":")
	return promptID, optionID, ok && promptID != "" && optionID != ""
}

func buttonStyle(s onboarding.Style) discordgo.ButtonStyle {
	switch s {
	case onboarding.StyleSecondary:
		return discordgo.SecondaryButton
	case onboarding.StyleSuccess:
		return discordgo.SuccessButton
	case onboarding.StyleDanger:
		return discordgo.DangerButton
	default:
		return discordgo.PrimaryButton
	}
}

// buttonRows lays options out five per row, up to Discord's five rows.
func buttonRows(promptID string, opts []onboarding.Option) []discordgo.MessageComponent {
	var rows []discordgo.MessageComponent
	var row []discordgo.MessageComponent
	for _, o := range opts {
		b := discordgo.Button{
			Label:    o.Label,
			Style:    buttonStyle(o.Style),
			CustomID: promptCustomID(promptID, o.ID),
		}
		if o.Emoji != "" {
			b.Emoji = &discordgo.ComponentEmoji{Name: o.Emoji}
		}
		row = append(row, b)
		if len(row) == 5 {
			rows = append(rows, discordgo.ActionsRow{Components: row})
			row = nil
		}
		if len(rows) == 5 {
			return rows
		}
	}
	if len(row) > 0 {
		rows = append(rows, discordgo.ActionsRow{Components: row})
	}
	return rows
}

func toEmbed(m onboarding.Message) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       m.Title,
		Description: m.Description,
		Color:       m.Color,
	}
	if m.Footer != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: m.Footer}
	}
	if m.Thumbnail != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: m.Thumbnail}
	}
	return embed
}

// answer is a button press on a pending prompt.
type answer struct {
	session *discordgo.Session
	event   *discordgo.InteractionCreate
	choice  string
}

func (a *answer) Choice() string { return a.choice }

// Reply sends an ephemeral followup; the press itself was acknowledged on arrival.
func (a *answer) Reply(_ context.Context, m onboarding.Message) error {
	_, err := a.session.FollowupMessageCreate(a.event.Interaction, true, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{toEmbed(m)},
		Flags:  discordgo.MessageFlagsEphemeral,
	})
	return err
}

type resolution int

const (
	resolved resolution = iota
	notOwner
	unknownPrompt
)

type pendingPrompt struct {
	userID  string
	answers chan onboarding.Answer
}

// pendingPrompts routes button presses to the goroutine waiting on that prompt.
type pendingPrompts struct {
	mu      sync.Mutex
	prompts map[string]*pendingPrompt
}

func newPendingPrompts() *pendingPrompts {
	return &pendingPrompts{prompts: make(map[string]*pendingPrompt)}
}

func (p *pendingPrompts) add(promptID, userID string) <-chan onboarding.Answer {
	ch := make(chan onboarding.Answer, 1)
	p.mu.Lock()
	p.prompts[promptID] = &pendingPrompt{userID: userID, answers: ch}
	p.mu.Unlock()
	return ch
}

func (p *pendingPrompts) remove(promptID string) {
	p.mu.Lock()
	delete(p.prompts, promptID)
	p.mu.Unlock()
}

// owner reports who may answer promptID.
func (p *pendingPrompts) owner(promptID string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pp, ok := p.prompts[promptID]
	if !ok {
		return "", false
	}
	return pp.userID, true
}

// resolve hands ans to the waiting prompt. Only the first press by the owner counts.
func (p *pendingPrompts) resolve(promptID, userID string, ans onboarding.Answer) resolution {
	p.mu.Lock()
	defer p.mu.Unlock()
	pp, ok := p.prompts[promptID]
	if !ok {
		return unknownPrompt
	}
	if pp.userID != userID {
		return notOwner
	}
	delete(p.prompts, promptID)
	pp.answers <- ans
	return resolved
}

// Prompt posts the prompt and waits for its member to press a button.
func (b *Bot) Prompt(ctx context.Context, p onboarding.Prompt) (onboarding.Answer, error) {
	promptID := uuid.NewString()
	answers := b.pending.add(promptID, p.UserID)
	defer b.pending.remove(promptID)

	msg, err := b.dg.ChannelMessageSendComplex(p.ChannelID, &discordgo.MessageSend{
		Content:    "<@" + p.UserID + ">",
		Embeds:     []*discordgo.MessageEmbed{toEmbed(p.Message)},
		Components: buttonRows(promptID, p.Options),
		AllowedMentions: &discordgo.MessageAllowedMentions{
			Users: []string{p.UserID},
		},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	defer b.clearComponents(msg)

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = defaultPromptTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case ans := <-answers:
		return ans, nil
	case <-timer.C:
		return nil, onboarding.ErrPromptTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// clearComponents removes the buttons so a finished prompt can't be pressed again.
func (b *Bot) clearComponents(msg *discordgo.Message) {
	empty := []discordgo.MessageComponent{}
	_, err := b.dg.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID:         msg.ID,
		Channel:    msg.ChannelID,
		Components: &empty,
	})
	if err != nil {
		b.log.Debug().Err(err).Str("channel", msg.ChannelID).Msg("Failed to clear prompt buttons")
	}
}

// handlePromptPress acknowledges a press and hands it to the waiting prompt.
// The press is acknowledged before delivery so the flow can reply with followups at once.
func (b *Bot) handlePromptPress(s *discordgo.Session, i *discordgo.InteractionCreate) {
	promptID, choice, ok := parsePromptCustomID(i.MessageComponentData().CustomID)
	if !ok {
		return
	}
	userID := interactionUserID(i)

	owner, open := b.pending.owner(promptID)
	switch {
	case !open:
		b.respondEphemeral(s, i, "⏳ This prompt has already closed.")
		return
	case owner != userID:
		b.respondEphemeral(s, i, "🌙 This prompt belongs to someone else.")
		return
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
	if err != nil {
		b.log.Warn().Err(err).Str("user", userID).Msg("Failed to acknowledge prompt press")
	}
	if b.pending.resolve(promptID, userID, &answer{session: s, event: i, choice: choice}) != resolved {
		b.log.Debug().Str("prompt", promptID).Msg("Prompt closed before the press was delivered")
	}
}

func (b *Bot) respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, text string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: text,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		b.log.Debug().Err(err).Msg("Failed to respond to interaction")
	}
}

func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

// Send posts an embed to a channel.
func (b *Bot) Send(ctx context.Context, channelID string, m onboarding.Message) error {
	_, err := b.dg.ChannelMessageSendEmbed(channelID, toEmbed(m), discordgo.WithContext(ctx))
	return err
}

// AddRole grants a role.
func (b *Bot) AddRole(ctx context.Context, guildID, userID, roleID string) error {
	if roleID == "" {
		return errors.New("empty role ID")
	}
	return b.dg.GuildMemberRoleAdd(guildID, userID, roleID, discordgo.WithContext(ctx))
}
