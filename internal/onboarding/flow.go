// Package onboarding walks a member through language, rules, roles and a cosmetic role.
package onboarding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/keshon/whisperling/internal/mood"
	"github.com/keshon/whisperling/internal/storage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Step is a stage of the flow.
type Step int

const (
	LanguageSelect Step = iota
	RulesAccept
	RoleSelect
	CosmeticSelect
	FinalWelcome
)

func (s Step) String() string {
	switch s {
	case LanguageSelect:
		return "language"
	case RulesAccept:
		return "rules"
	case RoleSelect:
		return "role"
	case CosmeticSelect:
		return "cosmetic"
	case FinalWelcome:
		return "welcome"
	}
	return fmt.Sprintf("step(%d)", int(s))
}

const (
	optCancel = "cancel"
	optAccept = "accept"
	optSkip   = "skip"

	langPrefix = "lang:"
	rolePrefix = "role:"
)

// NoLanguagesNotice is posted when a guild has no languages configured.
const NoLanguagesNotice = "🌫️ No languages are configured for this server yet. An admin can add some with `/manage-languages`."

const (
	defaultWelcome   = "Welcome, {user}!"
	roleErrorMessage = "⚠️ Something went wrong while assigning that role. Please ask a moderator for help."
)

// Settings is the guild configuration the flow reads and writes.
type Settings interface {
	Languages(guildID string) ([]storage.Language, error)
	Language(guildID, code string) (storage.Language, bool)
	Rules(guildID, code string) (string, bool)
	RoleOptions(guildID string, kind storage.RoleKind) ([]storage.RoleOption, error)
	SetUserLanguage(guildID, userID, code string) error
}

// Persona renders text in the guild's current form.
type Persona interface {
	Form(guildID string) mood.Form
	TextFor(ctx context.Context, guildID, userID string, event mood.Event, vars map[string]string, fallback string) string
	MaybePlayful(ctx context.Context, guildID string) bool
}

// Timeouts bound each step; Pacing is the pause between steps.
type Timeouts struct {
	Language time.Duration
	Rules    time.Duration
	Role     time.Duration
	Cosmetic time.Duration
	Pacing   time.Duration
}

func DefaultTimeouts() Timeouts {
	return Timeouts{
		Language: 60 * time.Second,
		Rules:    90 * time.Second,
		Role:     60 * time.Second,
		Cosmetic: 60 * time.Second,
		Pacing:   2 * time.Second,
	}
}

// Member is the onboarding target.
type Member struct {
	GuildID string
	UserID  string
	Mention string
}

// Outcome summarizes a finished flow.
type Outcome struct {
	Reached   Step // last step entered
	Completed bool
	TimedOut  bool
	Cancelled bool
	Language  string
	Role      string
	Cosmetic  string
}

// Flow runs onboarding. It is stateless; each Run owns its own flowState.
type Flow struct {
	platform Platform
	settings Settings
	persona  Persona
	timeouts Timeouts
	sleep    func(ctx context.Context, d time.Duration) error
	log      zerolog.Logger
}

func NewFlow(platform Platform, settings Settings, persona Persona, timeouts Timeouts) *Flow {
	return &Flow{
		platform: platform,
		settings: settings,
		persona:  persona,
		timeouts: timeouts,
		sleep:    sleepCtx,
		log:      log.With().Str("component", "onboarding").Logger(),
	}
}

// flowState carries one member's progress through the steps.
type flowState struct {
	member    Member
	channelID string
	vars      map[string]string
	outcome   Outcome
}

func (f *Flow) newState(m Member, channelID string) *flowState {
	mention := m.Mention
	if mention == "" {
		mention = "<@" + m.UserID + ">"
	}
	return &flowState{
		member:    m,
		channelID: channelID,
		vars:      map[string]string{"user": mention},
	}
}

// Run executes the full flow in channelID.
func (f *Flow) Run(ctx context.Context, m Member, channelID string) (Outcome, error) {
	st := f.newState(m, channelID)
	logger := f.log.With().Str("guild", m.GuildID).Str("user", m.UserID).Logger()

	if f.persona.MaybePlayful(ctx, m.GuildID) {
		f.send(ctx, st, f.render(ctx, st, "", mood.EventPlayfulActivation, nil))
	}

	cont, err := f.chooseLanguage(ctx, st)
	if err != nil || !cont {
		return st.outcome, err
	}

	steps := []func(context.Context, *flowState) (bool, error){
		f.acceptRules,
		f.selectRole,
		f.selectCosmetic,
	}
	for _, step := range steps {
		if err := f.sleep(ctx, f.timeouts.Pacing); err != nil {
			return st.outcome, err
		}
		cont, err := step(ctx, st)
		if err != nil || !cont {
			logger.Info().Stringer("step", st.outcome.Reached).Msg("Onboarding stopped")
			return st.outcome, err
		}
	}

	if err := f.sleep(ctx, f.timeouts.Pacing); err != nil {
		return st.outcome, err
	}
	f.welcome(ctx, st)
	logger.Info().Str("lang", st.outcome.Language).Msg("Onboarding completed")
	return st.outcome, nil
}

// ChooseLanguage runs only the language step.
func (f *Flow) ChooseLanguage(ctx context.Context, m Member, channelID string) (Outcome, error) {
	st := f.newState(m, channelID)
	cont, err := f.chooseLanguage(ctx, st)
	st.outcome.Completed = cont && err == nil
	return st.outcome, err
}

func (f *Flow) chooseLanguage(ctx context.Context, st *flowState) (bool, error) {
	st.outcome.Reached = LanguageSelect
	guildID := st.member.GuildID

	langs, err := f.settings.Languages(guildID)
	if err != nil {
		return false, fmt.Errorf("load languages: %w", err)
	}
	if len(langs) == 0 {
		f.send(ctx, st, f.notice(st, NoLanguagesNotice))
		return false, nil
	}

	opts := make([]Option, 0, len(langs)+1)
	for _, l := range langs {
		opts = append(opts, Option{ID: langPrefix + l.Code, Label: l.Name, Emoji: l.Emoji, Style: StylePrimary})
	}
	opts = append(opts, Option{ID: optCancel, Label: "Cancel", Emoji: "✖️", Style: StyleDanger})

	ans, ok, err := f.ask(ctx, st, Prompt{
		Message: f.render(ctx, st, mood.EventLanguageIntroTitle, mood.EventLanguageIntroDesc, nil),
		Options: opts,
		Timeout: f.timeouts.Language,
	}, mood.EventTimeoutLanguage)
	if err != nil || !ok {
		return false, err
	}

	choice := ans.Choice()
	if choice == optCancel || !strings.HasPrefix(choice, langPrefix) {
		st.outcome.Cancelled = true
		return false, nil
	}
	code := strings.TrimPrefix(choice, langPrefix)
	if err := f.settings.SetUserLanguage(guildID, st.member.UserID, code); err != nil {
		f.log.Error().Err(err).Str("guild", guildID).Str("user", st.member.UserID).Msg("Failed to save language")
	}
	st.outcome.Language = code

	f.reply(ctx, ans, f.render(ctx, st, mood.EventLanguageConfirmTitle, mood.EventLanguageConfirmDesc, nil))
	return true, nil
}

func (f *Flow) acceptRules(ctx context.Context, st *flowState) (bool, error) {
	st.outcome.Reached = RulesAccept

	rules, ok := f.settings.Rules(st.member.GuildID, st.outcome.Language)
	if !ok {
		f.send(ctx, st, f.render(ctx, st, "", mood.EventRulesNone, nil))
		return true, nil
	}

	msg := f.render(ctx, st, "", "", nil)
	msg.Title = "📜 Rules"
	msg.Description = rules
	ans, ok, err := f.ask(ctx, st, Prompt{
		Message: msg,
		Options: []Option{{ID: optAccept, Label: "Accept", Emoji: "✅", Style: StyleSuccess}},
		Timeout: f.timeouts.Rules,
	}, mood.EventTimeoutRules)
	if err != nil || !ok {
		return false, err
	}

	f.reply(ctx, ans, f.render(ctx, st, mood.EventRulesConfirmTitle, mood.EventRulesConfirmDesc, nil))
	return true, nil
}

func (f *Flow) selectRole(ctx context.Context, st *flowState) (bool, error) {
	st.outcome.Reached = RoleSelect
	role, err := f.pickRole(ctx, st, storage.PrimaryRole)
	st.outcome.Role = role
	return err == nil, err
}

func (f *Flow) selectCosmetic(ctx context.Context, st *flowState) (bool, error) {
	st.outcome.Reached = CosmeticSelect
	role, err := f.pickRole(ctx, st, storage.CosmeticRole)
	st.outcome.Cosmetic = role
	return err == nil, err
}

// pickRole offers one role set. A timeout is reported and the flow continues.
func (f *Flow) pickRole(ctx context.Context, st *flowState, kind storage.RoleKind) (string, error) {
	roles, err := f.settings.RoleOptions(st.member.GuildID, kind)
	if err != nil {
		return "", fmt.Errorf("load %s roles: %w", kind, err)
	}
	if len(roles) == 0 {
		return "", nil
	}

	introTitle, introDesc, granted, timeout := mood.EventRoleIntroTitle, mood.EventRoleIntroDesc, mood.EventRoleGranted, mood.EventTimeoutRole
	d := f.timeouts.Role
	if kind == storage.CosmeticRole {
		introTitle, introDesc, granted, timeout = mood.EventCosmeticIntroTitle, mood.EventCosmeticIntroDesc, mood.EventCosmeticGranted, mood.EventTimeoutCosmetic
		d = f.timeouts.Cosmetic
	}

	labels := make(map[string]string, len(roles))
	opts := make([]Option, 0, len(roles)+1)
	for _, r := range roles {
		labels[r.RoleID] = r.Label
		opts = append(opts, Option{ID: rolePrefix + r.RoleID, Label: r.Label, Emoji: r.Emoji, Style: StylePrimary})
	}
	if kind == storage.CosmeticRole {
		opts = append(opts, Option{ID: optSkip, Label: "Skip", Emoji: "⏭️", Style: StyleSecondary})
	}

	ans, ok, err := f.ask(ctx, st, Prompt{
		Message: f.render(ctx, st, introTitle, introDesc, nil),
		Options: opts,
		Timeout: d,
	}, timeout)
	if err != nil || !ok {
		return "", err
	}

	if ans.Choice() == optSkip {
		f.reply(ctx, ans, f.render(ctx, st, "", mood.EventCosmeticSkipped, nil))
		return "", nil
	}
	roleID := strings.TrimPrefix(ans.Choice(), rolePrefix)
	if _, known := labels[roleID]; !known {
		return "", nil
	}

	if err := f.platform.AddRole(ctx, st.member.GuildID, st.member.UserID, roleID); err != nil {
		f.log.Warn().Err(err).Str("guild", st.member.GuildID).Str("role", roleID).Msg("Failed to assign role")
		f.reply(ctx, ans, f.notice(st, roleErrorMessage))
		return "", nil
	}
	f.reply(ctx, ans, f.render(ctx, st, "", granted, map[string]string{"role": labels[roleID]}))
	return roleID, nil
}

func (f *Flow) welcome(ctx context.Context, st *flowState) {
	st.outcome.Reached = FinalWelcome
	form := f.persona.Form(st.member.GuildID)

	var desc string
	if l, ok := f.settings.Language(st.member.GuildID, st.outcome.Language); ok && l.Welcome != "" {
		desc = mood.Render(l.Welcome, form, st.vars)
	} else {
		desc = f.persona.TextFor(ctx, st.member.GuildID, st.member.UserID, mood.EventWelcomeDesc, st.vars, defaultWelcome)
	}

	msg := f.render(ctx, st, mood.EventWelcomeTitle, "", nil)
	msg.Description = desc
	f.send(ctx, st, msg)
	st.outcome.Completed = true
}

// ask presents p and handles the timeout notice. ok is false on timeout.
func (f *Flow) ask(ctx context.Context, st *flowState, p Prompt, timeoutEvent mood.Event) (Answer, bool, error) {
	p.GuildID = st.member.GuildID
	p.ChannelID = st.channelID
	p.UserID = st.member.UserID

	ans, err := f.platform.Prompt(ctx, p)
	switch {
	case errors.Is(err, ErrPromptTimeout):
		st.outcome.TimedOut = true
		f.send(ctx, st, f.render(ctx, st, "", timeoutEvent, nil))
		return nil, false, nil
	case err != nil:
		return nil, false, fmt.Errorf("%s prompt: %w", st.outcome.Reached, err)
	}
	return ans, true, nil
}

// render builds a message from the guild's current form. Empty events leave the field blank.
func (f *Flow) render(ctx context.Context, st *flowState, title, desc mood.Event, extra map[string]string) Message {
	form := f.persona.Form(st.member.GuildID)
	vars := st.vars
	if len(extra) > 0 {
		vars = make(map[string]string, len(st.vars)+len(extra))
		for k, v := range st.vars {
			vars[k] = v
		}
		for k, v := range extra {
			vars[k] = v
		}
	}

	msg := Message{Color: form.Color, Footer: form.Footer, Thumbnail: form.Avatar}
	if title != "" {
		msg.Title = f.persona.TextFor(ctx, st.member.GuildID, st.member.UserID, title, vars, "")
	}
	if desc != "" {
		msg.Description = f.persona.TextFor(ctx, st.member.GuildID, st.member.UserID, desc, vars, "")
	}
	return msg
}

func (f *Flow) notice(st *flowState, text string) Message {
	form := f.persona.Form(st.member.GuildID)
	return Message{Description: text, Color: form.Color, Footer: form.Footer}
}

func (f *Flow) send(ctx context.Context, st *flowState, m Message) {
	if err := f.platform.Send(ctx, st.channelID, m); err != nil {
		f.log.Warn().Err(err).Str("guild", st.member.GuildID).Str("channel", st.channelID).Msg("Failed to send onboarding message")
	}
}

func (f *Flow) reply(ctx context.Context, ans Answer, m Message) {
	if err := ans.Reply(ctx, m); err != nil {
		f.log.Warn().Err(err).Msg("Failed to reply to onboarding answer")
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
