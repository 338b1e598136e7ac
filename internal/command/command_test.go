package command

import (
	"context"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/whisperling/internal/mood"
	"github.com/keshon/whisperling/pkg/cmd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type baseStub struct{}

func (baseStub) Name() string                   { return "stub" }
func (baseStub) Description() string            { return "stub command" }
func (baseStub) Group() string                  { return "test" }
func (baseStub) Category() string               { return "test" }
func (baseStub) UserPermissions() []int64       { return nil }
func (baseStub) Run(context.Context, any) error { return nil }

type slashStub struct{ baseStub }

func (s slashStub) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: s.Name(), Description: s.Description()}
}

type menuStub struct{ baseStub }

func (menuStub) Name() string { return "Stub" }
func (menuStub) ContextDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: "Stub"}
}

type reactionStub struct{ baseStub }

func (reactionStub) ReactionDefinition() string { return "reaction" }

func TestDefinitionThroughMiddleware(t *testing.T) {
	passthrough := func(next cmd.Command) cmd.Command {
		return cmd.Wrap(next, next.Run)
	}

	slash := cmd.Apply(&DiscordAdapter{Cmd: slashStub{}}, passthrough, passthrough)
	def := Definition(slash)
	require.NotNil(t, def)
	assert.Equal(t, "stub", def.Name)
	assert.Equal(t, discordgo.ChatApplicationCommand, def.Type)
	assert.False(t, IsReaction(slash))

	menu := cmd.Apply(&DiscordAdapter{Cmd: menuStub{}}, passthrough)
	def = Definition(menu)
	require.NotNil(t, def)
	assert.Equal(t, discordgo.MessageApplicationCommand, def.Type)

	reaction := cmd.Apply(&DiscordAdapter{Cmd: reactionStub{}}, passthrough)
	assert.True(t, IsReaction(reaction))
}

func TestAdapterForwardsData(t *testing.T) {
	var got any
	a := &DiscordAdapter{Cmd: runRecorder{&got}}
	data := &SlashInteractionContext{}
	require.NoError(t, a.Run(context.Background(), &cmd.Invocation{Data: data}))
	assert.Same(t, data, got)
}

type runRecorder struct{ got *any }

func (runRecorder) Name() string             { return "rec" }
func (runRecorder) Description() string      { return "" }
func (runRecorder) Group() string            { return "" }
func (runRecorder) Category() string         { return "" }
func (runRecorder) UserPermissions() []int64 { return nil }
func (r runRecorder) Run(_ context.Context, data any) error {
	*r.got = data
	return nil
}

func TestInteractionUser(t *testing.T) {
	member := &discordgo.User{ID: "m"}
	c := &InteractionContext{Event: &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Member: &discordgo.Member{User: member},
	}}}
	assert.Same(t, member, c.User())

	dm := &discordgo.User{ID: "d"}
	c.Event.Member = nil
	c.Event.User = dm
	assert.Same(t, dm, c.User())

	c.Event.User = nil
	assert.Equal(t, "unknown", c.User().ID)
}

func TestCustomID(t *testing.T) {
	id := CustomID("forms", "seasonal")
	assert.Equal(t, "forms:seasonal", id)

	name, args := ParseCustomID(id)
	assert.Equal(t, "forms", name)
	assert.Equal(t, []string{"seasonal"}, args)

	name, args = ParseCustomID("bare")
	assert.Equal(t, "bare", name)
	assert.Empty(t, args)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "ñañ…", Truncate("ñañaña", 4))
}

func TestFormEmbed(t *testing.T) {
	cat, err := mood.DefaultCatalogue()
	require.NoError(t, err)
	f := cat.Baseline()

	embed := FormEmbed(f, "Title", "Body")
	assert.Equal(t, f.Color, embed.Color)
	assert.Equal(t, "Title", embed.Title)
	if f.Footer != "" {
		require.NotNil(t, embed.Footer)
		assert.Equal(t, f.Footer, embed.Footer.Text)
	}

	plain := FormEmbed(mood.Form{}, "", "")
	assert.Equal(t, EmbedColor, plain.Color)
	assert.Nil(t, plain.Footer)
	assert.Nil(t, plain.Thumbnail)

	assert.Equal(t, "Dusk", FormLabel(mood.Form{Name: "Dusk"}))
}

func TestOptions(t *testing.T) {
	opts := Options([]*discordgo.ApplicationCommandInteractionDataOption{
		{Name: "mode", Type: discordgo.ApplicationCommandOptionString, Value: "nightform"},
	})
	assert.Equal(t, "nightform", StringOption(opts, "mode"))
	assert.Equal(t, "", StringOption(opts, "reason"))
}
