package middleware

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/whisperling/internal/command"
	"github.com/keshon/whisperling/internal/storage"
	"github.com/keshon/whisperling/pkg/cmd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type probe struct {
	calls int
	err   error
	perms []int64
}

func (p *probe) Name() string             { return "probe" }
func (p *probe) Description() string      { return "probe" }
func (p *probe) Group() string            { return "test" }
func (p *probe) Category() string         { return "test" }
func (p *probe) UserPermissions() []int64 { return p.perms }
func (p *probe) Run(context.Context, any) error {
	p.calls++
	return p.err
}

func TestHasAnyPermission(t *testing.T) {
	assert.True(t, HasAnyPermission(discordgo.PermissionAdministrator, []int64{discordgo.PermissionManageRoles}))
	assert.True(t, HasAnyPermission(discordgo.PermissionManageRoles, []int64{discordgo.PermissionManageGuild, discordgo.PermissionManageRoles}))
	assert.False(t, HasAnyPermission(discordgo.PermissionSendMessages, []int64{discordgo.PermissionManageGuild}))
}

func TestMissingPermissionsMessage(t *testing.T) {
	msg := MissingPermissionsMessage([]int64{discordgo.PermissionManageGuild, 1 << 60})
	assert.Contains(t, msg, "`Manage Server`, `0x1000000000000000`")
}

func TestCommandLoggerRecordsReactionHistory(t *testing.T) {
	store, err := storage.New(filepath.Join(t.TempDir(), "datastore.json"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	p := &probe{err: errors.New("translation failed")}
	c := cmd.Apply(&command.DiscordAdapter{Cmd: p}, WithGuildOnly(), WithCommandLogger())

	data := &command.MessageReactionContext{
		Event: &discordgo.MessageReactionAdd{MessageReaction: &discordgo.MessageReaction{
			GuildID: "g1", ChannelID: "c1", UserID: "u1",
		}},
		Services: &command.Services{Storage: store},
	}
	err = c.Run(context.Background(), &cmd.Invocation{Data: data})
	assert.EqualError(t, err, "translation failed")
	assert.Equal(t, 1, p.calls)

	history, err := store.CommandsHistory("g1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "probe", history[0].Command)
	assert.Equal(t, "u1", history[0].UserID)
}

func TestGuildOnlyDropsDirectReactions(t *testing.T) {
	p := &probe{}
	c := cmd.Apply(&command.DiscordAdapter{Cmd: p}, WithGuildOnly())
	data := &command.MessageReactionContext{
		Event: &discordgo.MessageReactionAdd{MessageReaction: &discordgo.MessageReaction{ChannelID: "dm"}},
	}
	require.NoError(t, c.Run(context.Background(), &cmd.Invocation{Data: data}))
	assert.Zero(t, p.calls)
}

func TestRecoverSwallowsNonInteractionFailures(t *testing.T) {
	p := &probe{err: errors.New("boom")}
	c := cmd.Apply(&command.DiscordAdapter{Cmd: p}, WithRecover())
	assert.NoError(t, c.Run(context.Background(), &cmd.Invocation{Data: "cli"}))
	assert.Equal(t, 1, p.calls)
}
