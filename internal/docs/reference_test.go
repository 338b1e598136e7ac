package docs

import (
	"bytes"
	"context"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/whisperling/internal/command"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fake struct {
	name, category string
	perms          []int64
}

func (f fake) Name() string                   { return f.name }
func (f fake) Description() string            { return "does " + f.name }
func (f fake) Group() string                  { return "test" }
func (f fake) Category() string               { return f.category }
func (f fake) UserPermissions() []int64       { return f.perms }
func (f fake) Run(context.Context, any) error { return nil }

type fakeSlash struct{ fake }

func (f fakeSlash) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name: f.name,
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "add"},
			{Type: discordgo.ApplicationCommandOptionString, Name: "code"},
		},
	}
}

type fakeReaction struct{ fake }

func (f fakeReaction) ReactionDefinition() string { return "flag" }

func TestWriteReference(t *testing.T) {
	cmds := []command.DiscordCommand{
		fakeSlash{fake{name: "manage-languages", category: "⚙️ Settings", perms: []int64{discordgo.PermissionAdministrator}}},
		fakeReaction{fake{name: "translate (reaction)", category: "🌐 Translation"}},
		fakeSlash{fake{name: "help", category: "🕯️ Information"}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteReference(&buf, cmds))
	out := buf.String()

	assert.Contains(t, out, "- **/help** does help")
	assert.Contains(t, out, "- **translate (reaction)** does translate (reaction)")
	assert.Contains(t, out, "_(admin)_")
	assert.Contains(t, out, "`manage-languages add`")
	assert.NotContains(t, out, "manage-languages code")

	info := bytes.Index(buf.Bytes(), []byte("### 🕯️ Information"))
	settings := bytes.Index(buf.Bytes(), []byte("### ⚙️ Settings"))
	require.NotEqual(t, -1, info)
	assert.Less(t, info, settings)
}
