package welcome

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/whisperling/internal/command"
	"github.com/keshon/whisperling/internal/middleware"
	"github.com/keshon/whisperling/internal/onboarding"
	"github.com/keshon/whisperling/internal/storage"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type ManageOnboardingCommand struct{}

func (c *ManageOnboardingCommand) Name() string        { return "manage-onboarding" }
func (c *ManageOnboardingCommand) Description() string { return "Rules and role settings for newcomers" }
func (c *ManageOnboardingCommand) Group() string       { return "onboarding" }
func (c *ManageOnboardingCommand) Category() string    { return "🌿 Onboarding" }
func (c *ManageOnboardingCommand) UserPermissions() []int64 {
	return []int64{discordgo.PermissionAdministrator}
}

func roleOptions(withDetails bool) []*discordgo.ApplicationCommandOption {
	opts := []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionRole,
			Name:        "role",
			Description: "Role",
			Required:    true,
		},
	}
	if !withDetails {
		return opts
	}
	return append(opts,
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "emoji",
			Description: "Button emoji",
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "label",
			Description: "Button label (defaults to the role name)",
		},
	)
}

func subcommand(name, desc string, opts ...*discordgo.ApplicationCommandOption) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionSubCommand,
		Name:        name,
		Description: desc,
		Options:     opts,
	}
}

func (c *ManageOnboardingCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			subcommand("set-rules", "Set the rules text for a language",
				&discordgo.ApplicationCommandOption{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "code",
					Description: "Language code",
					Required:    true,
				},
				&discordgo.ApplicationCommandOption{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "text",
					Description: "Rules text (use \\n for line breaks)",
					Required:    true,
				},
			),
			subcommand("add-role", "Offer a role during onboarding", roleOptions(true)...),
			subcommand("remove-role", "Stop offering a role", roleOptions(false)...),
			subcommand("list-roles", "List offered roles"),
			subcommand("add-cosmetic", "Offer a cosmetic role", roleOptions(true)...),
			subcommand("remove-cosmetic", "Stop offering a cosmetic role", roleOptions(false)...),
			subcommand("list-cosmetics", "List offered cosmetic roles"),
			subcommand("start-welcome", "Run onboarding for a member (or yourself) in the welcome channel",
				&discordgo.ApplicationCommandOption{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "member",
					Description: "Member to onboard",
				},
			),
		},
	}
}

func (c *ManageOnboardingCommand) Run(ctx context.Context, data any) error {
	sc, ok := data.(*command.SlashInteractionContext)
	if !ok {
		return nil
	}
	s, e, store := sc.Session, sc.Event, sc.Services.Storage

	options := e.ApplicationCommandData().Options
	if len(options) == 0 {
		return command.RespondText(s, e, "No subcommand provided.")
	}
	sub := options[0]
	opts := command.Options(sub.Options)

	switch sub.Name {
	case "set-rules":
		code := command.StringOption(opts, "code")
		text := strings.ReplaceAll(command.StringOption(opts, "text"), `\n`, "\n")
		if _, ok := store.Language(e.GuildID, code); !ok {
			return command.RespondText(s, e, fmt.Sprintf("`%s` is not configured. Add it with `/manage-languages add`.", code))
		}
		if err := store.SetRules(e.GuildID, code, text); err != nil {
			return command.RespondText(s, e, fmt.Sprintf("Failed to save rules: `%v`", err))
		}
		return command.RespondText(s, e, fmt.Sprintf("✅ Rules for `%s` saved.", code))
	case "add-role":
		return addRole(s, e, store, storage.PrimaryRole, opts)
	case "add-cosmetic":
		return addRole(s, e, store, storage.CosmeticRole, opts)
	case "remove-role":
		return removeRole(s, e, store, storage.PrimaryRole, opts)
	case "remove-cosmetic":
		return removeRole(s, e, store, storage.CosmeticRole, opts)
	case "list-roles":
		return listRoles(s, e, store, storage.PrimaryRole)
	case "list-cosmetics":
		return listRoles(s, e, store, storage.CosmeticRole)
	case "start-welcome":
		return startWelcome(ctx, sc, opts)
	default:
		return command.RespondText(s, e, "Unknown subcommand.")
	}
}

func addRole(s *discordgo.Session, e *discordgo.InteractionCreate, store *storage.Storage, kind storage.RoleKind, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) error {
	role := opts["role"].RoleValue(s, e.GuildID)
	label := command.StringOption(opts, "label")
	if label == "" {
		label = role.Name
	}
	if label == "" {
		label = role.ID
	}
	opt := storage.RoleOption{RoleID: role.ID, Label: label, Emoji: command.StringOption(opts, "emoji")}
	if err := store.AddRoleOption(e.GuildID, kind, opt); err != nil {
		return command.RespondText(s, e, fmt.Sprintf("Failed to save role: `%v`", err))
	}
	return command.RespondText(s, e, fmt.Sprintf("✅ <@&%s> is now offered as a %s role.", role.ID, kind))
}

func removeRole(s *discordgo.Session, e *discordgo.InteractionCreate, store *storage.Storage, kind storage.RoleKind, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) error {
	roleID := opts["role"].RoleValue(nil, "").ID
	err := store.RemoveRoleOption(e.GuildID, kind, roleID)
	if errors.Is(err, storage.ErrRoleNotFound) {
		return command.RespondText(s, e, fmt.Sprintf("<@&%s> is not offered as a %s role.", roleID, kind))
	}
	if err != nil {
		return command.RespondText(s, e, fmt.Sprintf("Failed to remove role: `%v`", err))
	}
	return command.RespondText(s, e, fmt.Sprintf("🗑️ <@&%s> removed from %s roles.", roleID, kind))
}

func listRoles(s *discordgo.Session, e *discordgo.InteractionCreate, store *storage.Storage, kind storage.RoleKind) error {
	roles, err := store.RoleOptions(e.GuildID, kind)
	if err != nil {
		return command.RespondText(s, e, fmt.Sprintf("Failed to read roles: `%v`", err))
	}
	if len(roles) == 0 {
		return command.RespondText(s, e, fmt.Sprintf("No %s roles are offered.", kind))
	}
	var sb strings.Builder
	for _, r := range roles {
		fmt.Fprintf(&sb, "%s **%s** <@&%s>\n", r.Emoji, r.Label, r.RoleID)
	}
	return command.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("🌼 %s roles", cases.Title(language.English).String(kind.String())),
		Description: sb.String(),
		Color:       command.EmbedColor,
	})
}

func startWelcome(ctx context.Context, sc *command.SlashInteractionContext, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) error {
	s, e, svc := sc.Session, sc.Event, sc.Services
	channelID := svc.Storage.WelcomeChannel(e.GuildID)
	if channelID == "" {
		return command.RespondText(s, e, "Set a welcome channel first with `/manage-languages set-welcome-channel`.")
	}
	target := sc.User()
	if o, ok := opts["member"]; ok {
		target = o.UserValue(nil)
	}
	if err := command.RespondText(s, e, fmt.Sprintf("🌿 Starting onboarding for %s in <#%s>.", target.Mention(), channelID)); err != nil {
		return err
	}

	member := onboarding.Member{GuildID: e.GuildID, UserID: target.ID, Mention: target.Mention()}
	go func() {
		out, err := svc.Onboarding.Run(ctx, member, channelID)
		if err != nil {
			log.Warn().Err(err).Str("guild", e.GuildID).Str("user", target.ID).Msg("Onboarding failed")
			return
		}
		log.Info().Str("guild", e.GuildID).Str("user", target.ID).Stringer("step", out.Reached).Bool("completed", out.Completed).Msg("Onboarding finished")
	}()
	return nil
}

func init() {
	command.RegisterCommand(&ManageOnboardingCommand{}, middleware.Default()...)
}
