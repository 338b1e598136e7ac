package language

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/whisperling/internal/command"
	"github.com/keshon/whisperling/internal/middleware"
	"github.com/keshon/whisperling/internal/storage"
	"github.com/keshon/whisperling/internal/translate"
)

type ManageLanguagesCommand struct{}

func (c *ManageLanguagesCommand) Name() string        { return "manage-languages" }
func (c *ManageLanguagesCommand) Description() string { return "Language and channel settings" }
func (c *ManageLanguagesCommand) Group() string       { return "language" }
func (c *ManageLanguagesCommand) Category() string    { return "⚙️ Settings" }
func (c *ManageLanguagesCommand) UserPermissions() []int64 {
	return []int64{discordgo.PermissionAdministrator}
}

func codeOption(desc string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "code",
		Description: desc,
		Required:    true,
	}
}

func channelOption(desc string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:         discordgo.ApplicationCommandOptionChannel,
		Name:         "channel",
		Description:  desc,
		Required:     true,
		ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
	}
}

func (c *ManageLanguagesCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "preload",
				Description: "Replace the language list with English, German, Spanish and French",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "add",
				Description: "Add a language members can pick",
				Options: []*discordgo.ApplicationCommandOption{
					codeOption("Language code, e.g. de or pt-br"),
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "emoji",
						Description: "Button emoji",
						Required:    true,
					},
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "name",
						Description: "Button label (defaults to the language's own name)",
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "remove",
				Description: "Remove a language",
				Options:     []*discordgo.ApplicationCommandOption{codeOption("Language code to remove")},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "list",
				Description: "List configured languages",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "set-welcome",
				Description: "Set the welcome message for a language ({user} is replaced)",
				Options: []*discordgo.ApplicationCommandOption{
					codeOption("Language code"),
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "message",
						Description: "Welcome template",
						Required:    true,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "set-welcome-channel",
				Description: "Channel where newcomers are onboarded",
				Options:     []*discordgo.ApplicationCommandOption{channelOption("Welcome channel")},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "set-announce-channel",
				Description: "Channel for form changes and ambient chatter",
				Options:     []*discordgo.ApplicationCommandOption{channelOption("Announce channel")},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "codes",
				Description: "Show common language codes",
			},
		},
	}
}

func (c *ManageLanguagesCommand) Run(_ context.Context, data any) error {
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
	case "preload":
		if err := store.PreloadLanguages(e.GuildID); err != nil {
			return command.RespondText(s, e, fmt.Sprintf("Failed to preload languages: `%v`", err))
		}
		return listLanguages(s, e, store, "✅ Preset languages loaded.")
	case "add":
		return addLanguage(s, e, store, opts)
	case "remove":
		code := command.StringOption(opts, "code")
		err := store.RemoveLanguage(e.GuildID, code)
		if errors.Is(err, storage.ErrLanguageNotFound) {
			return command.RespondText(s, e, fmt.Sprintf("`%s` is not configured.", code))
		}
		if err != nil {
			return command.RespondText(s, e, fmt.Sprintf("Failed to remove language: `%v`", err))
		}
		return command.RespondText(s, e, fmt.Sprintf("🗑️ Removed `%s`.", code))
	case "list":
		return listLanguages(s, e, store, "")
	case "set-welcome":
		code := command.StringOption(opts, "code")
		err := store.SetWelcome(e.GuildID, code, command.StringOption(opts, "message"))
		if errors.Is(err, storage.ErrLanguageNotFound) {
			return command.RespondText(s, e, fmt.Sprintf("`%s` is not configured. Add it first.", code))
		}
		if err != nil {
			return command.RespondText(s, e, fmt.Sprintf("Failed to save welcome: `%v`", err))
		}
		return command.RespondText(s, e, fmt.Sprintf("✅ Welcome message for `%s` updated.", code))
	case "set-welcome-channel":
		channelID := opts["channel"].ChannelValue(nil).ID
		if err := store.SetWelcomeChannel(e.GuildID, channelID); err != nil {
			return command.RespondText(s, e, fmt.Sprintf("Failed to save channel: `%v`", err))
		}
		return command.RespondText(s, e, fmt.Sprintf("✅ Newcomers will be welcomed in <#%s>.", channelID))
	case "set-announce-channel":
		channelID := opts["channel"].ChannelValue(nil).ID
		if err := store.SetAnnounceChannel(e.GuildID, channelID); err != nil {
			return command.RespondText(s, e, fmt.Sprintf("Failed to save channel: `%v`", err))
		}
		return command.RespondText(s, e, fmt.Sprintf("✅ Announcements will go to <#%s>.", channelID))
	case "codes":
		return command.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{
			Title:       "🌐 Language codes",
			Description: codesText(),
			Color:       command.EmbedColor,
		})
	default:
		return command.RespondText(s, e, "Unknown subcommand.")
	}
}

func addLanguage(s *discordgo.Session, e *discordgo.InteractionCreate, store *storage.Storage, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) error {
	code, err := translate.ValidateCode(command.StringOption(opts, "code"))
	if err != nil {
		return command.RespondText(s, e, fmt.Sprintf("%v. See `/manage-languages codes`.", err))
	}
	name := command.StringOption(opts, "name")
	if name == "" {
		name = translate.NativeName(code)
	}
	emoji := strings.TrimSpace(command.StringOption(opts, "emoji"))

	err = store.AddLanguage(e.GuildID, code, emoji, name)
	if errors.Is(err, storage.ErrLanguageExists) {
		return command.RespondText(s, e, fmt.Sprintf("`%s` is already configured.", code))
	}
	if err != nil {
		return command.RespondText(s, e, fmt.Sprintf("Failed to add language: `%v`", err))
	}
	return command.RespondText(s, e, fmt.Sprintf("✅ Added %s %s (`%s`).", emoji, name, code))
}

func listLanguages(s *discordgo.Session, e *discordgo.InteractionCreate, store *storage.Storage, header string) error {
	langs, err := store.Languages(e.GuildID)
	if err != nil {
		return command.RespondText(s, e, fmt.Sprintf("Failed to read languages: `%v`", err))
	}
	var sb strings.Builder
	if header != "" {
		sb.WriteString(header + "\n\n")
	}
	if len(langs) == 0 {
		sb.WriteString("No languages configured. Try `/manage-languages preload`.")
	}
	for _, l := range langs {
		fmt.Fprintf(&sb, "%s **%s** `%s`\n> %s\n", l.Emoji, l.Name, l.Code, l.Welcome)
	}
	if ch := store.WelcomeChannel(e.GuildID); ch != "" {
		fmt.Fprintf(&sb, "\nWelcome channel: <#%s>", ch)
	}
	if ch := store.AnnounceChannel(e.GuildID); ch != "" {
		fmt.Fprintf(&sb, "\nAnnounce channel: <#%s>", ch)
	}
	return command.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{
		Title:       "🌸 Languages",
		Description: command.Truncate(sb.String(), 4096),
		Color:       command.EmbedColor,
	})
}

func codesText() string {
	var sb strings.Builder
	for _, l := range storage.CommonCodes {
		fmt.Fprintf(&sb, "`%s` %s\n", l.Code, l.Name)
	}
	sb.WriteString("\nAny BCP 47 code the translator knows works too.")
	return sb.String()
}

func init() {
	command.RegisterCommand(&ManageLanguagesCommand{}, middleware.Default()...)
}
