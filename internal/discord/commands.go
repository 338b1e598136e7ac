package discord

import (
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/whisperling/internal/command"
	"github.com/keshon/whisperling/pkg/cmd"
)

// registerCommands syncs a guild's application commands with the registry:
// obsolete ones are deleted, new or changed ones are (re)created.
func (b *Bot) registerCommands(guildID string) error {
	appID, err := b.appID()
	if err != nil {
		return err
	}

	remote, err := b.dg.ApplicationCommands(appID, guildID)
	if err != nil {
		return fmt.Errorf("list commands: %w", err)
	}
	remoteByName := make(map[string]*discordgo.ApplicationCommand, len(remote))
	for _, c := range remote {
		remoteByName[c.Name] = c
	}

	local := buildCommandDefinitions()
	hashes := b.storage.CommandHashes(guildID)

	for name := range b.deleteObsoleteCommands(appID, guildID, remoteByName, local) {
		delete(hashes, name)
	}
	for name, h := range b.upsertChangedCommands(appID, guildID, local, remoteByName, hashes) {
		hashes[name] = h
	}

	if err := b.storage.SetCommandHashes(guildID, hashes); err != nil {
		return fmt.Errorf("save command hashes: %w", err)
	}
	return nil
}

func buildCommandDefinitions() []*discordgo.ApplicationCommand {
	var defs []*discordgo.ApplicationCommand
	for _, c := range cmd.DefaultRegistry.GetAll() {
		if def := command.Definition(c); def != nil {
			defs = append(defs, def)
		}
	}
	return defs
}

// deleteObsoleteCommands returns the names it removed.
func (b *Bot) deleteObsoleteCommands(appID, guildID string, remote map[string]*discordgo.ApplicationCommand, local []*discordgo.ApplicationCommand) map[string]struct{} {
	localNames := make(map[string]struct{}, len(local))
	for _, d := range local {
		localNames[d.Name] = struct{}{}
	}

	removed := make(map[string]struct{})
	for name, rc := range remote {
		if _, ok := localNames[name]; ok {
			continue
		}
		b.log.Info().Str("guild", guildID).Str("command", name).Msg("Deleting obsolete command")
		if err := b.dg.ApplicationCommandDelete(appID, guildID, rc.ID); err != nil {
			b.log.Error().Err(err).Str("guild", guildID).Str("command", name).Msg("Failed to delete command")
			continue
		}
		removed[name] = struct{}{}
	}
	return removed
}

// upsertChangedCommands returns the new hashes of the commands it registered.
func (b *Bot) upsertChangedCommands(appID, guildID string, defs []*discordgo.ApplicationCommand, remote map[string]*discordgo.ApplicationCommand, cached map[string]string) map[string]string {
	changed := changedCommands(defs, remote, cached)
	if len(changed) == 0 {
		return nil
	}

	b.log.Info().Str("guild", guildID).Int("count", len(changed)).Msg("Registering changed commands")
	registered := make(map[string]string, len(changed))
	for _, d := range changed {
		if _, err := b.dg.ApplicationCommandCreate(appID, guildID, d); err != nil {
			b.log.Error().Err(err).Str("guild", guildID).Str("command", d.Name).Msg("Failed to register command")
		} else {
			registered[d.Name] = hashCommand(d)
		}
		time.Sleep(25 * time.Millisecond) // stay under the rate limit
	}
	return registered
}

// changedCommands picks definitions missing remotely or whose hash differs from the cache.
func changedCommands(defs []*discordgo.ApplicationCommand, remote map[string]*discordgo.ApplicationCommand, cached map[string]string) []*discordgo.ApplicationCommand {
	var out []*discordgo.ApplicationCommand
	for _, d := range defs {
		_, exists := remote[d.Name]
		if !exists || cached[d.Name] != hashCommand(d) {
			out = append(out, d)
		}
	}
	return out
}

// handleRefreshCommands processes a SystemEventRefreshCommands event.
func (b *Bot) handleRefreshCommands(evt SystemEvent) {
	logger := b.log.With().Str("guild", evt.GuildID).Str("target", evt.Target).Logger()
	appID, err := b.appID()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to resolve app ID")
		return
	}

	if b.cfg.IsGuildBlacklisted(evt.GuildID) {
		b.removeAllCommands(appID, evt.GuildID)
		return
	}

	if evt.Target == "" || strings.EqualFold(evt.Target, "all") {
		// Forget the cache so every definition is pushed again.
		if err := b.storage.SetCommandHashes(evt.GuildID, map[string]string{}); err != nil {
			logger.Warn().Err(err).Msg("Failed to reset command hashes")
		}
		if err := b.registerCommands(evt.GuildID); err != nil {
			logger.Error().Err(err).Msg("Failed to refresh commands")
		}
		return
	}

	for _, c := range cmd.DefaultRegistry.GetAll() {
		if !strings.EqualFold(c.Name(), evt.Target) {
			continue
		}
		if def := command.Definition(c); def != nil {
			if _, err := b.dg.ApplicationCommandCreate(appID, evt.GuildID, def); err != nil {
				logger.Error().Err(err).Msg("Failed to refresh command")
			}
		}
		return
	}
	logger.Warn().Msg("No command found for refresh target")
}

func (b *Bot) removeAllCommands(appID, guildID string) {
	existing, err := b.dg.ApplicationCommands(appID, guildID)
	if err != nil {
		b.log.Error().Err(err).Str("guild", guildID).Msg("Failed to list commands")
		return
	}
	for _, c := range existing {
		if err := b.dg.ApplicationCommandDelete(appID, guildID, c.ID); err != nil {
			b.log.Error().Err(err).Str("guild", guildID).Str("command", c.Name).Msg("Failed to delete command")
		}
	}
	if err := b.storage.SetCommandHashes(guildID, map[string]string{}); err != nil {
		b.log.Warn().Err(err).Str("guild", guildID).Msg("Failed to reset command hashes")
	}
}

// appID returns the bot's application ID, fetching it if State has none yet.
func (b *Bot) appID() (string, error) {
	if b.dg.State != nil && b.dg.State.User != nil && b.dg.State.User.ID != "" {
		return b.dg.State.User.ID, nil
	}
	u, err := b.dg.User("@me")
	if err != nil {
		return "", fmt.Errorf("fetch bot user: %w", err)
	}
	return u.ID, nil
}

// hashCommand is a deterministic SHA-1 over a command's stable fields.
func hashCommand(c *discordgo.ApplicationCommand) string {
	stable := map[string]any{
		"name":        c.Name,
		"description": c.Description,
		"type":        c.Type,
	}
	if c.DefaultMemberPermissions != nil {
		stable["permissions"] = *c.DefaultMemberPermissions
	}
	if len(c.Options) > 0 {
		stable["options"] = normalizeOptions(c.Options)
	}
	data, _ := json.Marshal(stable)
	return fmt.Sprintf("%x", sha1.Sum(data))
}

func normalizeOptions(opts []*discordgo.ApplicationCommandOption) []map[string]any {
	out := make([]map[string]any, len(opts))
	for i, o := range opts {
		entry := map[string]any{
			"name":        o.Name,
			"description": o.Description,
			"type":        o.Type,
			"required":    o.Required,
		}
		if len(o.Choices) > 0 {
			choices := make([]map[string]any, len(o.Choices))
			for j, ch := range o.Choices {
				choices[j] = map[string]any{"name": ch.Name, "value": ch.Value}
			}
			entry["choices"] = choices
		}
		if len(o.ChannelTypes) > 0 {
			entry["channel_types"] = o.ChannelTypes
		}
		if len(o.Options) > 0 {
			entry["options"] = normalizeOptions(o.Options)
		}
		out[i] = entry
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i]["name"].(string) < out[j]["name"].(string)
	})
	return out
}
