package middleware

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/whisperling/internal/command"
	"github.com/keshon/whisperling/pkg/cmd"
)

var PermissionNames = map[int64]string{
	discordgo.PermissionAdministrator:      "Administrator",
	discordgo.PermissionManageGuild:        "Manage Server",
	discordgo.PermissionManageRoles:        "Manage Roles",
	discordgo.PermissionManageChannels:     "Manage Channels",
	discordgo.PermissionManageMessages:     "Manage Messages",
	discordgo.PermissionModerateMembers:    "Moderate Members",
	discordgo.PermissionKickMembers:        "Kick Members",
	discordgo.PermissionBanMembers:         "Ban Members",
	discordgo.PermissionSendMessages:       "Send Messages",
	discordgo.PermissionReadMessageHistory: "Read Message History",
}

// WithUserPermissionCheck requires at least one of the command's UserPermissions.
// Administrators and the configured developer always pass.
func WithUserPermissionCheck() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			v, ok := inv.Data.(command.Interactive)
			if !ok {
				return c.Run(ctx, inv)
			}
			b := v.Base()

			meta, ok := cmd.Root(c).(command.DiscordMeta)
			if !ok || len(meta.UserPermissions()) == 0 {
				return c.Run(ctx, inv)
			}

			m := b.Event.Member
			if m == nil || m.User == nil {
				return c.Run(ctx, inv)
			}
			if b.Services != nil && b.Services.Config.IsDeveloper(m.User.ID) {
				return c.Run(ctx, inv)
			}
			if HasAnyPermission(m.Permissions, meta.UserPermissions()) {
				return c.Run(ctx, inv)
			}

			return command.RespondText(b.Session, b.Event, MissingPermissionsMessage(meta.UserPermissions()))
		})
	}
}

// HasAnyPermission reports whether perms grants Administrator or any of required.
func HasAnyPermission(perms int64, required []int64) bool {
	if perms&discordgo.PermissionAdministrator != 0 {
		return true
	}
	for _, p := range required {
		if perms&p != 0 {
			return true
		}
	}
	return false
}

func MissingPermissionsMessage(required []int64) string {
	var names []string
	for _, p := range required {
		name := PermissionNames[p]
		if name == "" {
			name = fmt.Sprintf("0x%x", p)
		}
		names = append(names, name)
	}
	return fmt.Sprintf(
		"You need at least one of the following permissions to run this command:\n`%s`",
		strings.Join(names, "`, `"),
	)
}
