// Package cmd is the transport-agnostic command core. A command has a name, a
// description and Run(ctx, invocation); how it is registered and dispatched
// (Discord slash command, context menu, reaction) is up to the adapter.
package cmd

import "context"

// Invocation carries what a transport passes to a command. Data holds the
// adapter's own context value (for Discord, a *command.SlashInteractionContext etc.).
type Invocation struct {
	Args []string
	Data any
}

// Command is the universal contract: identity plus execution.
type Command interface {
	Name() string
	Description() string
	Run(ctx context.Context, inv *Invocation) error
}
