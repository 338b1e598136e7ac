package main

import (
	"fmt"
	"os"

	_ "github.com/keshon/whisperling/internal/command/core"
	_ "github.com/keshon/whisperling/internal/command/language"
	_ "github.com/keshon/whisperling/internal/command/persona"
	_ "github.com/keshon/whisperling/internal/command/translation"
	_ "github.com/keshon/whisperling/internal/command/welcome"

	"github.com/keshon/whisperling/internal/command"
	"github.com/keshon/whisperling/internal/docs"
	"github.com/spf13/cobra"
)

func newCommandsCmd() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "commands",
		Short: "Print the Markdown reference of the bot's commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if outPath == "" {
				return docs.WriteReference(cmd.OutOrStdout(), command.AllCommands())
			}
			f, err := os.Create(outPath)
			if err != nil {
				return err
			}
			if err := docs.WriteReference(f, command.AllCommands()); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", outPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "", "write to this file instead of stdout")
	return cmd
}
