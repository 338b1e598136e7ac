package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/keshon/whisperling/internal/mood"
	"github.com/spf13/cobra"
)

func newFormsCmd() *cobra.Command {
	forms := &cobra.Command{
		Use:   "forms",
		Short: "Browse the form catalogue",
	}

	var category string
	list := &cobra.Command{
		Use:   "list",
		Short: "List forms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := mood.DefaultCatalogue()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tCATEGORY\tNAME\tCOLOR")
			for _, f := range cat.All() {
				if category != "" && !strings.EqualFold(f.Category.String(), category) {
					continue
				}
				marker := ""
				if f.Key == cat.Baseline().Key {
					marker = " (baseline)"
				}
				fmt.Fprintf(w, "%s\t%s\t%s %s%s\t%s\n", f.Key, f.Category, f.Emoji, f.Name, marker, f.ColorHex())
			}
			return w.Flush()
		},
	}
	list.Flags().StringVar(&category, "category", "", "only this category")

	show := &cobra.Command{
		Use:   "show <key>",
		Short: "Show one form's profile and texts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := lookupForm(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s (%s, %s)\n", f.Emoji, f.Name, f.Key, f.Category)
			fmt.Fprintf(out, "%s\n\n", f.Description)
			if f.Window != nil {
				fmt.Fprintf(out, "Window:      %s\n", f.Window)
			}
			if f.Duration > 0 {
				fmt.Fprintf(out, "Duration:    %s\n", f.Duration)
			}
			fmt.Fprintf(out, "Vibe:        %s\nPersonality: %s\nStyle:       %s\nExample:     %s\n",
				f.Profile.Vibe, f.Profile.Personality, f.Profile.Style, f.Profile.Example)

			fmt.Fprintln(out, "\nTexts:")
			for _, e := range mood.Events {
				if text, ok := f.Text(e); ok {
					fmt.Fprintf(out, "  %-22s %s\n", e, text)
				}
			}
			if flavor := f.Flavor(); len(flavor) > 0 {
				fmt.Fprintf(out, "\nFlavor lines: %d\n", len(flavor))
			}
			return nil
		},
	}

	forms.AddCommand(list, show)
	return forms
}

func newRenderCmd() *cobra.Command {
	var vars []string
	cmd := &cobra.Command{
		Use:   "render <form> <event>",
		Short: "Render an event's text in a form's voice",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := renderEvent(args[0], mood.Event(args[1]), vars)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&vars, "var", nil, "placeholder value as name=value (repeatable)")
	return cmd
}

// renderEvent resolves the text the way the bot does: the form's own text, else the baseline's.
func renderEvent(formKey string, event mood.Event, assignments []string) (string, error) {
	cat, err := mood.DefaultCatalogue()
	if err != nil {
		return "", err
	}
	f, ok := cat.Lookup(formKey)
	if !ok {
		return "", fmt.Errorf("unknown form %q", formKey)
	}
	text, ok := f.Text(event)
	if !ok {
		if text, ok = cat.Baseline().Text(event); !ok {
			return "", fmt.Errorf("unknown event %q", event)
		}
	}

	vars := make(map[string]string, len(assignments))
	for _, a := range assignments {
		k, val, found := strings.Cut(a, "=")
		if !found || k == "" {
			return "", fmt.Errorf("bad --var %q, want name=value", a)
		}
		vars[k] = val
	}
	return mood.Render(text, f, vars), nil
}

func lookupForm(key string) (mood.Form, error) {
	cat, err := mood.DefaultCatalogue()
	if err != nil {
		return mood.Form{}, err
	}
	f, ok := cat.Lookup(key)
	if !ok {
		return mood.Form{}, fmt.Errorf("unknown form %q", key)
	}
	return f, nil
}
