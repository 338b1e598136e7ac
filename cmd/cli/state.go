package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/keshon/whisperling/internal/mood"
	"github.com/keshon/whisperling/internal/redisstore"
	"github.com/keshon/whisperling/internal/storage"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd(flags *rootFlags) *cobra.Command {
	cfg := &cobra.Command{
		Use:   "config",
		Short: "Inspect stored guild settings",
	}
	cfg.AddCommand(&cobra.Command{
		Use:   "dump <guild>",
		Short: "Print a guild's settings record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storage.New(flags.storagePath)
			if err != nil {
				return fmt.Errorf("open storage: %w", err)
			}
			defer store.Close()

			record, err := store.Record(args[0])
			if err != nil {
				return err
			}
			return encode(cmd.OutOrStdout(), flags.format, record)
		},
	})
	return cfg
}

// moodView is a snapshot joined with its form, for reading.
type moodView struct {
	Guild    string         `json:"guild" yaml:"guild"`
	Form     string         `json:"form" yaml:"form"`
	Category string         `json:"category" yaml:"category"`
	State    mood.Community `json:"state" yaml:"state"`
}

func newMoodCmd(flags *rootFlags) *cobra.Command {
	m := &cobra.Command{
		Use:   "mood",
		Short: "Inspect persisted mood state",
	}
	m.AddCommand(&cobra.Command{
		Use:   "show <guild>",
		Short: "Print a guild's mood snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			snaps, err := loadSnapshots(ctx, flags)
			if err != nil {
				return err
			}
			c, ok := snaps[args[0]]
			if !ok {
				return fmt.Errorf("no mood snapshot for guild %s", args[0])
			}
			view, err := viewOf(args[0], c)
			if err != nil {
				return err
			}
			return encode(cmd.OutOrStdout(), flags.format, view)
		},
	})
	return m
}

func loadSnapshots(ctx context.Context, flags *rootFlags) (map[string]mood.Community, error) {
	if flags.redisAddr != "" {
		rs, err := redisstore.Open(ctx, redisstore.Config{Addr: flags.redisAddr, Prefix: flags.redisPrefix})
		if err != nil {
			return nil, err
		}
		defer rs.Close()
		return rs.LoadSnapshots(ctx)
	}
	store, err := storage.New(flags.storagePath)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()
	return store.LoadSnapshots(ctx)
}

func viewOf(guildID string, c mood.Community) (moodView, error) {
	cat, err := mood.DefaultCatalogue()
	if err != nil {
		return moodView{}, err
	}
	view := moodView{Guild: guildID, Form: c.Form, State: c}
	if f, ok := cat.Lookup(c.Form); ok {
		view.Form = f.Emoji + " " + f.Name
		view.Category = f.Category.String()
	}
	return view, nil
}

func encode(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
