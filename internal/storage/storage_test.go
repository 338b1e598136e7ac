package storage

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/keshon/whisperling/datastore"
	"github.com/keshon/whisperling/internal/mood"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStorage(t *testing.T) (*Storage, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "datastore.json")
	cfg := datastore.DefaultConfig(path)
	cfg.AutoSaveInterval = 0
	ds, err := datastore.Open(cfg)
	require.NoError(t, err)
	s := NewWithStore(ds)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func reopen(t *testing.T, s *Storage, path string) *Storage {
	t.Helper()
	require.NoError(t, s.Close())
	cfg := datastore.DefaultConfig(path)
	cfg.AutoSaveInterval = 0
	ds, err := datastore.Open(cfg)
	require.NoError(t, err)
	out := NewWithStore(ds)
	t.Cleanup(func() { out.Close() })
	return out
}

func TestLanguages(t *testing.T) {
	s, path := newStorage(t)

	langs, err := s.Languages("g1")
	require.NoError(t, err)
	assert.Empty(t, langs)

	require.NoError(t, s.PreloadLanguages("g1"))
	require.NoError(t, s.AddLanguage("g1", "IT", "🍝", "Italiano"))
	assert.ErrorIs(t, s.AddLanguage("g1", "de", "📖", "Deutsch"), ErrLanguageExists)
	assert.ErrorIs(t, s.RemoveLanguage("g1", "xx"), ErrLanguageNotFound)
	assert.ErrorIs(t, s.SetWelcome("g1", "xx", "hi"), ErrLanguageNotFound)
	require.NoError(t, s.SetWelcome("g1", "de", "Hallo {user}!"))

	// Mutations are saved immediately, so a fresh process sees them.
	s = reopen(t, s, path)

	langs, err = s.Languages("g1")
	require.NoError(t, err)
	codes := make([]string, 0, len(langs))
	for _, l := range langs {
		codes = append(codes, l.Code)
	}
	assert.Equal(t, []string{"de", "en", "es", "fr", "it"}, codes)

	de, ok := s.Language("g1", "de")
	require.True(t, ok)
	assert.Equal(t, "Hallo {user}!", de.Welcome)
	it, ok := s.Language("g1", "it")
	require.True(t, ok)
	assert.Equal(t, DefaultWelcome, it.Welcome)

	require.NoError(t, s.RemoveLanguage("g1", "it"))
	_, ok = s.Language("g1", "it")
	assert.False(t, ok)
}

func TestUserLanguageAndRules(t *testing.T) {
	s, _ := newStorage(t)

	assert.Equal(t, "", s.UserLanguage("g1", "u1"))
	require.NoError(t, s.SetUserLanguage("g1", "u1", "DE"))
	assert.Equal(t, "de", s.UserLanguage("g1", "u1"))

	_, ok := s.Rules("g1", "de")
	assert.False(t, ok)

	require.NoError(t, s.SetRules("g1", "en", "Be kind."))
	text, ok := s.Rules("g1", "de")
	require.True(t, ok)
	assert.Equal(t, "Be kind.", text)

	require.NoError(t, s.SetRules("g1", "de", "Sei nett."))
	text, _ = s.Rules("g1", "de")
	assert.Equal(t, "Sei nett.", text)
}

func TestRoleOptions(t *testing.T) {
	s, _ := newStorage(t)

	require.NoError(t, s.AddRoleOption("g1", PrimaryRole, RoleOption{RoleID: "r2", Label: "Wanderer", Emoji: "🌿"}))
	require.NoError(t, s.AddRoleOption("g1", PrimaryRole, RoleOption{RoleID: "r1", Label: "Artist", Emoji: "🎨"}))
	require.NoError(t, s.AddRoleOption("g1", CosmeticRole, RoleOption{RoleID: "c1", Label: "Pink", Emoji: "🌸"}))

	primary, err := s.RoleOptions("g1", PrimaryRole)
	require.NoError(t, err)
	require.Len(t, primary, 2)
	assert.Equal(t, "r1", primary[0].RoleID)
	assert.Equal(t, "Artist", primary[0].Label)

	cosmetic, err := s.RoleOptions("g1", CosmeticRole)
	require.NoError(t, err)
	assert.Len(t, cosmetic, 1)

	assert.ErrorIs(t, s.RemoveRoleOption("g1", CosmeticRole, "r1"), ErrRoleNotFound)
	require.NoError(t, s.RemoveRoleOption("g1", PrimaryRole, "r1"))
	primary, _ = s.RoleOptions("g1", PrimaryRole)
	assert.Len(t, primary, 1)
}

func TestChannelsAndFeatures(t *testing.T) {
	s, _ := newStorage(t)

	assert.Equal(t, "", s.AnnounceChannel("g1"))
	require.NoError(t, s.SetWelcomeChannel("g1", "c-welcome"))
	assert.Equal(t, "c-welcome", s.WelcomeChannel("g1"))
	assert.Equal(t, "c-welcome", s.AnnounceChannel("g1"))
	require.NoError(t, s.SetAnnounceChannel("g1", "c-news"))
	assert.Equal(t, "c-news", s.AnnounceChannel("g1"))

	assert.True(t, s.AmbientChatter("g1"))
	require.NoError(t, s.SetAmbientChatter("g1", false))
	assert.False(t, s.AmbientChatter("g1"))

	assert.False(t, s.ReactionTranslate("g1"))
	require.NoError(t, s.SetReactionTranslate("g1", true))
	assert.True(t, s.ReactionTranslate("g1"))
}

func TestCommandHistoryIsBounded(t *testing.T) {
	s, _ := newStorage(t)

	for i := 0; i < commandHistoryLimit+5; i++ {
		require.NoError(t, s.AppendCommandToHistory("g1", CommandHistoryRecord{Command: "mood", Datetime: time.Unix(int64(i), 0)}))
	}
	history, err := s.CommandsHistory("g1")
	require.NoError(t, err)
	assert.Len(t, history, commandHistoryLimit)
	assert.Equal(t, int64(commandHistoryLimit+4), history[len(history)-1].Datetime.Unix())
}

func TestMoodSnapshots(t *testing.T) {
	s, path := newStorage(t)
	ctx := context.Background()

	since := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	c := mood.Community{Form: "glitchspire", PreviousStandard: "seaform", TransientSince: &since}
	require.NoError(t, s.SaveSnapshot(ctx, "g1", c))
	require.NoError(t, s.SetWelcomeChannel("g2", "c"))

	s = reopen(t, s, path)
	snaps, err := s.LoadSnapshots(ctx)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	got := snaps["g1"]
	assert.Equal(t, "glitchspire", got.Form)
	require.NotNil(t, got.TransientSince)
	assert.True(t, since.Equal(*got.TransientSince))
	assert.ElementsMatch(t, []string{"g1", "g2"}, s.GuildIDs())
}

func TestConcurrentMutationsAreNotLost(t *testing.T) {
	s, _ := newStorage(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.SetUserLanguage("g1", string(rune('a'+i)), "en")
		}(i)
	}
	wg.Wait()

	r, err := s.Record("g1")
	require.NoError(t, err)
	assert.Len(t, r.Users, 20)
}
