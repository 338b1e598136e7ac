// Package docs renders the Markdown command reference from the command registry.
package docs

import (
	"io"
	"sort"
	"strings"
	"text/template"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/whisperling/internal/command"
	"github.com/keshon/whisperling/internal/config"
)

var referenceTmpl = template.Must(template.New("reference").Parse(
	`{{range .}}### {{.Name}}
{{range .Entries}}
- **{{.Display}}** {{.Description}}{{if .Admin}} _(admin)_{{end}}{{range .Subcommands}}
  - ` + "`{{.}}`" + `{{end}}{{end}}

{{end}}`))

type entry struct {
	Display     string
	Description string
	Admin       bool
	Subcommands []string
}

type section struct {
	Name    string
	Entries []entry
}

// WriteReference writes commands grouped by category, ordered by config.CategoryWeights.
func WriteReference(w io.Writer, cmds []command.DiscordCommand) error {
	byCat := make(map[string][]command.DiscordCommand)
	for _, c := range cmds {
		byCat[c.Category()] = append(byCat[c.Category()], c)
	}
	cats := make([]string, 0, len(byCat))
	for cat := range byCat {
		cats = append(cats, cat)
	}
	sort.Slice(cats, func(i, j int) bool {
		wi, wj := config.CategoryWeights[cats[i]], config.CategoryWeights[cats[j]]
		if wi != wj {
			return wi < wj
		}
		return cats[i] < cats[j]
	})

	sections := make([]section, 0, len(cats))
	for _, cat := range cats {
		list := byCat[cat]
		sort.Slice(list, func(i, j int) bool { return list[i].Name() < list[j].Name() })
		s := section{Name: cat}
		for _, c := range list {
			s.Entries = append(s.Entries, entryOf(c))
		}
		sections = append(sections, s)
	}
	return referenceTmpl.Execute(w, sections)
}

func entryOf(c command.DiscordCommand) entry {
	e := entry{Display: c.Name(), Description: c.Description(), Admin: len(c.UserPermissions()) > 0}
	sp, ok := c.(command.SlashProvider)
	if !ok {
		if _, menu := c.(command.ContextMenuProvider); menu {
			e.Display += " (message menu)"
		}
		return e
	}
	e.Display = "/" + e.Display
	if def := sp.SlashDefinition(); def != nil {
		for _, o := range def.Options {
			if o.Type == discordgo.ApplicationCommandOptionSubCommand {
				e.Subcommands = append(e.Subcommands, strings.TrimSpace(def.Name+" "+o.Name))
			}
		}
	}
	return e
}
