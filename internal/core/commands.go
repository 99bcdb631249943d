package core

import (
	"strings"

	"github.com/singiamtel/PS-cord/internal/highlight"
	"github.com/singiamtel/PS-cord/internal/proto"
)

// handleClientCommand intercepts outgoing slash commands. It reports whether
// the line was consumed locally. Must hold e.mu.
func (e *Engine) handleClientCommand(text string, internal bool) bool {
	if !strings.HasPrefix(text, "/") {
		return false
	}
	fields := strings.Split(text, " ")
	switch fields[0][1:] {
	case "highlight", "hl":
		e.highlightCommand(fields[1:])
		return true
	case "j", "join":
		if !internal && len(fields) > 1 {
			e.autoSelect = proto.ToID(strings.Join(fields[1:], ""))
		}
		return false
	default:
		return false
	}
}

func (e *Engine) highlightCommand(args []string) {
	if len(args) == 0 {
		e.log.Warn().Msg("highlight command without subcommand")
		return
	}
	sub, words := args[0], args[1:]
	scope := highlight.GlobalScope
	if strings.HasPrefix(sub, "room") {
		scope = e.selected
	}

	switch sub {
	case "add", "roomadd":
		for _, w := range words {
			e.hl.SetWords(scope, e.settings.AddHighlightWord(scope, w))
		}
		e.logToSelected(`Added "` + strings.Join(words, " ") + `" to highlight list`)
	case "delete", "roomdelete":
		for _, w := range words {
			e.settings.RemoveHighlightWord(scope, w)
		}
		e.hl.SetWords(scope, e.settings.HighlightWords(scope))
		e.logToSelected(`Deleted "` + strings.Join(words, " ") + `" from highlight list`)
	case "list", "roomlist":
		list := e.settings.HighlightWords(scope)
		if len(list) == 0 {
			e.logToSelected("Your highlight list is empty")
			return
		}
		e.logToSelected("Current highlight list: " + strings.Join(list, ", "))
	case "clear", "roomclear":
		e.settings.ClearHighlightWords(scope)
		e.hl.SetWords(scope, nil)
		e.logToSelected("Cleared highlight list")
	default:
		e.log.Warn().Str("subcommand", sub).Msg("unknown highlight subcommand")
	}
}
