// Package highlight compiles watch-word lists into per-scope matchers and
// decides whether a message should notify the local user.
package highlight

import (
	"strings"
	"sync"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/rs/zerolog"

	"github.com/singiamtel/PS-cord/internal/proto"
)

// GlobalScope holds the words that highlight in every room.
const GlobalScope = "global"

// matchTimeout bounds a single match against a user-supplied pattern.
const matchTimeout = 100 * time.Millisecond

const regexMeta = `\^$.|?*+()[]{}`

// Engine keeps the word lists and their lazily compiled matchers.
type Engine struct {
	mu       sync.Mutex
	words    map[string][]string
	compiled map[string]*regexp2.Regexp
	username string
	userID   string
	epoch    uint64
	log      *zerolog.Logger
}

// New creates an engine with no words and no identity.
func New(logger *zerolog.Logger) *Engine {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Engine{
		words:    make(map[string][]string),
		compiled: make(map[string]*regexp2.Regexp),
		log:      logger,
	}
}

// SetWords replaces the word list of a scope and drops its matcher.
func (e *Engine) SetWords(scope string, words []string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.words[scope] = append([]string(nil), words...)
	delete(e.compiled, scope)
}

// Words returns a copy of the word list of a scope.
func (e *Engine) Words(scope string) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.words[scope]...)
}

// SetUsername changes the local identity. Every matcher is invalidated and
// the identity epoch advances so cached message flags go stale.
func (e *Engine) SetUsername(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.username == name {
		return
	}
	e.username = name
	e.userID = proto.ToID(name)
	e.compiled = make(map[string]*regexp2.Regexp)
	e.epoch++
}

// Epoch identifies the identity the current matchers were built for.
func (e *Engine) Epoch() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.epoch
}

// Match reports whether text matches the room scope or the global scope.
func (e *Engine) Match(scope, text string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.matchScope(scope, text) {
		return true
	}
	if scope == GlobalScope {
		return false
	}
	return e.matchScope(GlobalScope, text)
}

// IsHighlight is Match with self-authored messages exempted.
func (e *Engine) IsHighlight(scope, author, text string) bool {
	e.mu.Lock()
	self := e.userID != "" && proto.ToID(author) == e.userID
	e.mu.Unlock()
	if self {
		return false
	}
	return e.Match(scope, text)
}

func (e *Engine) matchScope(scope, text string) bool {
	re, ok := e.compiled[scope]
	if !ok {
		re = e.compile(scope)
		e.compiled[scope] = re
	}
	if re == nil {
		return false
	}
	matched, err := re.MatchString(text)
	if err != nil {
		e.log.Warn().Err(err).Str("scope", scope).Msg("highlight match failed")
		return false
	}
	return matched
}

// compile must be called with e.mu held. A nil result matches nothing.
func (e *Engine) compile(scope string) *regexp2.Regexp {
	alternatives := make([]string, 0, len(e.words[scope])+1)
	for _, w := range e.words[scope] {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		if !isPattern(w) {
			alternatives = append(alternatives, wordPattern(w))
			continue
		}
		if _, err := regexp2.Compile(w, regexp2.IgnoreCase); err != nil {
			e.log.Warn().Err(err).Str("scope", scope).Str("word", w).Msg("skipping invalid highlight pattern")
			continue
		}
		alternatives = append(alternatives, "(?:"+w+")")
	}
	if e.username != "" {
		alternatives = append(alternatives, wordPattern(e.username))
	}
	if len(alternatives) == 0 {
		return nil
	}

	re, err := regexp2.Compile(strings.Join(alternatives, "|"), regexp2.IgnoreCase)
	if err != nil {
		e.log.Warn().Err(err).Str("scope", scope).Msg("compile highlight matcher")
		return nil
	}
	re.MatchTimeout = matchTimeout
	return re
}

func isPattern(w string) bool {
	return strings.ContainsAny(w, regexMeta)
}

func wordPattern(w string) string {
	return `(?<![A-Za-z0-9])` + regexp2.Escape(w) + `(?![A-Za-z0-9])`
}
