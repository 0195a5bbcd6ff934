// Copyright © 2024 The Quill authors

package repl

import (
	"sort"
	"strings"
	"unicode"

	"github.com/luthersystems/quill/query"
)

// symbolCompleter implements readline.AutoCompleter from the names visible
// at module scope in the latest snapshot of the buffer.
type symbolCompleter struct {
	sess *session
}

func (c *symbolCompleter) Do(line []rune, pos int) ([][]rune, int) {
	// Extract the word being typed, backwards from the cursor.
	start := pos
	for start > 0 && isNameRune(line[start-1]) {
		start--
	}
	prefix := string(line[start:pos])

	var candidates []string
	if start == 1 && line[0] == ':' {
		candidates = c.collectCommands(prefix)
	} else {
		if prefix == "" {
			return nil, 0
		}
		candidates = c.collectSymbols(prefix)
	}
	if len(candidates) == 0 {
		return nil, 0
	}

	// Build completions: each entry is the suffix to append.
	result := make([][]rune, 0, len(candidates))
	for _, name := range candidates {
		result = append(result, []rune(name[len(prefix):]))
	}
	return result, len([]rune(prefix))
}

func isNameRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func (c *symbolCompleter) collectCommands(prefix string) []string {
	var result []string
	for name := range commands {
		if strings.HasPrefix(name, prefix) {
			result = append(result, name)
		}
	}
	sort.Strings(result)
	return result
}

func (c *symbolCompleter) collectSymbols(prefix string) []string {
	snap := c.sess.snapshot()
	if snap == nil {
		return nil
	}
	// The buffer ends with a newline so its last line is at module scope.
	pos := query.Position{Line: snap.LineCount(), Col: 1}
	seen := make(map[string]bool)
	var result []string
	for _, comp := range snap.Completions(pos, prefix) {
		if !seen[comp.Label] {
			seen[comp.Label] = true
			result = append(result, comp.Label)
		}
	}
	sort.Strings(result)
	return result
}
