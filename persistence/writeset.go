// persistence/writeset.go
package persistence

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/wfunc/escaperoom/game"
)

// ApplyPaths folds a write-set into a room document in place. Paths are
// applied in sorted order so the result is deterministic; a write-set must
// not contain both a path and one of its ancestors. Intermediate maps are
// created (or replaced) as needed, matching partial-update semantics of a
// document store.
func ApplyPaths(doc map[string]any, ws game.WriteSet) error {
	paths := make([]string, 0, len(ws))
	for path := range ws {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		value, err := normalizeValue(ws[path])
		if err != nil {
			return fmt.Errorf("write-set value for %s: %w", path, err)
		}
		setPath(doc, strings.Split(path, "."), value)
	}
	return nil
}

func setPath(doc map[string]any, segments []string, value any) {
	current := doc
	for _, segment := range segments[:len(segments)-1] {
		next, ok := current[segment].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[segment] = next
		}
		current = next
	}
	current[segments[len(segments)-1]] = value
}

// normalizeValue reduces any Go value to the plain JSON shapes a document
// map holds (map[string]any, []any, float64, string, bool, nil), so typed
// structs written by the engine round-trip the same way as stored data.
func normalizeValue(value any) (any, error) {
	switch value.(type) {
	case nil, string, bool, float64:
		return value, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
