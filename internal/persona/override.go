package persona

import (
	"strings"

	"github.com/tarka-io/raas/internal/debug"

	"github.com/tarka-io/raas/internal/types"
)

// settingsKey is where the override lives inside an organization's
// loosely typed settings blob. Expected shape (YAML or JSON decoded into
// map[string]any):
//
//	persona_matrix:
//	  "draft->review": [developer, product_owner]
//	  "review->approved": [enterprise_architect]
const settingsKey = "persona_matrix"

// ParseOverride extracts a partial matrix from an organization settings
// blob. Malformed entries — unparseable keys, unknown statuses or
// personas, wrong value shapes — are logged and skipped individually so a
// single bad entry never disables the rest of the matrix. A nil or
// override-free blob yields an empty matrix.
func ParseOverride(orgSettings map[string]any) Matrix {
	out := Matrix{}
	if orgSettings == nil {
		return out
	}
	raw, ok := orgSettings[settingsKey]
	if !ok {
		return out
	}

	entries, ok := asEntryMap(raw)
	if !ok {
		debug.Warnf("persona: %s override is not a mapping, ignoring", settingsKey)
		return out
	}

	for key, value := range entries {
		transition, ok := parseTransitionKey(key)
		if !ok {
			debug.Warnf("persona: invalid %s entry %q: bad transition key, skipping", settingsKey, key)
			continue
		}
		personas, ok := parsePersonaList(value)
		if !ok {
			debug.Warnf("persona: invalid %s entry %q: bad persona list, skipping", settingsKey, key)
			continue
		}
		out[transition] = personas
	}
	return out
}

func asEntryMap(raw any) (map[string]any, bool) {
	switch m := raw.(type) {
	case map[string]any:
		return m, true
	case map[string][]string:
		// Convenience for callers constructing settings in Go.
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[k] = v
		}
		return out, true
	default:
		return nil, false
	}
}

func parseTransitionKey(key string) (Transition, bool) {
	parts := strings.Split(key, "->")
	if len(parts) != 2 {
		return Transition{}, false
	}
	from, err := types.ParseLifecycleStatus(parts[0])
	if err != nil {
		return Transition{}, false
	}
	to, err := types.ParseLifecycleStatus(parts[1])
	if err != nil {
		return Transition{}, false
	}
	return Transition{From: from, To: to}, true
}

func parsePersonaList(value any) (Set, bool) {
	var items []string
	switch v := value.(type) {
	case []string:
		items = v
	case []any:
		for _, elem := range v {
			s, ok := elem.(string)
			if !ok {
				return nil, false
			}
			items = append(items, s)
		}
	default:
		return nil, false
	}

	set := Set{}
	for _, item := range items {
		p, err := types.ParsePersona(item)
		if err != nil {
			return nil, false
		}
		set[p] = struct{}{}
	}
	return set, true
}
