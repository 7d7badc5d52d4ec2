package invalidation

import (
	"encoding/json"
	"fmt"

	"graphql-cascade/internal/cascade"
)

// Dedupe removes duplicate hints, keeping the first occurrence. Two hints
// are duplicates when query name, pattern, strategy, scope, and arguments
// (compared by canonical JSON) all match.
func Dedupe(hints []cascade.Hint) []cascade.Hint {
	seen := make(map[string]struct{}, len(hints))
	out := make([]cascade.Hint, 0, len(hints))
	for _, h := range hints {
		k := hintKey(h)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, h)
	}
	return out
}

func hintKey(h cascade.Hint) string {
	args := ""
	if len(h.Arguments) > 0 {
		// encoding/json sorts map keys, which makes this canonical.
		if b, err := json.Marshal(h.Arguments); err == nil {
			args = string(b)
		} else {
			args = fmt.Sprint(h.Arguments)
		}
	}
	return h.QueryName + "\x00" + h.QueryPattern + "\x00" + string(h.Strategy) + "\x00" + string(h.Scope) + "\x00" + args
}
