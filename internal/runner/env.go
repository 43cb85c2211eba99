package runner

import (
	"sort"
	"strings"
)

// MergeEnv returns base with overrides applied. Keys present in overrides
// replace the inherited value in place; new keys are appended in sorted
// order. Keys missing from overrides keep their inherited value. Entries
// of base without a key are passed through untouched.
func MergeEnv(base []string, overrides map[string]string) []string {
	if len(overrides) == 0 {
		return append([]string(nil), base...)
	}

	keys := make(map[string]string, len(overrides)) // folded -> as given
	for k := range overrides {
		keys[envKey(k)] = k
	}

	out := make([]string, 0, len(base)+len(overrides))
	replaced := make(map[string]bool, len(overrides))
	for _, kv := range base {
		k, _, ok := strings.Cut(kv, "=")
		// Windows carries hidden entries such as "=C:=C:\"; their key is empty.
		if !ok || k == "" {
			out = append(out, kv)
			continue
		}
		folded := envKey(k)
		orig, overridden := keys[folded]
		if !overridden {
			out = append(out, kv)
			continue
		}
		if replaced[folded] {
			continue
		}
		replaced[folded] = true
		out = append(out, orig+"="+overrides[orig])
	}

	added := make([]string, 0, len(keys)-len(replaced))
	for folded, orig := range keys {
		if !replaced[folded] {
			added = append(added, orig)
		}
	}
	sort.Strings(added)
	for _, k := range added {
		out = append(out, k+"="+overrides[k])
	}
	return out
}

// validEnvKey reports whether k can be passed to the OS as a variable name.
func validEnvKey(k string) bool {
	return k != "" && !strings.ContainsAny(k, "=\x00")
}
