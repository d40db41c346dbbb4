package paths

import "strings"

// ExcludeMatcher rejects relative paths that contain one of its
// components. Matching is literal and per component: "node_modules"
// excludes "a/node_modules/b" but not "a/node_modules.bak".
type ExcludeMatcher struct {
	components map[string]struct{}
}

func NewExcludeMatcher(components []string) *ExcludeMatcher {
	set := make(map[string]struct{}, len(components))
	for _, c := range components {
		set[c] = struct{}{}
	}
	return &ExcludeMatcher{components: set}
}

// Match reports whether any slash-separated component of relPath is in
// the exclusion set.
func (m *ExcludeMatcher) Match(relPath string) bool {
	if len(m.components) == 0 {
		return false
	}
	for _, part := range strings.Split(relPath, "/") {
		if _, ok := m.components[part]; ok {
			return true
		}
	}
	return false
}

func (m *ExcludeMatcher) Len() int {
	return len(m.components)
}
