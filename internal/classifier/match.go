package classifier

import (
	"path"
	"path/filepath"
	"strings"
)

const (
	pathPrefix      = "path:"
	lexicalPrefix   = "lexical:"
	functionPrefix  = "syntactic:function:"
	decoratorPrefix = "syntactic:decorator:"
	fallbackPrefix  = "syntactic:fallback:"

	deletedSignal = "file deleted"
)

// matchPath returns the names of the path rules matching a directory segment of
// filePath. The file name itself is not a directory and is never matched.
func (r *RuleSet) matchPath(filePath string) []string {
	dir := path.Dir(filepath.ToSlash(filePath))
	if dir == "." || dir == "/" {
		return nil
	}

	var matched []string
	segments := strings.Split(dir, "/")
	for _, rule := range r.Paths {
		for _, segment := range segments {
			if segment != "" && rule.Segment.MatchString(segment) {
				matched = append(matched, rule.Name)
				break
			}
		}
	}
	return matched
}

// matchLexical runs the keyword list and then the pattern table against text.
// Keywords match case-insensitively as substrings and report the keyword; patterns
// report the first text they matched. Duplicate matches are reported once.
func (r *RuleSet) matchLexical(text string) []string {
	if text == "" {
		return nil
	}

	var matches []string
	seen := make(map[string]bool)
	add := func(m string) {
		if m != "" && !seen[m] {
			seen[m] = true
			matches = append(matches, m)
		}
	}

	lower := strings.ToLower(text)
	for _, keyword := range r.Keywords {
		if keyword != "" && strings.Contains(lower, strings.ToLower(keyword)) {
			add(strings.ToLower(keyword))
		}
	}

	for _, rule := range r.Patterns {
		if m := rule.Pattern.FindString(text); m != "" {
			add(strings.Join(strings.Fields(m), " "))
		}
	}
	return matches
}

// matchName reports whether a declaration or decorator name matches any name rule
func (r *RuleSet) matchName(name string) bool {
	if name == "" {
		return false
	}
	for _, rule := range r.Names {
		if rule.Pattern.MatchString(name) {
			return true
		}
	}
	return false
}

func prefixed(prefix string, values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, prefix+v)
	}
	return out
}
