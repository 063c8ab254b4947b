package render

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sharpness/sharpgen/contract"
)

// AsyncSuffix marks asynchronous endpoint names.
const AsyncSuffix = "Async"

// StripAsync removes a trailing "Async" from an endpoint name.
func StripAsync(name string) string {
	if trimmed := strings.TrimSuffix(name, AsyncSuffix); trimmed != "" {
		return trimmed
	}
	return name
}

// Camel lower-cases the first letter of s.
func Camel(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if n == 0 {
		return s
	}
	return string(unicode.ToLower(r)) + s[n:]
}

// Pascal upper-cases the first letter of s.
func Pascal(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if n == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[n:]
}

var placeholderRE = regexp.MustCompile(`\{([^{}]+)\}`)

// RouteURL joins route fragments into an absolute URL template. Slashes at
// fragment edges are trimmed and empty fragments skipped. Each placeholder is
// replaced with placeholder(name), where name has its constraint, default
// and optional marker removed.
func RouteURL(routes []string, placeholder func(name string) string) string {
	parts := make([]string, 0, len(routes))
	for _, r := range routes {
		r = strings.Trim(r, "/")
		if r == "" {
			continue
		}
		parts = append(parts, placeholderRE.ReplaceAllStringFunc(r, func(m string) string {
			return placeholder(contract.RouteParam(m[1 : len(m)-1]))
		}))
	}
	return "/" + strings.Join(parts, "/")
}

// SortedNames returns the short names of ids, de-duplicated and sorted.
func SortedNames(ids []contract.Identity) []string {
	seen := make(map[string]bool, len(ids))
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id.Name] {
			seen[id.Name] = true
			names = append(names, id.Name)
		}
	}
	sort.Strings(names)
	return names
}

// SortedFields returns the fields of m ordered by declared name.
func SortedFields(m *contract.Model) []contract.Field {
	fields := append([]contract.Field(nil), m.Fields...)
	sort.SliceStable(fields, func(i, j int) bool {
		return fields[i].Name < fields[j].Name
	})
	return fields
}
