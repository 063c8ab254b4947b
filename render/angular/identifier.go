package angular

import (
	"strconv"
	"strings"
	"unicode"
)

// TypeScript reserved words.
var reservedWords = map[string]bool{
	"break": true, "case": true, "catch": true, "class": true, "const": true,
	"continue": true, "debugger": true, "default": true, "delete": true, "do": true,
	"else": true, "enum": true, "export": true, "extends": true, "false": true,
	"finally": true, "for": true, "function": true, "if": true, "implements": true,
	"import": true, "in": true, "instanceof": true, "interface": true, "let": true,
	"new": true, "null": true, "package": true, "private": true, "protected": true,
	"public": true, "return": true, "static": true, "super": true, "switch": true,
	"this": true, "throw": true, "true": true, "try": true, "typeof": true,
	"var": true, "void": true, "while": true, "with": true, "yield": true,
}

// escapeReservedWord appends an underscore to reserved words.
func escapeReservedWord(name string) string {
	if reservedWords[name] {
		return name + "_"
	}
	return name
}

// validIdentifier reports whether name can be used unquoted.
func validIdentifier(name string) bool {
	if name == "" || unicode.IsDigit(rune(name[0])) {
		return false
	}
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '$' {
			return false
		}
	}
	return true
}

// propertyKey renders an interface property key, quoting it when needed.
// Reserved words are legal property keys.
func propertyKey(name string) string {
	if validIdentifier(name) {
		return name
	}
	return strconv.Quote(name)
}

// sanitizeIdentifier makes name usable as a parameter or method name.
func sanitizeIdentifier(name string) string {
	if name == "" {
		return "_"
	}

	var b strings.Builder
	if unicode.IsDigit(rune(name[0])) {
		b.WriteRune('_')
	}
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '$' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return escapeReservedWord(b.String())
}
