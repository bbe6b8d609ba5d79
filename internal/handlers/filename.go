package handlers

import (
	"path/filepath"
	"strings"
)

// secureFilename reduces a client-supplied filename to a safe flat name:
// path components are stripped and anything outside [A-Za-z0-9._-] becomes
// an underscore. Returns "" when nothing usable remains.
func secureFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	cleaned := strings.TrimLeft(b.String(), ".-")
	if strings.Trim(cleaned, "._-") == "" {
		return ""
	}
	return cleaned
}
