package storage

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"
)

// SanitizeFilename keeps letters, digits, '-', '_' and '.', replaces every
// other rune with '_' and drops leading dots. An empty result becomes
// fallback.
func SanitizeFilename(name, fallback string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "/" || name == "." {
		name = ""
	}
	clean := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, name)
	clean = strings.TrimLeft(clean, ".")
	if clean == "" {
		return fallback
	}
	return clean
}

// UniqueName returns name, or name with a "_2", "_3", ... suffix before the
// extension, whichever does not yet exist in dir.
func UniqueName(dir, name string) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	candidate := name
	for i := 2; ; i++ {
		if _, err := os.Lstat(filepath.Join(dir, candidate)); os.IsNotExist(err) {
			return candidate
		}
		candidate = stem + "_" + strconv.Itoa(i) + ext
	}
}
