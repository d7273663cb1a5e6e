// Package sanitize maps arbitrary text to filesystem-safe names.
//
// Two variants exist because folder-path templates may legitimately contain
// the path separator while individual file names may not. Both variants
// strip invisible Unicode characters entirely (no replacement character),
// so re-applying sanitization is a no-op.
package sanitize

import "regexp"

// Replacement substitutes each illegal character.
const Replacement = "-"

var (
	// Reserved on Windows: <>:"/\|?* plus control characters; / is also
	// reserved on Unix-like systems.
	illegalFile   = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1F]`)
	illegalFolder = regexp.MustCompile(`[<>:"\\|?*\x00-\x1F]`)

	// Zero-width and other invisible characters (soft hyphen, combining
	// grapheme joiner, zero-width space family, directional marks, word
	// joiner family, BOM). Stripped, not replaced.
	invisible = regexp.MustCompile("[\u00AD\u034F\u061C\u115F\u1160\u17B4\u17B5\u180E\u200B-\u200F\u202A-\u202E\u2060-\u2064\u206A-\u206F\u3164\uFEFF\uFFA0]")
)

// FileName replaces characters illegal in a file or folder segment name.
func FileName(s string) string {
	return invisible.ReplaceAllString(illegalFile.ReplaceAllString(s, Replacement), "")
}

// FolderPath replaces characters illegal in a folder path, keeping the
// path separator so multi-segment templated folders stay intact.
func FolderPath(s string) string {
	return invisible.ReplaceAllString(illegalFolder.ReplaceAllString(s, Replacement), "")
}
