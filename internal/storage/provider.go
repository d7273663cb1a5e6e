// Package storage defines the vault file-system abstraction.
package storage

import (
	"github.com/starford/raido/internal/frontmatter"
	"github.com/starford/raido/internal/models"
)

// Provider is the interface for vault file operations. All paths are
// relative to the vault root.
type Provider interface {
	// List returns metadata for every .md file under dir.
	List(dir string) ([]models.FileMeta, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Exists reports whether a file or directory exists at path.
	Exists(path string) (bool, error)
	// Write atomically writes content to path, creating parents.
	Write(path string, content []byte) error
	// Create writes content to a path that must not exist yet. A file
	// appearing between an existence check and Create surfaces as an
	// error wrapping fs.ErrExist.
	Create(path string, content []byte) error
	// EnsureDir creates dir and its parents when absent.
	EnsureDir(dir string) error
	// Delete removes the file at path.
	Delete(path string) error
	// Move renames oldPath to newPath.
	Move(oldPath, newPath string) error
	// ProcessFrontMatter reads the file at path, hands its front matter
	// record to fn for mutation, and writes the file back.
	ProcessFrontMatter(path string, fn func(*frontmatter.Record) error) error
}
