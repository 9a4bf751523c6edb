// Package ftppath maintains the virtual current working directory of
// an FTP session as a stack of path components, mirroring
// original_source/src/filesystem_tools.{h,cpp}'s directory_iterator_c.
package ftppath

import (
	"os"
	"path/filepath"
	"strings"
)

// Navigator tracks one session's virtual CWD as a sequence of
// directory-name components anchored at Root. The sequence never
// contains "." or ".."; those are resolved as they are applied.
type Navigator struct {
	Root  string // absolute host path anchoring this navigator, immutable
	stack []string
}

// New creates a Navigator anchored at root, starting at the root
// directory (empty stack). Root is normalized to always carry a
// trailing separator, mirroring
// original_source/src/filesystem_tools.cpp's rebuild_path (every
// root_path the source builds — via set_root and
// ftp_server.cpp's m_home_dir — ends in PATH_SLASH_TYPE), so that
// AbsolutePath's plain string concatenation with a command argument
// never runs two path segments together.
func New(root string) *Navigator {
	if root != "" && !strings.HasSuffix(root, string(filepath.Separator)) {
		root += string(filepath.Separator)
	}
	return &Navigator{Root: root}
}

// SplitPath yields the non-empty substrings between runs of '/' or
// '\\'; consecutive separators collapse and leading/trailing
// separators are dropped.
func SplitPath(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '/' || r == '\\'
	})
	return parts
}

// Rebuild renders s as a host path: a leading separator if s itself
// started with '/', then each component followed by the platform
// separator. Rebuild is idempotent: Rebuild(Rebuild(p)) == Rebuild(p).
func Rebuild(s string) string {
	var b strings.Builder
	if strings.HasPrefix(s, "/") {
		b.WriteRune(filepath.Separator)
	}
	for _, part := range SplitPath(s) {
		b.WriteString(part)
		b.WriteRune(filepath.Separator)
	}
	return b.String()
}

// MoveToRoot empties the stack, resetting the navigator to Root.
func (n *Navigator) MoveToRoot() {
	n.stack = nil
}

// Pop removes the last component; a no-op at the root.
func (n *Navigator) Pop() {
	if len(n.stack) == 0 {
		return
	}
	n.stack = n.stack[:len(n.stack)-1]
}

// PushChild appends name as a new deepest component.
func (n *Navigator) PushChild(name string) {
	n.stack = append(n.stack, name)
}

// AbsolutePath renders the current virtual CWD as a host-absolute
// path: Root, joined with each stack component and a trailing
// separator when the stack is non-empty.
func (n *Navigator) AbsolutePath() string {
	if len(n.stack) == 0 {
		return n.Root
	}
	return n.Root + n.relativeJoin()
}

// RelativePath renders the current virtual CWD as the client-visible
// path relative to Root: joined components with a trailing separator,
// or "" at the root.
func (n *Navigator) RelativePath() string {
	if len(n.stack) == 0 {
		return ""
	}
	return n.relativeJoin()
}

func (n *Navigator) relativeJoin() string {
	var b strings.Builder
	for _, c := range n.stack {
		b.WriteString(c)
		b.WriteRune(filepath.Separator)
	}
	return b.String()
}

// ChangeDir applies a relative or absolute move: split rel on '/' or
// '\\', resolve ".." as Pop and anything else as PushChild, with an
// atomic precondition — the resulting host-absolute path must exist
// as a directory, checked via statIsDir before any mutation. If the
// check fails, the navigator is left unchanged and an error-shaped
// false is returned.
func (n *Navigator) ChangeDir(rel string) bool {
	candidate := append([]string(nil), n.stack...)
	for _, part := range SplitPath(rel) {
		if part == ".." {
			if len(candidate) > 0 {
				candidate = candidate[:len(candidate)-1]
			}
			continue
		}
		candidate = append(candidate, part)
	}
	target := n.Root
	if len(candidate) > 0 {
		var b strings.Builder
		for _, c := range candidate {
			b.WriteString(c)
			b.WriteRune(filepath.Separator)
		}
		target = n.Root + b.String()
	}
	if !statIsDir(target) {
		return false
	}
	n.stack = candidate
	return true
}

func statIsDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
