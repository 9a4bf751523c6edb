// Package ftpfs is the thin, host-neutral filesystem adapter the
// protocol engine uses to touch disk: stat, mkdir, unlink, recursive
// rmdir and directory enumeration. Grounded on
// original_source/src/filesystem_tools.cpp, re-expressed as a plain
// struct over os/* rather than dirent.h/Windows.h ifdefs.
package ftpfs

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Kind classifies a directory entry.
type Kind int

const (
	File Kind = iota
	Directory
	Other
)

// Stat describes the result of a stat call.
type Stat struct {
	Exists bool
	Kind   Kind
	Size   int64
	MTime  time.Time
}

// Entry is one non-dot member of an enumerated directory.
type Entry struct {
	Name  string
	Kind  Kind
	Size  int64
	MTime time.Time
}

// Filesystem is the local, os-backed implementation of the adapter.
// It carries no state; every method takes an absolute host path.
type Filesystem struct{}

// New returns a Filesystem backed by the local OS filesystem.
func New() *Filesystem {
	return &Filesystem{}
}

func trimTrailingSeparators(path string) string {
	return strings.TrimRight(path, "/\\")
}

func kindOf(info os.FileInfo) Kind {
	switch {
	case info.IsDir():
		return Directory
	case info.Mode().IsRegular():
		return File
	default:
		return Other
	}
}

// StatPath reports whether path exists, and if so its kind, size and
// modification time.
func (f *Filesystem) StatPath(path string) Stat {
	info, err := os.Stat(trimTrailingSeparators(path))
	if err != nil {
		return Stat{Exists: false}
	}
	return Stat{
		Exists: true,
		Kind:   kindOf(info),
		Size:   info.Size(),
		MTime:  info.ModTime(),
	}
}

// Mkdir creates path with mode 0777 (masked by umask, as on POSIX).
func (f *Filesystem) Mkdir(path string) error {
	return os.Mkdir(trimTrailingSeparators(path), 0777)
}

// UnlinkFile removes a single file.
func (f *Filesystem) UnlinkFile(path string) error {
	return os.Remove(trimTrailingSeparators(path))
}

// Rename moves oldPath to newPath.
func (f *Filesystem) Rename(oldPath, newPath string) error {
	return os.Rename(trimTrailingSeparators(oldPath), trimTrailingSeparators(newPath))
}

// Enumerate lists the non-dot entries of path, sorted by name (the
// order os.ReadDir returns), skipping names that start with '.'.
func (f *Filesystem) Enumerate(path string) ([]Entry, error) {
	dirEntries, err := os.ReadDir(trimTrailingSeparators(path))
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if strings.HasPrefix(de.Name(), ".") {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{
			Name:  de.Name(),
			Kind:  kindOf(info),
			Size:  info.Size(),
			MTime: info.ModTime(),
		})
	}
	return entries, nil
}

// RemoveDirRecursive removes path. It descends into subdirectories
// first, skipping dot-entries, and only unlinks regular files along
// the way when deleteFiles is true. With deleteFiles=false a directory
// that still holds a file cannot be removed, and the first such
// removal error is returned to the caller (unlike the original's
// remove_directory_r, which reports nothing); subdirectories already
// emptied before that point stay removed. Callers that want a clean
// recursive delete must pass deleteFiles=true; RMD passes false, so it
// replies 550 for a directory that still contains files.
func (f *Filesystem) RemoveDirRecursive(path string, deleteFiles bool) error {
	path = trimTrailingSeparators(path)
	entries, err := os.ReadDir(path)
	if err != nil {
		return err
	}
	for _, de := range entries {
		if strings.HasPrefix(de.Name(), ".") {
			continue
		}
		child := filepath.Join(path, de.Name())
		if de.IsDir() {
			if err := f.RemoveDirRecursive(child, deleteFiles); err != nil {
				return err
			}
			continue
		}
		if deleteFiles {
			if err := os.Remove(child); err != nil {
				return err
			}
		}
	}
	return os.Remove(path)
}
