// Package localsrc collects indexable files from a local directory tree.
// It is the local counterpart to fetching a repository's contents from
// GitHub: both produce a path to content mapping for the indexer.
package localsrc

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// workItem is one directory waiting to be listed.
type workItem struct {
	abs string
	rel string
}

// Collect walks the tree rooted at root and returns the path to content
// mapping plus the number of skipped files. Paths in the mapping are
// relative to root and always use forward slashes.
//
// Dotfiles and dot-directories (including .git) are excluded outright.
// Files larger than maxFileBytes, binary files, and unreadable files are
// skipped individually with a warning. The traversal uses an explicit
// work queue, so directory depth never grows the call stack.
func Collect(ctx context.Context, root string, maxFileBytes int64, logger *slog.Logger) (map[string][]byte, int, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, 0, fmt.Errorf("resolving root: %w", err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, 0, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, 0, fmt.Errorf("root path is not a directory: %s", absRoot)
	}

	files := make(map[string][]byte)
	skipped := 0

	queue := []workItem{{abs: absRoot}}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, skipped, err
		}

		item := queue[0]
		queue = queue[1:]

		entries, err := os.ReadDir(item.abs)
		if err != nil {
			logger.Warn("skipping unreadable directory", "path", item.rel, "error", err)
			continue
		}

		for _, entry := range entries {
			name := entry.Name()
			if strings.HasPrefix(name, ".") {
				continue
			}

			rel := name
			if item.rel != "" {
				rel = item.rel + "/" + name
			}
			abs := filepath.Join(item.abs, name)

			if entry.IsDir() {
				queue = append(queue, workItem{abs: abs, rel: rel})
				continue
			}

			if !entry.Type().IsRegular() {
				continue
			}

			fi, err := entry.Info()
			if err != nil {
				continue
			}

			if maxFileBytes > 0 && fi.Size() > maxFileBytes {
				logger.Warn("skipping oversized file", "path", rel, "size", fi.Size())
				skipped++
				continue
			}

			if isBinary(abs) {
				logger.Warn("skipping binary file", "path", rel)
				skipped++
				continue
			}

			data, err := os.ReadFile(abs)
			if err != nil {
				logger.Warn("skipping unreadable file", "path", rel, "error", err)
				skipped++
				continue
			}

			files[rel] = data
		}
	}

	return files, skipped, nil
}

// isBinary checks if a file is binary by looking for null bytes in its
// first 512 bytes.
func isBinary(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil {
		return false
	}

	return bytes.Contains(buf[:n], []byte{0})
}
