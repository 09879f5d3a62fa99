package pipeline

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/yargevad/filepathx"
)

// FileRecord is one flattened repository file. Records are immutable once
// read; every later pass consumes them in the same traversal order.
type FileRecord struct {
	Path    string
	Content string
	Lines   int
}

// FlattenOptions bounds what the flattener admits. Zero values fall back to
// the package defaults.
type FlattenOptions struct {
	// MaxFileLines truncates any single file beyond this many lines.
	MaxFileLines int
	// MaxTotalLines is the run-wide input ceiling. Exceeding it fails the
	// run with InputTooLargeError before any model call is issued.
	MaxTotalLines int
	// IgnoreGlobs are ** globs (relative to the repository root) whose
	// matches are excluded from the flattened sequence.
	IgnoreGlobs []string
}

const (
	defaultMaxFileLines  = 2000
	defaultMaxTotalLines = 20000
)

// skippedExtensions are never useful as model input even when their bytes
// happen to look like text.
var skippedExtensions = map[string]bool{
	".zip": true, ".gz": true, ".tar": true, ".jar": true,
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".ico": true,
	".pdf": true, ".woff": true, ".woff2": true, ".ttf": true,
	".exe": true, ".dll": true, ".so": true, ".dylib": true, ".wasm": true,
}

// Flatten walks the checked-out repository at root and returns every text
// file as a FileRecord, in lexical path order. Dot-prefixed entries and
// binary files are skipped; oversized files are truncated. When the total
// line count exceeds the ceiling the whole run is rejected rather than
// silently truncated into a corrupt context.
func Flatten(root string, opts FlattenOptions) ([]FileRecord, error) {
	if opts.MaxFileLines <= 0 {
		opts.MaxFileLines = defaultMaxFileLines
	}
	if opts.MaxTotalLines <= 0 {
		opts.MaxTotalLines = defaultMaxTotalLines
	}

	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		if err == nil {
			err = fs.ErrInvalid
		}
		return nil, &RepositoryAccessError{Root: root, Err: err}
	}

	ignored, err := expandIgnoreGlobs(root, opts.IgnoreGlobs)
	if err != nil {
		return nil, &RepositoryAccessError{Root: root, Err: err}
	}

	var records []FileRecord
	total := 0
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != root && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if ignored[path] || skippedExtensions[strings.ToLower(filepath.Ext(name))] {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			// Unreadable individual files are skipped, matching the
			// best-effort contract for flattening.
			return nil
		}
		if isBinary(data) {
			return nil
		}
		content, lines := truncateLines(string(data), opts.MaxFileLines)
		records = append(records, FileRecord{Path: rel, Content: content, Lines: lines})
		total += lines
		return nil
	})
	if walkErr != nil {
		return nil, &RepositoryAccessError{Root: root, Err: walkErr}
	}

	if total > opts.MaxTotalLines {
		return nil, &InputTooLargeError{Lines: total, Ceiling: opts.MaxTotalLines}
	}
	return records, nil
}

// expandIgnoreGlobs resolves ** patterns under root into a set of absolute
// paths to exclude.
func expandIgnoreGlobs(root string, globs []string) (map[string]bool, error) {
	ignored := make(map[string]bool)
	for _, g := range globs {
		g = strings.TrimSpace(g)
		if g == "" {
			continue
		}
		matches, err := filepathx.Glob(filepath.Join(root, g))
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			ignored[m] = true
		}
	}
	return ignored, nil
}

const sniffLen = 8000

func isBinary(data []byte) bool {
	sniff := data
	if len(sniff) > sniffLen {
		sniff = sniff[:sniffLen]
		// The cutoff can split a multibyte rune; drop the partial tail so a
		// valid text file never reads as invalid.
		for i := len(sniff) - 1; i >= 0 && i >= len(sniff)-utf8.UTFMax; i-- {
			if utf8.RuneStart(sniff[i]) {
				if !utf8.FullRune(sniff[i:]) {
					sniff = sniff[:i]
				}
				break
			}
		}
	}
	for _, b := range sniff {
		if b == 0 {
			return true
		}
	}
	return !utf8.Valid(sniff)
}

func truncateLines(content string, maxLines int) (string, int) {
	lines := strings.Count(content, "\n")
	if len(content) > 0 && !strings.HasSuffix(content, "\n") {
		lines++
	}
	if lines <= maxLines {
		return content, lines
	}
	parts := strings.SplitAfterN(content, "\n", maxLines+1)
	return strings.Join(parts[:maxLines], ""), maxLines
}
