package pipeline

import (
	"bufio"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// DiffDocument accumulates diff fragments in file order. The drafter only
// appends; the verifier is the one stage allowed to replace the document
// wholesale.
type DiffDocument struct {
	fragments []string
}

func (d *DiffDocument) Append(fragment string) {
	fragment = strings.TrimRight(fragment, "\n")
	if strings.TrimSpace(fragment) == "" {
		return
	}
	d.fragments = append(d.fragments, fragment)
}

func (d *DiffDocument) Empty() bool { return len(d.fragments) == 0 }

func (d *DiffDocument) Fragments() int { return len(d.fragments) }

// String renders the document as a single unified-diff text.
func (d *DiffDocument) String() string {
	if len(d.fragments) == 0 {
		return ""
	}
	return strings.Join(d.fragments, "\n") + "\n"
}

// Paths returns the sorted set of files touched by the document.
func (d *DiffDocument) Paths() []string {
	seen := map[string]struct{}{}
	scanner := bufio.NewScanner(strings.NewReader(d.String()))
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "+++") {
			continue
		}
		path := strings.TrimSpace(strings.TrimPrefix(line, "+++"))
		path = strings.TrimPrefix(path, "b/")
		if path == "" || path == "/dev/null" {
			continue
		}
		seen[filepath.ToSlash(path)] = struct{}{}
	}
	paths := make([]string, 0, len(seen))
	for p := range seen {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// fencedDiffRegex matches a fenced code block labeled bash, diff or patch,
// which is how the model is instructed to wrap its diff output.
var fencedDiffRegex = regexp.MustCompile("(?s)```(?:bash|diff|patch)?[ \t]*\n(.*?)\n[ \t]*```")

// ExtractDiffFence pulls the diff text out of a model reply. Replies are
// expected to wrap the diff in a triple-backtick fence; as a fallback a bare
// reply that already starts like a diff is accepted as-is.
func ExtractDiffFence(reply string) string {
	if m := fencedDiffRegex.FindStringSubmatch(reply); m != nil {
		return strings.TrimRight(m[1], "\n")
	}
	trimmed := strings.TrimSpace(reply)
	for _, prefix := range []string{"diff --git ", "--- "} {
		if idx := strings.Index(trimmed, prefix); idx == 0 {
			return trimmed
		}
	}
	return ""
}

// NormalizeFragment recomputes the hunk headers of a single-file diff
// fragment against the file's current content. Models routinely emit correct
// hunk bodies under misnumbered @@ headers; matching the hunk's context and
// removed lines back to the source recovers usable headers. Returns an error
// when a hunk's target block cannot be located, in which case the caller
// keeps the raw fragment.
func NormalizeFragment(fragment, path, source string) (string, error) {
	hunks := parseHunks(strings.Split(fragment, "\n"))
	if len(hunks) == 0 {
		return "", fmt.Errorf("fragment for %s has no hunks", path)
	}
	sourceLines := strings.Split(source, "\n")

	var out strings.Builder
	fmt.Fprintf(&out, "--- a/%s\n", path)
	fmt.Fprintf(&out, "+++ b/%s\n", path)

	offset := 0
	for _, hunk := range hunks {
		target := hunkTargetBlock(hunk)
		oldStart := matchBlock(sourceLines, target)
		if oldStart == -1 {
			return "", fmt.Errorf("no matching block in %s for hunk", path)
		}
		// Blank leading lines are invisible to the matcher but still occupy
		// old-file positions ahead of the matched block.
		oldStart -= leadingBlankLines(hunk)
		if oldStart < 1 {
			oldStart = 1
		}

		addCount, removeCount := 0, 0
		for _, line := range hunk {
			switch {
			case strings.HasPrefix(line, "+"):
				addCount++
			case strings.HasPrefix(line, "-"):
				removeCount++
			}
		}
		contextCount := len(hunk) - addCount - removeCount
		oldLines := contextCount + removeCount
		newLines := contextCount + addCount

		fmt.Fprintf(&out, "@@ -%d,%d +%d,%d @@\n", oldStart, oldLines, oldStart+offset, newLines)
		for _, line := range hunk {
			out.WriteString(line)
			out.WriteByte('\n')
		}
		offset += newLines - oldLines
	}
	return strings.TrimRight(out.String(), "\n"), nil
}

// parseHunks splits a unified diff into hunk bodies, dropping file headers
// and @@ lines.
func parseHunks(diffLines []string) [][]string {
	var hunks [][]string
	var current []string
	for _, line := range diffLines {
		switch {
		case strings.HasPrefix(line, "diff "), strings.HasPrefix(line, "index "),
			strings.HasPrefix(line, "---"), strings.HasPrefix(line, "+++"):
			continue
		case strings.HasPrefix(line, "@@"):
			if len(current) > 0 {
				hunks = append(hunks, current)
			}
			current = nil
		case strings.HasPrefix(line, "+"), strings.HasPrefix(line, "-"), strings.HasPrefix(line, " "):
			current = append(current, line)
		}
	}
	if len(current) > 0 {
		hunks = append(hunks, current)
	}
	return hunks
}

// leadingBlankLines counts the blank context and removal lines at the top of
// a hunk, which precede the first line the matcher can anchor on.
func leadingBlankLines(hunk []string) int {
	n := 0
	for _, line := range hunk {
		if !strings.HasPrefix(line, " ") && !strings.HasPrefix(line, "-") {
			break
		}
		if strings.TrimSpace(line[1:]) != "" {
			break
		}
		n++
	}
	return n
}

// hunkTargetBlock keeps only the lines guaranteed to exist in the original
// file (context and removals), skipping blank lines so matching tolerates
// whitespace-only drift.
func hunkTargetBlock(hunk []string) []string {
	var block []string
	for _, line := range hunk {
		if strings.HasPrefix(line, "-") || strings.HasPrefix(line, " ") {
			content := line[1:]
			if strings.TrimSpace(content) != "" {
				block = append(block, content)
			}
		}
	}
	return block
}

func normalizeForMatch(line string) string {
	return strings.Join(strings.Fields(line), " ")
}

// matchBlock locates block within source, comparing whitespace-normalized
// non-empty lines, and returns the 1-based original line number of the match
// or -1.
func matchBlock(source, block []string) int {
	if len(block) == 0 {
		return -1
	}
	normalized := make([]string, len(block))
	for i, line := range block {
		normalized[i] = normalizeForMatch(line)
	}

	var filtered []string
	var lineNumbers []int
	for i, line := range source {
		n := normalizeForMatch(line)
		if n != "" {
			filtered = append(filtered, n)
			lineNumbers = append(lineNumbers, i+1)
		}
	}

	for i := 0; i+len(normalized) <= len(filtered); i++ {
		match := true
		for j := range normalized {
			if filtered[i+j] != normalized[j] {
				match = false
				break
			}
		}
		if match {
			return lineNumbers[i]
		}
	}
	return -1
}
