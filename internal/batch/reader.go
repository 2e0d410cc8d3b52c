package batch

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Entry is one line of a practice file
type Entry struct {
	Line     int
	Text     string
	AudioURL string
	Surah    int
	Ayah     int
}

// ReadFile reads entries from a practice file.
// Supports formats:
// - Token only: "ب"
// - With a verse: "بسم = 1:1"
// - With an explicit recording: "الله = https://example.org/allah.mp3"
// Blank lines and lines starting with '#' are skipped.
func ReadFile(filename string) ([]Entry, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	defer f.Close()

	return Read(f)
}

// Read parses entries from r
func Read(r io.Reader) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)

	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		entry, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		entry.Line = n
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}

	return entries, nil
}

func parseLine(line string) (Entry, error) {
	text, ref, found := strings.Cut(line, "=")
	entry := Entry{Text: strings.TrimSpace(text)}
	if entry.Text == "" {
		return entry, fmt.Errorf("missing token in %q", line)
	}
	if !found {
		return entry, nil
	}

	ref = strings.TrimSpace(ref)
	switch {
	case ref == "":
		return entry, fmt.Errorf("empty reference for %q", entry.Text)
	case strings.Contains(ref, "://"):
		entry.AudioURL = ref
	default:
		surah, ayah, err := ParseVerse(ref)
		if err != nil {
			return entry, err
		}
		entry.Surah, entry.Ayah = surah, ayah
	}
	return entry, nil
}

// ParseVerse parses a "SURAH:AYAH" reference
func ParseVerse(ref string) (int, int, error) {
	s, a, ok := strings.Cut(ref, ":")
	if !ok {
		return 0, 0, fmt.Errorf("invalid verse reference %q, want SURAH:AYAH", ref)
	}
	surah, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || surah < 1 || surah > 114 {
		return 0, 0, fmt.Errorf("invalid surah in %q", ref)
	}
	ayah, err := strconv.Atoi(strings.TrimSpace(a))
	if err != nil || ayah < 1 {
		return 0, 0, fmt.Errorf("invalid ayah in %q", ref)
	}
	return surah, ayah, nil
}
