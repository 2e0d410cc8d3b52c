package validator

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/rs/zerolog/log"

	"codeberg.org/snonux/iqra/internal/mapping"
)

// Record is the outcome for one table entry
type Record struct {
	Token  string
	Path   string
	Exists bool
}

// Counts aggregates existence checks. Found + Missing always equals Total.
type Counts struct {
	Total   int
	Found   int
	Missing int
}

// Percent returns the rounded share of found assets, 0 for an empty set
func (c Counts) Percent() int {
	if c.Total == 0 {
		return 0
	}
	return int(math.Round(float64(c.Found) / float64(c.Total) * 100))
}

func (c *Counts) add(o Counts) {
	c.Total += o.Total
	c.Found += o.Found
	c.Missing += o.Missing
}

// Result holds the records of one table in table order
type Result struct {
	Counts
	Records []Record
}

// MissingRecords returns the records whose asset was not found
func (r Result) MissingRecords() []Record {
	var out []Record
	for _, rec := range r.Records {
		if !rec.Exists {
			out = append(out, rec)
		}
	}
	return out
}

// Summary covers the letter and word tables
type Summary struct {
	Letters Result
	Words   Result
	Total   Counts
}

// Validate checks every entry of table in order, one at a time
func Validate(ctx context.Context, checker Checker, table *mapping.Table) Result {
	result := Result{Records: make([]Record, 0, table.Len())}

	for _, entry := range table.Entries() {
		exists := checker.Exists(ctx, entry.Path)
		result.Total++
		if exists {
			result.Found++
		} else {
			result.Missing++
		}
		result.Records = append(result.Records, Record{Token: entry.Token, Path: entry.Path, Exists: exists})
	}

	log.Debug().Str("table", table.Name()).Int("found", result.Found).Int("missing", result.Missing).Msg("table validated")
	return result
}

// ValidateTables validates letters, then words
func ValidateTables(ctx context.Context, checker Checker, letters, words *mapping.Table) Summary {
	s := Summary{
		Letters: Validate(ctx, checker, letters),
		Words:   Validate(ctx, checker, words),
	}
	s.Total.add(s.Letters.Counts)
	s.Total.add(s.Words.Counts)
	return s
}

// ValidateAll validates the built-in letter and word tables
func ValidateAll(ctx context.Context, checker Checker) Summary {
	return ValidateTables(ctx, checker, mapping.Letters, mapping.Words)
}

// MissingFiles lists the paths of missing assets, letters first then words
func MissingFiles(s Summary) []string {
	missing := []string{}
	for _, r := range []Result{s.Letters, s.Words} {
		for _, rec := range r.MissingRecords() {
			missing = append(missing, rec.Path)
		}
	}
	return missing
}

const rule = "================================"

// WriteReport renders the human-readable validation report
func WriteReport(w io.Writer, s Summary) error {
	var b strings.Builder

	b.WriteString("🔊 Audio Files Validation Report\n")
	b.WriteString(rule + "\n")

	writeSection(&b, "📝 Letters", "letter", s.Letters)
	writeSection(&b, "📚 Words", "word", s.Words)

	b.WriteString("\n📊 Overall:\n")
	fmt.Fprintf(&b, "   Total files needed: %d\n", s.Total.Total)
	fmt.Fprintf(&b, "   ✅ Found: %d (%d%%)\n", s.Total.Found, s.Total.Percent())
	fmt.Fprintf(&b, "   ❌ Missing: %d\n", s.Total.Missing)

	if s.Total.Missing == 0 {
		b.WriteString("\n🎉 All audio files are present!\n")
	} else {
		fmt.Fprintf(&b, "\n⚠️  Please add %d missing audio file(s)\n", s.Total.Missing)
	}
	b.WriteString("\n" + rule + "\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func writeSection(b *strings.Builder, title, kind string, r Result) {
	fmt.Fprintf(b, "\n%s:\n", title)
	fmt.Fprintf(b, "   Total: %d\n", r.Total)
	fmt.Fprintf(b, "   ✅ Found: %d\n", r.Found)
	fmt.Fprintf(b, "   ❌ Missing: %d\n", r.Missing)

	if r.Missing > 0 {
		fmt.Fprintf(b, "\n   Missing %s files:\n", kind)
		for _, rec := range r.MissingRecords() {
			fmt.Fprintf(b, "   - %s (%s)\n", rec.Token, rec.Path)
		}
	}
}
