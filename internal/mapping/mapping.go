package mapping

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// Entry is a single token -> asset path pair
type Entry struct {
	Token string
	Path  string
}

// Table is an immutable, ordered token -> path mapping
type Table struct {
	name    string
	entries []Entry
	index   map[string]int
}

// NewTable builds a table from entries in the given order. A later entry with
// the same token replaces the earlier one in place.
func NewTable(name string, entries ...Entry) *Table {
	t := &Table{
		name:    name,
		entries: make([]Entry, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		if i, ok := t.index[e.Token]; ok {
			t.entries[i] = e
			continue
		}
		t.index[e.Token] = len(t.entries)
		t.entries = append(t.entries, e)
	}
	return t
}

// Union combines tables in order, later tables shadowing earlier ones
func Union(name string, tables ...*Table) *Table {
	var all []Entry
	for _, t := range tables {
		all = append(all, t.entries...)
	}
	return NewTable(name, all...)
}

// Name returns the table name
func (t *Table) Name() string {
	return t.name
}

// Len returns the number of entries
func (t *Table) Len() int {
	return len(t.entries)
}

// Entries returns a copy of the entries in declaration order
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Get returns the path for an exact token
func (t *Table) Get(token string) (string, bool) {
	i, ok := t.index[token]
	if !ok {
		return "", false
	}
	return t.entries[i].Path, true
}

// Paths returns all asset paths in declaration order
func (t *Table) Paths() []string {
	paths := make([]string, len(t.entries))
	for i, e := range t.entries {
		paths[i] = e.Path
	}
	return paths
}

// Letters maps each Arabic letter to its asset
var Letters = NewTable("letters",
	Entry{"ا", "/audio/alif.mp3"},
	Entry{"ب", "/audio/ba.mp3"},
	Entry{"ت", "/audio/ta.mp3"},
	Entry{"ث", "/audio/tha.mp3"},
	Entry{"ج", "/audio/jeem.mp3"},
	Entry{"ح", "/audio/ha.mp3"},
	Entry{"خ", "/audio/kha.mp3"},
	Entry{"د", "/audio/dal.mp3"},
	Entry{"ذ", "/audio/dhal.mp3"},
	Entry{"ر", "/audio/ra.mp3"},
	Entry{"ز", "/audio/zay.mp3"},
	Entry{"س", "/audio/seen.mp3"},
	Entry{"ش", "/audio/sheen.mp3"},
	Entry{"ص", "/audio/sad.mp3"},
	Entry{"ض", "/audio/dad.mp3"},
	Entry{"ط", "/audio/ta2.mp3"},
	Entry{"ظ", "/audio/dha.mp3"},
	Entry{"ع", "/audio/ayn.mp3"},
	Entry{"غ", "/audio/ghayn.mp3"},
	Entry{"ف", "/audio/fa.mp3"},
	Entry{"ق", "/audio/qaf.mp3"},
	Entry{"ك", "/audio/kaf.mp3"},
	Entry{"ل", "/audio/lam.mp3"},
	Entry{"م", "/audio/meem.mp3"},
	Entry{"ن", "/audio/noon.mp3"},
	Entry{"ه", "/audio/ha2.mp3"},
	Entry{"و", "/audio/waw.mp3"},
	Entry{"ي", "/audio/ya.mp3"},
)

// Words maps common words from al-Fatiha to their assets
var Words = NewTable("words",
	Entry{"الله", "/audio/allah.mp3"},
	Entry{"الحمد", "/audio/alhamd.mp3"},
	Entry{"رب", "/audio/rab.mp3"},
	Entry{"العالمين", "/audio/aalameen.mp3"},
	Entry{"الرحمن", "/audio/arrahman.mp3"},
	Entry{"الرحيم", "/audio/arraheem.mp3"},
	Entry{"مالك", "/audio/malik.mp3"},
	Entry{"يوم", "/audio/yawm.mp3"},
	Entry{"الدين", "/audio/addeen.mp3"},
	Entry{"إياك", "/audio/iyyaka.mp3"},
	Entry{"نعبد", "/audio/nabudu.mp3"},
	Entry{"نستعين", "/audio/nastaeen.mp3"},
)

// Combined is the union of Letters and Words
var Combined = Union("combined", Letters, Words)

// Normalize prepares text for lookup. Only surrounding whitespace is removed;
// diacritics are kept unless stripDiacritics is set.
func Normalize(text string, stripDiacritics bool) string {
	normalized := strings.TrimSpace(text)
	if stripDiacritics {
		normalized = StripDiacritics(normalized)
	}
	return normalized
}

// tatweel is the Arabic elongation character
const tatweel = 'ـ'

var diacriticRemover = runes.Remove(runes.Predicate(func(r rune) bool {
	return r == tatweel || unicode.Is(unicode.Mn, r)
}))

// StripDiacritics removes harakat, shadda, sukun and tatweel
func StripDiacritics(text string) string {
	out, _, err := transform.String(diacriticRemover, text)
	if err != nil {
		return text
	}
	return out
}

// Lookup returns the asset path for text in the combined table
func Lookup(text string, stripDiacritics bool) (string, bool) {
	return Combined.Get(Normalize(text, stripDiacritics))
}
