package grammar

import (
	"regexp"
	"strings"
	"time"
)

// TimestampLayout is the producer's logging timestamp format.
const TimestampLayout = "2006-01-02 15:04:05,000"

// LineKind classifies a lexed line.
type LineKind int

const (
	// LineOther is a blank, free-text or malformed line. Ignored by Fold.
	LineOther LineKind = iota
	// LineRecord is a "Field: value" line.
	LineRecord
	// LineDelimiter is a run of one repeated delimiter character.
	LineDelimiter
)

// Line is one lexed log line.
type Line struct {
	Number    int // 1-based line number in the lexed text
	Kind      LineKind
	Timestamp time.Time // zero unless the timestamp parsed
	Field     string    // records only, as written
	Value     string    // records only
	Delim     Delimiter // delimiters only
}

var (
	linePattern   = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2},\d{3}) - DEBUG - (.*)$`)
	recordPattern = regexp.MustCompile(`^(\w+): (.+)$`)
)

// Lex classifies every line of text. Lines are split on '\n' and a
// trailing '\r' is dropped.
func Lex(text string) []Line {
	raw := strings.Split(text, "\n")
	lines := make([]Line, 0, len(raw))
	for i, s := range raw {
		lines = append(lines, lexLine(i+1, strings.TrimSuffix(s, "\r")))
	}
	return lines
}

func lexLine(number int, s string) Line {
	l := Line{Number: number, Kind: LineOther}
	m := linePattern.FindStringSubmatch(s)
	if m == nil {
		return l
	}
	if ts, err := time.Parse(TimestampLayout, m[1]); err == nil {
		l.Timestamp = ts
	}
	msg := m[2]

	if d, ok := parseDelimiter(msg); ok {
		l.Kind = LineDelimiter
		l.Delim = d
		return l
	}
	if rm := recordPattern.FindStringSubmatch(msg); rm != nil {
		l.Kind = LineRecord
		l.Field = rm[1]
		l.Value = rm[2]
	}
	return l
}

// parseDelimiter reports whether msg is a run of a single delimiter
// character.
func parseDelimiter(msg string) (Delimiter, bool) {
	if msg == "" || !strings.ContainsRune(delimiterChars, rune(msg[0])) {
		return Delimiter{}, false
	}
	c := msg[0]
	for i := 1; i < len(msg); i++ {
		if msg[i] != c {
			return Delimiter{}, false
		}
	}
	return Delimiter{Char: c, Width: len(msg)}, true
}

// HasRecords reports whether any line in lines is a record.
func HasRecords(lines []Line) bool {
	for _, l := range lines {
		if l.Kind == LineRecord {
			return true
		}
	}
	return false
}

// FirstTimestamp returns the timestamp of the first record line, or the
// zero time.
func FirstTimestamp(lines []Line) time.Time {
	for _, l := range lines {
		if l.Kind == LineRecord && !l.Timestamp.IsZero() {
			return l.Timestamp
		}
	}
	return time.Time{}
}
