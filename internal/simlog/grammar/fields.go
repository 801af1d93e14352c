package grammar

import (
	"maps"
	"regexp"
	"strconv"
	"strings"
)

// Fields maps a lower-cased field name to its raw string value. It is the
// tokenized form of one delimiter-bounded block.
type Fields map[string]string

// ReservedPrefixes are accessor-shaped field names the producer emits
// while enumerating object members. They carry no state.
var ReservedPrefixes = []string{"get_", "set_", "add_", "apply_"}

var subPairPattern = regexp.MustCompile(`(\w+):\s*([^,]+)`)

// Tokenize lexes block and folds its record lines into Fields.
func Tokenize(block string) Fields {
	return Fold(Lex(block))
}

// Fold builds Fields from the record lines in lines. Other and delimiter
// lines are skipped. Brace-object values are flattened one level into
// the result. The last write of a name wins.
func Fold(lines []Line) Fields {
	f := make(Fields)
	for _, l := range lines {
		if l.Kind != LineRecord {
			continue
		}
		name := strings.ToLower(l.Field)
		if reserved(name) {
			continue
		}
		if isBraceObject(l.Value) {
			flatten(f, l.Value)
			continue
		}
		f[name] = l.Value
	}
	return f
}

func reserved(name string) bool {
	for _, p := range ReservedPrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

func isBraceObject(v string) bool {
	v = strings.TrimSpace(v)
	return len(v) >= 2 && v[0] == '{' && v[len(v)-1] == '}'
}

// flatten merges the key: value pairs of a one-level brace object into f.
func flatten(f Fields, v string) {
	v = strings.NewReplacer("'", "", `"`, "").Replace(strings.TrimSpace(v))
	v = strings.Trim(v, "{}")
	for _, m := range subPairPattern.FindAllStringSubmatch(v, -1) {
		val := strings.TrimSpace(m[2])
		if val == "" {
			continue
		}
		f[strings.ToLower(m[1])] = val
	}
}

// Get returns the value for key and whether it was present.
func (f Fields) Get(key string) (string, bool) {
	v, ok := f[key]
	return v, ok
}

// Float parses the value for key as a float64. The second result is false
// when the key is absent or not numeric.
func (f Fields) Float(key string) (float64, bool) {
	v, ok := f[key]
	if !ok {
		return 0, false
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, false
	}
	return x, true
}

// Bool parses the value for key as a boolean. Python-style "True" and
// "False" are accepted along with the strconv forms.
func (f Fields) Bool(key string) (bool, bool) {
	v, ok := f[key]
	if !ok {
		return false, false
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false, false
	}
	return b, true
}

// Clone returns a copy of f.
func (f Fields) Clone() Fields {
	return maps.Clone(f)
}
