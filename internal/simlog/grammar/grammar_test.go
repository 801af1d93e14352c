package grammar

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

const ts = "2024-05-01 10:00:00,250 - DEBUG - "

func TestLexClassifiesLines(t *testing.T) {
	text := strings.Join([]string{
		ts + "Vehicle_Type: vehicle.audi.tt",
		ts + strings.Repeat("*", 80),
		ts + strings.Repeat("+", 40) + "\r",
		"",
		"free text without a prefix",
		"2024-05-01 10:00:00,250 - INFO - Vehicle_Type: ignored",
		ts + "no colon here",
		ts + "***+++",
	}, "\n")

	lines := Lex(text)
	if len(lines) != 8 {
		t.Fatalf("Lex returned %d lines, want 8", len(lines))
	}

	want := []LineKind{LineRecord, LineDelimiter, LineDelimiter, LineOther, LineOther, LineOther, LineOther, LineOther}
	for i, l := range lines {
		if l.Kind != want[i] {
			t.Errorf("line %d kind = %v, want %v", i+1, l.Kind, want[i])
		}
		if l.Number != i+1 {
			t.Errorf("line %d number = %d", i+1, l.Number)
		}
	}

	if lines[0].Field != "Vehicle_Type" || lines[0].Value != "vehicle.audi.tt" {
		t.Errorf("record = %q: %q", lines[0].Field, lines[0].Value)
	}
	wantTS := time.Date(2024, 5, 1, 10, 0, 0, 250*int(time.Millisecond), time.UTC)
	if !lines[0].Timestamp.Equal(wantTS) {
		t.Errorf("timestamp = %v, want %v", lines[0].Timestamp, wantTS)
	}
	if lines[1].Delim != FrameBoundary {
		t.Errorf("delimiter = %v, want %v", lines[1].Delim, FrameBoundary)
	}
	if lines[2].Delim != TrafficLightBoundary {
		t.Errorf("CRLF delimiter = %v, want %v", lines[2].Delim, TrafficLightBoundary)
	}
}

func TestTokenizeRoundTrip(t *testing.T) {
	values := map[string]string{
		"Vehicle_Type":           "vehicle.tesla.model3",
		"Vehicle_Location":       "Location(x=1.500000, y=-2.000000, z=0.000000)",
		"Vehicle_steering_angle": "-0.25",
		"traffic_light_state":    "Red",
		"Note":                   "value: with a colon, and a comma",
	}
	var b strings.Builder
	for k, v := range values {
		b.WriteString(ts + k + ": " + v + "\n")
	}

	f := Tokenize(b.String())
	for k, v := range values {
		got, ok := f.Get(strings.ToLower(k))
		if !ok {
			t.Errorf("field %q missing", k)
			continue
		}
		if got != v {
			t.Errorf("field %q = %q, want %q", k, got, v)
		}
	}
}

func TestTokenizeFlattensBraceObject(t *testing.T) {
	f := Tokenize(ts + "Attr: {a: 1, b: 2}\n")
	want := Fields{"a": "1", "b": "2"}
	if diff := cmp.Diff(want, f); diff != "" {
		t.Errorf("Tokenize mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenizeFlattensQuotedAttributes(t *testing.T) {
	f := Tokenize(ts + "attributes: {'role_name': 'hero', 'Color': '17,37,103', 'sticky_control': 'True'}\n")
	if got := f["role_name"]; got != "hero" {
		t.Errorf("role_name = %q, want hero", got)
	}
	if got := f["sticky_control"]; got != "True" {
		t.Errorf("sticky_control = %q, want True", got)
	}
	if got := f["color"]; got != "17" {
		t.Errorf("color = %q, want 17 (commas end a sub-value)", got)
	}
	if _, ok := f["attributes"]; ok {
		t.Error("outer attributes key should not be stored")
	}
}

func TestTokenizeReservedPrefixes(t *testing.T) {
	for _, name := range []string{"get_speed", "set_autopilot", "add_impulse", "apply_control", "Get_Location"} {
		f := Tokenize(ts + name + ": 5\n")
		if len(f) != 0 {
			t.Errorf("%s: got %d keys, want 0", name, len(f))
		}
	}
	// A prefix match only, not a substring match.
	if f := Tokenize(ts + "target_speed: 5\n"); f["target_speed"] != "5" {
		t.Errorf("target_speed should be kept, got %v", f)
	}
}

func TestTokenizeSkipsMalformedLines(t *testing.T) {
	text := strings.Join([]string{
		"",
		"garbage",
		ts + "type_id: walker.pedestrian.0001",
		"2024-05-01 10:00 - DEBUG - truncated: line",
		ts + strings.Repeat("-", 40),
	}, "\n")
	want := Fields{"type_id": "walker.pedestrian.0001"}
	if diff := cmp.Diff(want, Tokenize(text)); diff != "" {
		t.Errorf("Tokenize mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenizeLastWriteWins(t *testing.T) {
	f := Tokenize(ts + "Location: first\n" + ts + "location: second\n")
	if got := f["location"]; got != "second" {
		t.Errorf("location = %q, want second", got)
	}
}

func TestSplit(t *testing.T) {
	text := strings.Join([]string{
		ts + "a: 1",
		ts + strings.Repeat("*", 70),
		ts + strings.Repeat("*", 80),
		ts + "b: 2",
		ts + strings.Repeat("*", 70),
		ts + strings.Repeat("*", 70),
	}, "\n")
	parts := Split(Lex(text), CategoryBoundary)
	if len(parts) != 4 {
		t.Fatalf("Split returned %d parts, want 4", len(parts))
	}
	if got := Fold(parts[0]); got["a"] != "1" {
		t.Errorf("part 0 = %v", got)
	}
	// The 80-wide delimiter stays inside part 1.
	if len(parts[1]) != 2 || parts[1][0].Delim != FrameBoundary {
		t.Errorf("part 1 = %+v", parts[1])
	}
	if len(parts[2]) != 0 || len(parts[3]) != 0 {
		t.Errorf("trailing parts should be empty, got %d and %d lines", len(parts[2]), len(parts[3]))
	}
	if n := Count(Lex(text), CategoryBoundary); n != 3 {
		t.Errorf("Count = %d, want 3", n)
	}
}

func TestSplitWithoutDelimiter(t *testing.T) {
	parts := Split(Lex(ts+"a: 1"), MapBoundary)
	if len(parts) != 1 || len(parts[0]) != 1 {
		t.Errorf("Split without delimiter = %+v", parts)
	}
}

func TestFieldsTypedAccessors(t *testing.T) {
	f := Fields{"speed": " 3.25", "on": "True", "off": "False", "bad": "maybe"}

	if v, ok := f.Float("speed"); !ok || v != 3.25 {
		t.Errorf("Float(speed) = %v, %v", v, ok)
	}
	if _, ok := f.Float("missing"); ok {
		t.Error("Float(missing) should report absent")
	}
	if v, ok := f.Bool("on"); !ok || !v {
		t.Errorf("Bool(on) = %v, %v", v, ok)
	}
	if v, ok := f.Bool("off"); !ok || v {
		t.Errorf("Bool(off) = %v, %v", v, ok)
	}
	if _, ok := f.Bool("bad"); ok {
		t.Error("Bool(bad) should report absent")
	}

	c := f.Clone()
	c["speed"] = "0"
	if f["speed"] != " 3.25" {
		t.Error("Clone should not alias")
	}
}

func TestFirstTimestampAndHasRecords(t *testing.T) {
	lines := Lex(ts + strings.Repeat("*", 70) + "\n" + "2024-05-01 10:00:01,000 - DEBUG - a: 1")
	if !HasRecords(lines) {
		t.Error("HasRecords = false")
	}
	want := time.Date(2024, 5, 1, 10, 0, 1, 0, time.UTC)
	if got := FirstTimestamp(lines); !got.Equal(want) {
		t.Errorf("FirstTimestamp = %v, want %v", got, want)
	}
	if HasRecords(Lex(ts + strings.Repeat("*", 70))) {
		t.Error("HasRecords on delimiters only = true")
	}
}
