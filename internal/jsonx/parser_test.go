package jsonx

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestParsePureJSONMatchesStdlib(t *testing.T) {
	inputs := []string{
		`{"key": "value", "number": 123}`,
		`[1, 2, "three"]`,
		`{"nested": {"list": [true, null, 1.5]}}`,
		`"just a string"`,
		`42`,
	}

	for _, in := range inputs {
		got, ok := Parse(in)
		if !ok {
			t.Fatalf("Parse(%q) failed, want success", in)
		}
		var want any
		if err := json.Unmarshal([]byte(in), &want); err != nil {
			t.Fatalf("reference unmarshal failed: %v", err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("Parse(%q) = %#v, want %#v", in, got, want)
		}
	}
}

func TestParseFencedBlock(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  any
	}{
		{
			name:  "json tag with surrounding prose",
			input: "Here is the result:\n```json\n{\"category\": \"Bug Fix\"}\n```\nHope that helps!",
			want:  map[string]any{"category": "Bug Fix"},
		},
		{
			name:  "no language tag",
			input: "```\n{\"key\": \"markdown no lang\"}\n```",
			want:  map[string]any{"key": "markdown no lang"},
		},
		{
			name:  "uppercase tag",
			input: "```JSON\n[1, 2]\n```",
			want:  []any{float64(1), float64(2)},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Parse(tc.input)
			if !ok {
				t.Fatalf("Parse failed, want success")
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %#v, want %#v", got, tc.want)
			}
		})
	}
}

func TestParseProseWrappedObject(t *testing.T) {
	input := `Sure! Based on the task description, my analysis is:
{"category": "Feature Request", "priority": "Medium"}
Let me know if you need anything else.`

	got, ok := Parse(input)
	if !ok {
		t.Fatalf("Parse failed, want success")
	}
	want := map[string]any{"category": "Feature Request", "priority": "Medium"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v, want %#v", got, want)
	}
}

func TestParseNoJSONReturnsFalse(t *testing.T) {
	for _, in := range []string{
		"This is not JSON.",
		"",
		"   \n\t  ",
		"unbalanced { brace",
		"{\"bad\": json, }",
	} {
		if v, ok := Parse(in); ok {
			t.Fatalf("Parse(%q) = %#v, want failure", in, v)
		}
	}
}

func TestParsePrefersEarliestStartingSpan(t *testing.T) {
	// Object begins before the array: the object (which contains the
	// array) must win.
	objFirst := `noise {"items": [1, 2]} trailing`
	got, ok := Parse(objFirst)
	if !ok {
		t.Fatalf("Parse failed, want success")
	}
	if _, isObj := got.(map[string]any); !isObj {
		t.Fatalf("got %T, want object to win when it starts first", got)
	}

	// Array begins before the object.
	arrFirst := `pick [1, 2, 3] over this: {"k": "v"}`
	got, ok = Parse(arrFirst)
	if !ok {
		t.Fatalf("Parse failed, want success")
	}
	if _, isArr := got.([]any); !isArr {
		t.Fatalf("got %T, want array to win when it starts first", got)
	}
}

func TestParseGreedySpanIgnoresTrailingProse(t *testing.T) {
	input := `{"key": "value with trailing text"}` + "\nSome trailing notes."
	got, ok := Parse(input)
	if !ok {
		t.Fatalf("Parse failed, want success")
	}
	want := map[string]any{"key": "value with trailing text"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v, want %#v", got, want)
	}
}

func TestParseIdempotentOnReserializedOutput(t *testing.T) {
	input := "Analysis done.\n```json\n{\"tables\": [{\"name\": \"users\"}], \"recommendations\": [\"index email\"]}\n```"

	first, ok := Parse(input)
	if !ok {
		t.Fatalf("first Parse failed")
	}
	reserialized, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	second, ok := Parse(string(reserialized))
	if !ok {
		t.Fatalf("second Parse failed")
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("parse not idempotent: %#v vs %#v", first, second)
	}
}

func TestParseFencedBlockWithBrokenJSONFallsBackToSpan(t *testing.T) {
	// The fence body starts with prose, so direct parse of the body
	// fails, but the object span inside it is still recoverable.
	input := "```json\nresult follows {\"priority\": \"High\"}\n```"
	got, ok := Parse(input)
	if !ok {
		t.Fatalf("Parse failed, want recovery via span scan")
	}
	want := map[string]any{"priority": "High"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v, want %#v", got, want)
	}
}

func TestExtractFenced(t *testing.T) {
	if body, ok := ExtractFenced("prefix ```json\n{\"a\":1}\n``` suffix"); !ok || body != `{"a":1}` {
		t.Fatalf("ExtractFenced = %q, %v", body, ok)
	}
	if _, ok := ExtractFenced("no fences here"); ok {
		t.Fatalf("expected no fenced block")
	}
}
