package llm

import (
	"errors"
	"testing"
)

func TestExtractJSONArray(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain array", `[{"name":"SAP"}]`, `[{"name":"SAP"}]`},
		{"json fence", "```json\n[{\"name\":\"SAP\"}]\n```", `[{"name":"SAP"}]`},
		{"bare fence", "```\n[1, 2]\n```", `[1, 2]`},
		{"prose around array", "Here is the data: [1, [2]] hope that helps", `[1, [2]]`},
		{"empty array", "[]", "[]"},
		{"brackets inside strings kept", `[{"notes":"see [1]"}] trailing`, `[{"notes":"see [1]"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSONArray(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestExtractJSONArray_NoArray(t *testing.T) {
	for _, input := range []string{"", "I could not find any news.", `{"name":"SAP"}`, "] backwards ["} {
		if _, err := ExtractJSONArray(input); !errors.Is(err, ErrNoJSONArray) {
			t.Errorf("ExtractJSONArray(%q): expected ErrNoJSONArray, got %v", input, err)
		}
	}
}

func TestConcatText_SkipsNonTextBlocks(t *testing.T) {
	blocks := []Block{
		{Type: "server_tool_use"},
		{Type: BlockTypeText, Text: "[{\"name\":"},
		{Type: "web_search_tool_result", Text: "ignored"},
		{Type: BlockTypeText, Text: "\"SAP\"}]"},
	}

	if got := ConcatText(blocks); got != `[{"name":"SAP"}]` {
		t.Errorf("unexpected concatenation: %q", got)
	}
	if got := ConcatText(nil); got != "" {
		t.Errorf("expected empty string for no blocks, got %q", got)
	}
}
