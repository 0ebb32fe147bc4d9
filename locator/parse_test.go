package locator

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jonwraymond/docselect/element"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Locator
	}{
		{
			name:  "bare kind",
			input: "heading",
			want:  Locator{Target: TargetSpec{Kind: element.Heading}},
		},
		{
			name:  "indexed",
			input: "paragraph:2",
			want:  Locator{Target: TargetSpec{Kind: element.Paragraph, Value: 2}},
		},
		{
			name:  "text shorthand",
			input: `heading:"Methods"`,
			want:  Locator{Target: TargetSpec{Kind: element.Heading, Value: "Methods"}},
		},
		{
			name:  "unquoted text value",
			input: "paragraph:budget",
			want:  Locator{Target: TargetSpec{Kind: element.Paragraph, Value: "budget"}},
		},
		{
			name:  "filters",
			input: `paragraph[contains_text=intro][is_bold=true]`,
			want: Locator{Target: TargetSpec{
				Kind: element.Paragraph,
				Filters: []Filter{
					{Name: ContainsText, Value: "intro"},
					{Name: IsBold, Value: true},
				},
			}},
		},
		{
			name:  "bare keyword filter",
			input: "paragraph[is_bold]",
			want: Locator{Target: TargetSpec{
				Kind:    element.Paragraph,
				Filters: []Filter{{Name: IsBold, Value: true}},
			}},
		},
		{
			name:  "cell coordinates",
			input: "cell[table_index=0][row_index=1][column_index=2]",
			want: Locator{Target: TargetSpec{
				Kind: element.Cell,
				Filters: []Filter{
					{Name: TableIndex, Value: 0},
					{Name: RowIndex, Value: 1},
					{Name: ColumnIndex, Value: 2},
				},
			}},
		},
		{
			name:  "anchored",
			input: `table@heading:"Methods"[relation=first_occurrence_after]`,
			want: Locator{
				Target:   TargetSpec{Kind: element.Table},
				Anchor:   &TargetSpec{Kind: element.Heading, Value: "Methods"},
				Relation: FirstOccurrenceAfter,
			},
		},
		{
			name:  "anchor with filters",
			input: `paragraph@table[table_index=1][relation=all_occurrences_within]`,
			want: Locator{
				Target: TargetSpec{Kind: element.Paragraph},
				Anchor: &TargetSpec{
					Kind:    element.Table,
					Filters: []Filter{{Name: TableIndex, Value: 1}},
				},
				Relation: AllOccurrencesWithin,
			},
		},
		{
			name:  "positional",
			input: "document_end",
			want:  Locator{Target: TargetSpec{Kind: element.DocumentEnd}},
		},
		{
			name:  "kind alias normalization",
			input: "Inline-Shape[shape_type=picture]",
			want: Locator{Target: TargetSpec{
				Kind:    element.InlineShape,
				Filters: []Filter{{Name: ShapeType, Value: "picture"}},
			}},
		},
		{
			name:  "whitespace tolerated",
			input: "  paragraph : 3  ",
			want:  Locator{Target: TargetSpec{Kind: element.Paragraph, Value: 3}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.input, err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"blank", "   "},
		{"unknown kind", "chapter:1"},
		{"unbalanced open", "paragraph[contains_text=x"},
		{"unbalanced close", "paragraph]"},
		{"empty filter", "paragraph[]"},
		{"unknown filter", "paragraph[color=red]"},
		{"empty value", "paragraph:"},
		{"stray text", "paragraph[is_bold]junk"},
		{"anchor without relation", `table@heading:"Methods"`},
		{"relation without anchor", "table[relation=parent_of]"},
		{"bad relation", `table@heading:"M"[relation=sideways]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			if !errors.Is(err, ErrSyntax) {
				t.Fatalf("Parse(%q): err = %v, want ErrSyntax", tt.input, err)
			}
		})
	}
}

func TestStringRoundTrip(t *testing.T) {
	inputs := []string{
		"paragraph:2",
		"heading:Methods",
		"paragraph[contains_text=intro][is_bold=true]",
		"cell[table_index=0][row_index=1][column_index=2]",
		"table@heading:Methods[relation=first_occurrence_after]",
		"document_start",
	}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			loc, err := Parse(input)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			again, err := Parse(loc.String())
			if err != nil {
				t.Fatalf("Parse(String()): %v", err)
			}
			if diff := cmp.Diff(loc, again); diff != "" {
				t.Errorf("round trip mismatch (-first +second):\n%s", diff)
			}
		})
	}
}

func TestDeterministic(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"paragraph:0", true},
		{"document_start", true},
		{"document", true},
		{"paragraph:intro", false},
		{"heading[contains_text=x]", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			loc, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if got := loc.Deterministic(); got != tt.want {
				t.Errorf("Deterministic() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterCheckType(t *testing.T) {
	tests := []struct {
		name    string
		filter  Filter
		wantErr error
	}{
		{"string ok", Filter{Name: ContainsText, Value: "x"}, nil},
		{"bool ok", Filter{Name: IsBold, Value: true}, nil},
		{"int ok", Filter{Name: RowIndex, Value: 3}, nil},
		{"string mismatch", Filter{Name: Style, Value: 5}, ErrValidation},
		{"bool mismatch", Filter{Name: IsListItem, Value: "yes"}, ErrValidation},
		{"int mismatch", Filter{Name: TableIndex, Value: "first"}, ErrValidation},
		{"negative int", Filter{Name: RangeStart, Value: -4}, ErrValidation},
		{"unknown name", Filter{Name: "font", Value: "serif"}, ErrSyntax},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.filter.CheckType()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("CheckType: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("CheckType: err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
