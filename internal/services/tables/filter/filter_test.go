package filter

import (
	"reflect"
	"testing"
	"time"
)

func TestParseTableFilter(t *testing.T) {
	t.Parallel()

	ts := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		filter string
		want   SQLCondition
	}{
		{name: "empty", filter: "  ", want: SQLCondition{}},
		{
			name:   "kind equality is lowercased",
			filter: `kind = "TREASURE"`,
			want:   SQLCondition{Clause: "kind = ?", Params: []any{"treasure"}},
		},
		{
			name:   "and",
			filter: `kind = "standard" AND name != "Loot"`,
			want:   SQLCondition{Clause: "(kind = ? AND name != ?)", Params: []any{"standard", "Loot"}},
		},
		{
			name:   "or",
			filter: `id = "a" OR id = "b"`,
			want:   SQLCondition{Clause: "(id = ? OR id = ?)", Params: []any{"a", "b"}},
		},
		{
			name:   "timestamp",
			filter: `updated_at >= timestamp("2026-03-01T12:00:00Z")`,
			want:   SQLCondition{Clause: "updated_at >= ?", Params: []any{ts.UnixMilli()}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTableFilter(tt.filter)
			if err != nil {
				t.Fatalf("ParseTableFilter(%q): %v", tt.filter, err)
			}
			if got.Clause != tt.want.Clause || !reflect.DeepEqual(got.Params, tt.want.Params) {
				t.Fatalf("ParseTableFilter(%q) = %+v, want %+v", tt.filter, got, tt.want)
			}
		})
	}
}

func TestParseTableFilterRejects(t *testing.T) {
	t.Parallel()

	for _, filter := range []string{
		`owner = "x"`,
		`name = `,
	} {
		if _, err := ParseTableFilter(filter); err == nil {
			t.Fatalf("ParseTableFilter(%q) expected error", filter)
		}
	}
}

func TestSQLConditionEmpty(t *testing.T) {
	t.Parallel()

	if !(SQLCondition{}).Empty() {
		t.Fatal("zero condition should be empty")
	}
	if (SQLCondition{Clause: "id = ?"}).Empty() {
		t.Fatal("clause should not be empty")
	}
}
