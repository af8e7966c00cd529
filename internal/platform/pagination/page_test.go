package pagination

import "testing"

func TestClampPageSize(t *testing.T) {
	cfg := PageSizeConfig{Default: 50, Max: 200}
	tests := []struct {
		value int
		want  int
	}{
		{value: 0, want: 50},
		{value: -3, want: 50},
		{value: 10, want: 10},
		{value: 500, want: 200},
	}
	for _, tt := range tests {
		if got := ClampPageSize(tt.value, cfg); got != tt.want {
			t.Fatalf("ClampPageSize(%d) = %d, want %d", tt.value, got, tt.want)
		}
	}
	if got := ClampPageSize(0, PageSizeConfig{}); got != 1 {
		t.Fatalf("zero config = %d, want 1", got)
	}
}
