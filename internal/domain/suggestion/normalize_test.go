package suggestion

import "testing"

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Lobster Roll", "lobster roll"},
		{"  lobster roll", "lobster roll"},
		{"LOBSTER   ROLL  ", "lobster roll"},
		{"Pad\tThai", "pad thai"},
		{"", ""},
		{"   ", ""},
		{"Crème Brûlée", "crème brûlée"},
	}

	for _, tt := range tests {
		if got := NormalizeName(tt.in); got != tt.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
