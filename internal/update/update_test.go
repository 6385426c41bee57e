package update

import "testing"

func TestNewer(t *testing.T) {
	cases := []struct {
		current, latest string
		want            bool
	}{
		{"0.4.0", "v0.5.0", true},
		{"0.4.0", "0.4.0", false},
		{"0.4.0", "v0.4.0", false},
		{"0.5.0", "v0.4.9", false},
		{"v1.0.0", "v1.0.1", true},
		// unparseable versions never notify
		{"dev", "v1.0.0", false},
		{"0.4.0", "nightly", false},
	}
	for _, tc := range cases {
		if got := Newer(tc.current, tc.latest); got != tc.want {
			t.Errorf("Newer(%q, %q) = %v, want %v", tc.current, tc.latest, got, tc.want)
		}
	}
}
