package slug

import "testing"

func TestMake(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"Ana":              "ana",
		"  Mary Jane  ":    "mary-jane",
		"2026-10-18 Ana!!": "2026-10-18-ana",
		"¿?":               "anonymous",
		"":                 "anonymous",
	}
	for in, want := range cases {
		if got := Make(in, "anonymous"); got != want {
			t.Fatalf("Make(%q) = %q, want %q", in, got, want)
		}
	}
}
