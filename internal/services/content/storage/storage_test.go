package storage

import "testing"

func TestParseMode(t *testing.T) {
	t.Parallel()

	cases := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{input: "", want: ModeSession},
		{input: "session", want: ModeSession},
		{input: " Durable ", want: ModeDurable},
		{input: "local", wantErr: true},
	}
	for _, tc := range cases {
		got, err := ParseMode(tc.input)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParseMode(%q) expected error", tc.input)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseMode(%q) error = %v", tc.input, err)
		}
		if got != tc.want {
			t.Fatalf("ParseMode(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}
