package codec

import "testing"

func TestDetectFormat(t *testing.T) {
	cases := []struct {
		in   string
		want Format
	}{
		{"XGID=-b----E-C---eE---c-e----B-:0:0:1:52:0:0:0:0:0", FormatXGID},
		{"4HPwATDgc/ABMA:8IhuACAACAAE", FormatGNUID},
		{"4HPwATDgc/ABMA", FormatGNUID},
		{"-------------------------:-------------------------:1:0:00:1:0:0:0:0", FormatOGID},
	}
	for _, c := range cases {
		got, err := DetectFormat(c.in)
		if err != nil {
			t.Errorf("DetectFormat(%q) error: %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("DetectFormat(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestDecodeDispatchesXGID(t *testing.T) {
	_, m, err := Decode("XGID=-b----E-C---eE---c-e----B-:0:0:1:52:0:0:0:0:0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.OnRoll.String() != "BOTTOM" {
		t.Errorf("OnRoll = %v, want BOTTOM", m.OnRoll)
	}
}

func TestDetectFormatRejectsGarbage(t *testing.T) {
	if _, err := DetectFormat("not a position string"); err == nil {
		t.Fatal("expected error for unrecognized format")
	}
}
