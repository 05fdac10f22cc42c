package jsonx

import (
	"encoding/json"
	"testing"
)

func TestScalar_Unmarshal(t *testing.T) {
	cases := []struct {
		in   string
		want Scalar
	}{
		{`"25.2048"`, "25.2048"},
		{`25.2048`, "25.2048"},
		{`" 4 "`, "4"},
		{`4`, "4"},
		{`true`, "true"},
		{`null`, ""},
	}
	for _, tc := range cases {
		var s Scalar
		if err := json.Unmarshal([]byte(tc.in), &s); err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.in, err)
		}
		if s != tc.want {
			t.Errorf("%s: expected %q, got %q", tc.in, tc.want, s)
		}
	}
}

func TestScalar_RejectsComposites(t *testing.T) {
	for _, in := range []string{`{}`, `[1]`} {
		var s Scalar
		if err := json.Unmarshal([]byte(in), &s); err == nil {
			t.Errorf("%s: expected error", in)
		}
	}
}

func TestScalar_Conversions(t *testing.T) {
	if f, err := Scalar("55.27").Float(); err != nil || f != 55.27 {
		t.Errorf("Float: got %v, %v", f, err)
	}
	if _, err := Scalar("north").Float(); err == nil {
		t.Errorf("Float: expected error for non-numeric value")
	}
	if n, err := Scalar("87.0").Int(); err != nil || n != 87 {
		t.Errorf("Int: got %v, %v", n, err)
	}
	if n, err := Scalar("").Int(); err != nil || n != 0 {
		t.Errorf("Int: empty should be 0, got %v, %v", n, err)
	}
	for _, v := range []Scalar{"1", "true", "TRUE", "yes"} {
		if !v.Bool() {
			t.Errorf("Bool(%q): expected true", v)
		}
	}
	for _, v := range []Scalar{"0", "false", "", "2"} {
		if v.Bool() {
			t.Errorf("Bool(%q): expected false", v)
		}
	}
}
