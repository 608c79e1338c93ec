package common

import (
	"testing"
	"time"
)

func TestSanitizeName(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"Vol 3: Arc/Finale?", "Vol 3_ Arc_Finale_"},
		{"plain-name_1.pdf", "plain-name_1.pdf"},
		{"", ""},
		{"глава 12", "_____ 12"},
		{`a\b|c*d`, "a_b_c_d"},
	}

	for _, c := range cases {
		got := SanitizeName(c.input)
		if got != c.want {
			t.Errorf("SanitizeName(%q) = %q, want %q", c.input, got, c.want)
		}
	}
}

func TestGetStrOr(t *testing.T) {
	if got := GetStrOr("", "fallback"); got != "fallback" {
		t.Errorf("empty value should fall back, got %q", got)
	}
	if got := GetStrOr("value", "fallback"); got != "value" {
		t.Errorf("non-empty value should be kept, got %q", got)
	}
}

func TestGetDurationOr(t *testing.T) {
	if got := GetDurationOr(0, time.Second); got != time.Second {
		t.Errorf("zero duration should fall back, got %s", got)
	}
	if got := GetDurationOr(2*time.Second, time.Second); got != 2*time.Second {
		t.Errorf("positive duration should be kept, got %s", got)
	}
}

func TestTruncateString(t *testing.T) {
	if got := TruncateString("hello world", 8); got != "hello..." {
		t.Errorf("unexpected truncation result %q", got)
	}
	if got := TruncateString("short", 10); got != "short" {
		t.Errorf("string within limit should be unchanged, got %q", got)
	}
}
