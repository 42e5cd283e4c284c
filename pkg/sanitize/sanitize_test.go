package sanitize

import (
	"strings"
	"testing"
)

func TestRedactPII(t *testing.T) {
	out := RedactPII("Call me at +1 (555) 123-4567 or mail jane@example.com")
	if strings.Contains(out, "jane@example.com") || strings.Contains(out, "123-4567") {
		t.Fatalf("PII leaked: %q", out)
	}
	if !strings.Contains(out, "[redacted email]") || !strings.Contains(out, "[redacted phone]") {
		t.Fatalf("expected redaction markers, got %q", out)
	}
}

func TestSummary_CutsAtWord(t *testing.T) {
	got := Summary("passport scan is blurry please upload again", 20)
	if got != "passport scan is…" {
		t.Fatalf("unexpected summary %q", got)
	}
	if Summary("short", 20) != "short" {
		t.Fatalf("short input must be unchanged")
	}
}

func TestFileName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"passport.pdf", "passport.pdf"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\me\my scan (1).png`, "my_scan_1_.png"},
		{"...", "file"},
	}
	for _, tt := range tests {
		if got := FileName(tt.in); got != tt.want {
			t.Errorf("FileName(%q): Expected %q, got %q", tt.in, tt.want, got)
		}
	}
}
