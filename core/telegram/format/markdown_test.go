package format

import "testing"

func TestEscapeMarkdownV1(t *testing.T) {
	got, err := EscapeMarkdown("hello_world *bold* [link]", MarkdownV1, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `hello\_world \*bold\* \[link]`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestEscapeMarkdownV2(t *testing.T) {
	got, err := EscapeMarkdown("v2.0 (final)!", MarkdownV2, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `v2\.0 \(final\)\!`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestEscapeMarkdownUnsupportedVersion(t *testing.T) {
	if _, err := EscapeMarkdown("text", 3, ""); err == nil {
		t.Fatal("expected error for unsupported version")
	}
}
