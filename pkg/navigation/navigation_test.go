package navigation_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/navigation"
)

func TestHistory_PushReplace(t *testing.T) {
	t.Parallel()

	h := navigation.NewHistory("")
	if _, ok := h.Param(); ok {
		t.Fatalf("expected absent parameter")
	}

	h.Replace("_preview")
	h.Push("a")
	h.Push("b")
	entries, idx := h.Entries()
	if diff := cmp.Diff([]string{"_preview", "a", "b"}, entries); diff != "" || idx != 2 {
		t.Fatalf("entries mismatch idx=%d (-want +got):\n%s", idx, diff)
	}
	if code, ok := h.Param(); !ok || code != "b" {
		t.Fatalf("param = (%q, %v)", code, ok)
	}
}

func TestHistory_BackForwardFirePopState(t *testing.T) {
	t.Parallel()

	h := navigation.NewHistory("a")
	h.Push("b")
	h.Push("c")

	var seen []string
	unsubscribe := h.OnPopState(func(code string) { seen = append(seen, code) })

	if !h.Back() || !h.Back() {
		t.Fatalf("expected two back moves")
	}
	if h.Back() {
		t.Fatalf("back past the first entry must fail")
	}
	if !h.Forward() {
		t.Fatalf("expected forward move")
	}
	if diff := cmp.Diff([]string{"b", "a", "b"}, seen); diff != "" {
		t.Fatalf("pop-state mismatch (-want +got):\n%s", diff)
	}

	h.Push("d")
	entries, _ := h.Entries()
	if diff := cmp.Diff([]string{"a", "b", "d"}, entries); diff != "" {
		t.Fatalf("push must drop forward entries (-want +got):\n%s", diff)
	}

	unsubscribe()
	h.Back()
	if len(seen) != 3 {
		t.Fatalf("listener fired after unsubscribe")
	}
}

func TestHistory_Visit(t *testing.T) {
	t.Parallel()

	h := navigation.NewHistory("a")
	h.Push("b")

	var seen []string
	h.OnPopState(func(code string) { seen = append(seen, code) })

	h.Visit("a")
	if code, _ := h.Param(); code != "a" {
		t.Fatalf("visit to previous entry should move back, got %q", code)
	}
	h.Visit("b")
	h.Visit("z")
	entries, idx := h.Entries()
	if diff := cmp.Diff([]string{"a", "z"}, entries); diff != "" || idx != 1 {
		t.Fatalf("entries mismatch idx=%d (-want +got):\n%s", idx, diff)
	}
	if diff := cmp.Diff([]string{"a", "b", "z"}, seen); diff != "" {
		t.Fatalf("pop-state mismatch (-want +got):\n%s", diff)
	}
}

func TestHistory_VisitCurrentEntry(t *testing.T) {
	t.Parallel()

	h := navigation.NewHistory("a")
	h.Push("a")

	fired := 0
	h.OnPopState(func(string) { fired++ })

	h.Visit("a")
	entries, idx := h.Entries()
	if idx != 1 || len(entries) != 2 {
		t.Fatalf("visit to current entry must not move, got idx=%d entries=%v", idx, entries)
	}
	if fired != 1 {
		t.Fatalf("expected one pop-state, got %d", fired)
	}
}
