package engine

import (
	"fmt"
	"strings"
	"testing"
)

func labelsN(n int) []string {
	labels := make([]string, n)
	for i := range labels {
		labels[i] = fmt.Sprintf("Item %d", i)
	}
	return labels
}

func TestClampPage(t *testing.T) {
	tests := []struct {
		name  string
		total int
		page  int
		want  int
	}{
		{"first page", 10, 1, 1},
		{"below one", 10, 0, 1},
		{"negative", 10, -3, 1},
		{"last page exact", 8, 2, 2},
		{"past the end", 8, 5, 2},
		{"partial last page", 9, 3, 3},
		{"empty list still has one page", 0, 7, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampPage(tt.total, tt.page, PageSize); got != tt.want {
				t.Errorf("ClampPage(%d, %d) = %d, want %d", tt.total, tt.page, got, tt.want)
			}
		})
	}
}

func TestRenderPageWindows(t *testing.T) {
	labels := labelsN(9) // pages: 4 + 4 + 1

	p1, _ := RenderPage("Pick:", labels, 1, PageSize)
	p2, _ := RenderPage("Pick:", labels, 2, PageSize)
	p3, _ := RenderPage("Pick:", labels, 3, PageSize)

	// Consecutive pages must not repeat items, and the final page must not be
	// empty.
	if strings.Contains(p2, "Item 3") || strings.Contains(p1, "Item 4") {
		t.Errorf("pages 1 and 2 overlap:\n%s\n---\n%s", p1, p2)
	}
	if !strings.Contains(p3, "Item 8") {
		t.Errorf("last page missing final item:\n%s", p3)
	}

	// Entries are numbered page-relative, starting from 1 on every page.
	if !strings.Contains(p2, "1. Item 4") {
		t.Errorf("expected page-relative numbering on page 2:\n%s", p2)
	}

	// Navigation affordances appear only where they can act.
	if !strings.Contains(p1, NextToken+". Next") || strings.Contains(p1, PrevToken+". Previous") {
		t.Errorf("unexpected navigation on first page:\n%s", p1)
	}
	if !strings.Contains(p2, NextToken+". Next") || !strings.Contains(p2, PrevToken+". Previous") {
		t.Errorf("expected both directions on middle page:\n%s", p2)
	}
	if strings.Contains(p3, NextToken+". Next") || !strings.Contains(p3, PrevToken+". Previous") {
		t.Errorf("unexpected navigation on last page:\n%s", p3)
	}
}

func TestRenderPageClampsAndReports(t *testing.T) {
	labels := labelsN(6)
	text, page := RenderPage("Pick:", labels, 99, PageSize)
	if page != 2 {
		t.Errorf("clamped page = %d, want 2", page)
	}
	if !strings.Contains(text, "Item 5") {
		t.Errorf("expected last window content, got:\n%s", text)
	}
}

func TestResolveSelection(t *testing.T) {
	const total = 25
	tests := []struct {
		name   string
		answer string
		page   int
		want   int
		ok     bool
	}{
		{"first item first page", "1", 1, 0, true},
		{"last item first page", "4", 1, 3, true},
		{"first item third page", "1", 3, 8, true},
		{"middle item sixth page", "2", 6, 21, true},
		{"past window size", "5", 1, 0, false},
		{"zero is navigation", "0", 2, 0, false},
		{"nine is navigation", "9", 2, 0, false},
		{"beyond list end", "2", 7, 0, false},
		{"non numeric", "x", 1, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveSelection(tt.answer, tt.page, PageSize, total)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("index = %d, want %d", got, tt.want)
			}
		})
	}
}

// The rendering convention and the resolution convention must agree: the
// label shown as entry k on page p resolves to the item bearing that label.
func TestRenderAndResolveAgree(t *testing.T) {
	labels := labelsN(11)
	for page := 1; page <= 3; page++ {
		text, _ := RenderPage("Pick:", labels, page, PageSize)
		for k := 1; k <= PageSize; k++ {
			idx, ok := ResolveSelection(fmt.Sprintf("%d", k), page, PageSize, len(labels))
			if !ok {
				continue
			}
			want := fmt.Sprintf("%d. %s", k, labels[idx])
			if !strings.Contains(text, want) {
				t.Errorf("page %d entry %d: rendered text missing %q:\n%s", page, k, want, text)
			}
		}
	}
}
