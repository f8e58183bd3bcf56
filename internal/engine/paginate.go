/**
 * @description
 * Pagination over the static menu lists (banks, states). Renders a fixed-size
 * window with page-relative entry numbers plus next/previous navigation
 * affordances, and translates a page-relative selection back to the global
 * list index.
 *
 * @notes
 * - Entries are numbered 1..n within the page, and selection resolution uses
 *   the same convention: entry k on page p is item (p-1)*size + k - 1. The
 *   two must never diverge.
 */
package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// Navigation tokens reserved on paginated menus.
const (
	NextToken = "0"
	PrevToken = "9"
)

// PageSize is the window size used by every paginated USSD menu.
const PageSize = 4

// ClampPage clamps page into the valid range for a list of total items.
// A list always has at least one page, even when empty.
func ClampPage(total, page, size int) int {
	last := (total + size - 1) / size
	if last < 1 {
		last = 1
	}
	if page < 1 {
		return 1
	}
	if page > last {
		return last
	}
	return page
}

// RenderPage renders one window of labels under a title. It returns the text
// and the clamped page number actually rendered; callers persist the clamped
// value so navigation stays in range.
func RenderPage(title string, labels []string, page, size int) (string, int) {
	page = ClampPage(len(labels), page, size)
	start := (page - 1) * size
	end := start + size
	if end > len(labels) {
		end = len(labels)
	}

	var b strings.Builder
	b.WriteString(title)
	for i, label := range labels[start:end] {
		b.WriteString(fmt.Sprintf("\n%d. %s", i+1, label))
	}
	if end < len(labels) {
		b.WriteString("\n" + NextToken + ". Next")
	}
	if page > 1 {
		b.WriteString("\n" + PrevToken + ". Previous")
	}
	return b.String(), page
}

// ResolveSelection translates a page-relative answer ("1".."size") entered
// while viewing page into the global index of the chosen item. ok is false
// for navigation tokens, out-of-window digits, and non-numeric input.
func ResolveSelection(answer string, page, size, total int) (int, bool) {
	k, err := strconv.Atoi(answer)
	if err != nil || k < 1 || k > size {
		return 0, false
	}
	idx := (page-1)*size + k - 1
	if idx >= total {
		return 0, false
	}
	return idx, true
}
