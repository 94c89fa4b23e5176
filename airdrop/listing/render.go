package listing

import (
	"fmt"
	"strings"
	"time"

	"github.com/m3rciful/airdropbot/airdrop"
)

const (
	// PageSize is the number of entries per page.
	PageSize = 5
	// ChunkSize is the longest message sent, in characters.
	ChunkSize = 4000

	none = "Tidak ada"
)

// Page is one rendered page of results.
type Page struct {
	Number int
	Total  int
	// Matches is the number of active records that passed the filter.
	Matches int
	Text    string
}

// Matches reports whether r is active and passes q's filter.
func (q Query) Matches(r airdrop.Record) bool {
	if r.Status != airdrop.StatusActive {
		return false
	}
	switch q.Kind {
	case FilterType:
		return strings.ToLower(r.Type) == q.Value
	case FilterNetwork:
		return strings.ToLower(r.Network) == q.Value
	case FilterDeadline:
		d, err := time.Parse(airdrop.DateLayout, r.Deadline)
		return err == nil && d.Equal(q.Date)
	}
	return true
}

// Filter keeps the records matching q in their original order.
func Filter(records []airdrop.Record, q Query) []airdrop.Record {
	var out []airdrop.Record
	for _, r := range records {
		if q.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// Render filters records, clamps q.Page into range and formats that page.
// With no matches the text is the filter specific empty message.
func Render(records []airdrop.Record, q Query) Page {
	matched := Filter(records, q)
	if len(matched) == 0 {
		return Page{Text: emptyMessage(q)}
	}
	total := (len(matched) + PageSize - 1) / PageSize
	page := min(max(q.Page, 1), total)
	from := (page - 1) * PageSize
	to := min(from+PageSize, len(matched))

	var b strings.Builder
	fmt.Fprintf(&b, "📋 Daftar Airdrop Aktif%s - Halaman %d/%d:\n\n", heading(q), page, total)
	for i, r := range matched[from:to] {
		fmt.Fprintf(&b, "%d. **%s**\n   Link: %s\n   Type: %s\n   Deadline: %s\n   Network: %s\n\n",
			from+i+1, r.Name, r.Link, r.Type, orNone(r.Deadline), orNone(r.Network))
	}
	if total > 1 {
		cmd := strings.TrimSpace("/list " + q.Raw)
		fmt.Fprintf(&b, "Gunakan '%s <page>' untuk halaman lain (contoh: %s 2)", cmd, cmd)
	}
	return Page{Number: page, Total: total, Matches: len(matched), Text: b.String()}
}

func orNone(s string) string {
	if s == "" {
		return none
	}
	return s
}

// capitalize uppercases the first rune and lowercases the rest.
func capitalize(s string) string {
	r := []rune(strings.ToLower(s))
	if len(r) == 0 {
		return s
	}
	return strings.ToUpper(string(r[0])) + string(r[1:])
}

func heading(q Query) string {
	switch q.Kind {
	case FilterType:
		return " (" + capitalize(q.Value) + ")"
	case FilterDeadline:
		return " (Deadline: " + q.Date.Format(airdrop.DateLayout) + ")"
	case FilterNetwork:
		return " (Network: " + capitalize(q.Value) + ")"
	}
	return ""
}

func emptyMessage(q Query) string {
	switch q.Kind {
	case FilterType:
		return fmt.Sprintf("📋 Tidak ada airdrop aktif dengan tipe '%s'.", capitalize(q.Value))
	case FilterDeadline:
		return fmt.Sprintf("📋 Tidak ada airdrop aktif dengan deadline '%s'.", q.Date.Format(airdrop.DateLayout))
	case FilterNetwork:
		return fmt.Sprintf("📋 Tidak ada airdrop aktif dengan network '%s'.", capitalize(q.Value))
	}
	return "📋 Tidak ada airdrop aktif saat ini."
}

// Chunk splits text into consecutive pieces of at most size characters.
func Chunk(text string, size int) []string {
	r := []rune(text)
	if size <= 0 || len(r) <= size {
		return []string{text}
	}
	parts := make([]string, 0, (len(r)+size-1)/size)
	for len(r) > 0 {
		n := min(size, len(r))
		parts = append(parts, string(r[:n]))
		r = r[n:]
	}
	return parts
}
