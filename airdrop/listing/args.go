// Package listing parses /list arguments and renders pages of active airdrops.
package listing

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/m3rciful/airdropbot/airdrop"
)

// Kind selects which single filter a query applies.
type Kind int

const (
	FilterNone Kind = iota
	FilterType
	FilterDeadline
	FilterNetwork
)

func (k Kind) String() string {
	switch k {
	case FilterType:
		return "type"
	case FilterDeadline:
		return "deadline"
	case FilterNetwork:
		return "network"
	}
	return "none"
}

// Query is a parsed /list request.
type Query struct {
	Kind Kind
	// Value is the lowercased filter value for type and network filters.
	Value string
	// Raw is the filter argument as the user typed it, reused in the page hint.
	Raw string
	// Date is the deadline filter, midnight UTC.
	Date time.Time
	Page int
}

// ArgError is a malformed /list argument. Its message is meant for the user.
type ArgError struct{ Msg string }

func (e *ArgError) Error() string { return e.Msg }

// Code identifies the error class in handler summaries.
func (e *ArgError) Code() string { return "invalid_list_args" }

const (
	msgDeadlineMissing = "❌ Harap masukkan tanggal setelah --deadline (contoh: /list --deadline 2025-12-31)"
	msgDeadlineFormat  = "❌ Format tanggal salah, gunakan YYYY-MM-DD"
	msgNetworkMissing  = "❌ Harap masukkan network setelah --network (contoh: /list --network Ethereum)"
	msgTooManyArgs     = "❌ Terlalu banyak argumen. Gunakan: /list [tipe|--deadline YYYY-MM-DD|--network <network>] [halaman]"
)

// ParseArgs interprets the whitespace separated arguments that follow /list.
// At most one token may follow the filter group. It is the page when it is
// all digits and page 1 otherwise. A lone numeric token pages the unfiltered
// list.
func ParseArgs(args []string) (Query, error) {
	q := Query{Page: 1}
	if len(args) == 0 {
		return q, nil
	}
	if len(args) == 1 && isDigits(args[0]) {
		q.Page = atoiSaturating(args[0])
		return q, nil
	}
	pageAt := 1
	switch strings.ToLower(args[0]) {
	case "--deadline":
		if len(args) < 2 {
			return q, &ArgError{Msg: msgDeadlineMissing}
		}
		d, err := time.Parse(airdrop.DateLayout, args[1])
		if err != nil {
			return q, &ArgError{Msg: msgDeadlineFormat}
		}
		q.Kind, q.Date, q.Raw = FilterDeadline, d, "--deadline "+args[1]
		pageAt = 2
	case "--network":
		if len(args) < 2 {
			return q, &ArgError{Msg: msgNetworkMissing}
		}
		q.Kind, q.Value, q.Raw = FilterNetwork, strings.ToLower(args[1]), "--network "+args[1]
		pageAt = 2
	default:
		if _, ok := airdrop.CanonicalType(args[0]); !ok {
			return q, &ArgError{Msg: fmt.Sprintf("❌ Tipe '%s' tidak valid. Gunakan: %s", args[0], strings.Join(airdrop.Types, ", "))}
		}
		q.Kind, q.Value, q.Raw = FilterType, strings.ToLower(args[0]), args[0]
	}
	if len(args) > pageAt+1 {
		return q, &ArgError{Msg: msgTooManyArgs}
	}
	if len(args) == pageAt+1 && isDigits(args[pageAt]) {
		q.Page = atoiSaturating(args[pageAt])
	}
	return q, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// atoiSaturating parses an all-digit string, capping overflow at MaxInt.
func atoiSaturating(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return math.MaxInt
	}
	return n
}
