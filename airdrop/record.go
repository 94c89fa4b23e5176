// Package airdrop defines the airdrop record, its fixed twelve column row
// layout and the rules that derive a record's status from its deadline.
package airdrop

import (
	"net/url"
	"strings"
	"time"
)

// Column positions in a stored row.
const (
	ColName = iota
	ColTwitter
	ColDiscord
	ColTelegram
	ColLink
	ColType
	ColDeadline
	ColReward
	ColUserID
	ColStatus
	ColNetwork
	ColTimestamp

	NumColumns
)

// Header is the label row written at the top of a new sheet.
var Header = []string{
	"Nama", "Twitter", "Discord", "Telegram", "Link", "Type",
	"Deadline", "Reward", "User ID", "Status", "Network", "Timestamp",
}

const (
	StatusActive = "Active"
	StatusEnded  = "Ended"
)

// DateLayout is the deadline format, YYYY-MM-DD.
const DateLayout = "2006-01-02"

// TimestampLayout formats the creation time written on append.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// Types lists the airdrop types offered to users, in keyboard order.
var Types = []string{"Galxe", "Testnet", "Layer3", "Waitlist", "Node"}

// CanonicalType returns the Types entry matching s case-insensitively.
func CanonicalType(s string) (string, bool) {
	for _, t := range Types {
		if strings.EqualFold(t, s) {
			return t, true
		}
	}
	return "", false
}

// Record is one airdrop entry. Optional fields are empty strings when absent.
type Record struct {
	Name      string `validate:"required"`
	Twitter   string `validate:"required,airdrop_url"`
	Discord   string `validate:"required,airdrop_url"`
	Telegram  string `validate:"required,airdrop_url"`
	Link      string `validate:"required,airdrop_url"`
	Type      string `validate:"required"`
	Deadline  string `validate:"omitempty,datetime=2006-01-02"`
	Reward    string
	UserID    string `validate:"required,numeric"`
	Status    string `validate:"omitempty,oneof=Active Ended"`
	Network   string
	Timestamp string
}

// Row encodes r in column order.
func (r Record) Row() []string {
	return []string{
		r.Name, r.Twitter, r.Discord, r.Telegram, r.Link, r.Type,
		r.Deadline, r.Reward, r.UserID, r.Status, r.Network, r.Timestamp,
	}
}

// DecodeRow maps a stored row onto a Record. Missing trailing cells read as empty.
func DecodeRow(row []string) Record {
	cell := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}
	return Record{
		Name:      cell(ColName),
		Twitter:   cell(ColTwitter),
		Discord:   cell(ColDiscord),
		Telegram:  cell(ColTelegram),
		Link:      cell(ColLink),
		Type:      cell(ColType),
		Deadline:  cell(ColDeadline),
		Reward:    cell(ColReward),
		UserID:    cell(ColUserID),
		Status:    cell(ColStatus),
		Network:   cell(ColNetwork),
		Timestamp: cell(ColTimestamp),
	}
}

// ParseDeadline parses a YYYY-MM-DD deadline as midnight in loc.
func ParseDeadline(s string, loc *time.Location) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Expired reports whether deadline parses and lies strictly before now.
// A deadline is midnight at the start of its day in now's location.
func Expired(deadline string, now time.Time) bool {
	t, ok := ParseDeadline(deadline, now.Location())
	return ok && t.Before(now)
}

// DeriveStatus returns Ended for an expired deadline and Active otherwise.
func DeriveStatus(deadline string, now time.Time) string {
	if Expired(deadline, now) {
		return StatusEnded
	}
	return StatusActive
}

// IsValidURL reports whether s parses as an absolute http or https URL with a host.
func IsValidURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Entry is a decoded data row together with its 1-based sheet row number.
type Entry struct {
	Row    int
	Record Record
}

// DecodeTable skips the header row and decodes the remaining rows. Row
// numbers start at 2 so they address the same line in the sheet.
func DecodeTable(rows [][]string) []Entry {
	if len(rows) <= 1 {
		return nil
	}
	out := make([]Entry, 0, len(rows)-1)
	for i, row := range rows[1:] {
		out = append(out, Entry{Row: i + 2, Record: DecodeRow(row)})
	}
	return out
}

// StatusUpdate sets the status cell of one sheet row.
type StatusUpdate struct {
	Row    int
	Status string
}
