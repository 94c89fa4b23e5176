package store

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"google.golang.org/api/googleapi"

	"github.com/m3rciful/airdropbot/airdrop"
)

type memBackend struct {
	rows      [][]string
	snapshots []string
	updates   [][]airdrop.StatusUpdate
	err       error
}

func (m *memBackend) Rows(context.Context) ([][]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.rows, nil
}

func (m *memBackend) AppendRow(_ context.Context, row []string) error {
	if m.err != nil {
		return m.err
	}
	m.rows = append(m.rows, row)
	return nil
}

func (m *memBackend) UpdateStatus(_ context.Context, u []airdrop.StatusUpdate) error {
	if m.err != nil {
		return m.err
	}
	m.updates = append(m.updates, u)
	for _, up := range u {
		m.rows[up.Row-1][airdrop.ColStatus] = up.Status
	}
	return nil
}

func (m *memBackend) Snapshot(_ context.Context, name string) error {
	if m.err != nil {
		return m.err
	}
	m.snapshots = append(m.snapshots, name)
	return nil
}

func (m *memBackend) Name() string { return "mem" }
func (m *memBackend) Close() error { return nil }

var fixed = time.Date(2025, 3, 4, 5, 6, 7, 123456000, time.UTC)

func newTestGateway(t *testing.T, b Backend) *Gateway {
	t.Helper()
	g, err := NewGateway(b, WithClock(func() time.Time { return fixed }))
	if err != nil {
		t.Fatalf("new gateway: %v", err)
	}
	return g
}

func sample() airdrop.Record {
	return airdrop.Record{
		Name: "Drop", Twitter: "https://x.com/d", Discord: "https://discord.gg/d",
		Telegram: "https://t.me/d", Link: "https://d.xyz", Type: "Galxe", UserID: "42",
	}
}

func TestAppendDerivesStatusAndTimestamp(t *testing.T) {
	b := &memBackend{rows: [][]string{airdrop.Header}}
	g := newTestGateway(t, b)

	r := sample()
	if err := g.Append(context.Background(), r); err != nil {
		t.Fatal(err)
	}
	r.Deadline = "2025-03-01"
	if err := g.Append(context.Background(), r); err != nil {
		t.Fatal(err)
	}
	r.Deadline = "2025-03-05"
	if err := g.Append(context.Background(), r); err != nil {
		t.Fatal(err)
	}
	got := airdrop.DecodeTable(b.rows)
	if len(got) != 3 {
		t.Fatalf("rows = %d", len(got))
	}
	wantStatus := []string{airdrop.StatusActive, airdrop.StatusEnded, airdrop.StatusActive}
	for i, e := range got {
		if e.Record.Status != wantStatus[i] {
			t.Errorf("row %d status = %s", e.Row, e.Record.Status)
		}
		if e.Record.Timestamp != "2025-03-04T05:06:07.123456" {
			t.Errorf("row %d timestamp = %s", e.Row, e.Record.Timestamp)
		}
	}
}

func TestAppendRejectsInvalidRecord(t *testing.T) {
	b := &memBackend{rows: [][]string{airdrop.Header}}
	g := newTestGateway(t, b)
	r := sample()
	r.Twitter = "ftp://x.com"
	if err := g.Append(context.Background(), r); !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("err = %v", err)
	}
	r = sample()
	r.Deadline = "tomorrow"
	if err := g.Append(context.Background(), r); !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("err = %v", err)
	}
	if len(b.rows) != 1 {
		t.Fatal("invalid record written")
	}
}

func TestFailuresWrapUnavailable(t *testing.T) {
	cause := errors.New("quota exceeded")
	g := newTestGateway(t, &memBackend{err: cause})
	ctx := context.Background()

	_, err := g.FetchAll(ctx)
	if !errors.Is(err, ErrUnavailable) || !errors.Is(err, cause) {
		t.Fatalf("fetch err = %v", err)
	}
	if err := g.Append(ctx, sample()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("append err = %v", err)
	}
	if err := g.BatchUpdateStatus(ctx, []airdrop.StatusUpdate{{Row: 2, Status: airdrop.StatusEnded}}); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("update err = %v", err)
	}
	if name, err := g.Backup(ctx); !errors.Is(err, ErrUnavailable) || name != "" {
		t.Fatalf("backup = %q, %v", name, err)
	}
}

func TestBatchUpdateStatus(t *testing.T) {
	b := &memBackend{rows: [][]string{airdrop.Header}}
	g := newTestGateway(t, b)
	for i := 0; i < 3; i++ {
		if err := g.Append(context.Background(), sample()); err != nil {
			t.Fatal(err)
		}
	}
	if err := g.BatchUpdateStatus(context.Background(), nil); err != nil || len(b.updates) != 0 {
		t.Fatalf("empty batch: %v, calls=%d", err, len(b.updates))
	}
	if err := g.BatchUpdateStatus(context.Background(), []airdrop.StatusUpdate{{Row: 1, Status: airdrop.StatusEnded}}); err == nil {
		t.Fatal("header row accepted")
	}
	ups := []airdrop.StatusUpdate{{Row: 2, Status: airdrop.StatusEnded}, {Row: 4, Status: airdrop.StatusEnded}}
	if err := g.BatchUpdateStatus(context.Background(), ups); err != nil {
		t.Fatal(err)
	}
	if len(b.updates) != 1 {
		t.Fatalf("calls = %d", len(b.updates))
	}
	recs, err := g.Records(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if recs[0].Status != airdrop.StatusEnded || recs[1].Status != airdrop.StatusActive || recs[2].Status != airdrop.StatusEnded {
		t.Fatalf("records = %+v", recs)
	}
}

func TestBackupName(t *testing.T) {
	b := &memBackend{}
	g := newTestGateway(t, b)
	name, err := g.Backup(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if name != "backup_20250304_050607" || b.snapshots[0] != name {
		t.Fatalf("backup = %q", name)
	}
}

func TestSheetsA1(t *testing.T) {
	s := &Sheets{sheetName: "Bob's drops"}
	if got := s.a1(""); got != "'Bob''s drops'" {
		t.Fatalf("a1 = %s", got)
	}
	if got := s.a1(statusColumn + "7"); got != "'Bob''s drops'!J7" {
		t.Fatalf("a1 = %s", got)
	}
}

func TestRetryable(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{&googleapi.Error{Code: http.StatusTooManyRequests}, true},
		{&googleapi.Error{Code: http.StatusServiceUnavailable}, true},
		{&googleapi.Error{Code: http.StatusForbidden}, false},
		{context.DeadlineExceeded, true},
		{context.Canceled, false},
		{errors.New("plain"), false},
	}
	for _, tc := range cases {
		if got := retryable(tc.err); got != tc.want {
			t.Errorf("retryable(%v) = %v", tc.err, got)
		}
	}
}

func TestPGRowRoundTrip(t *testing.T) {
	r := sample()
	r.Status, r.Timestamp = airdrop.StatusActive, "t"
	if got := toPGRow(r.Row()).cells(); airdrop.DecodeRow(got) != r {
		t.Fatalf("cells = %v", got)
	}
}

func TestNewValidatorAirdropURL(t *testing.T) {
	v, err := NewValidator()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}
	if err := v.Var("https://galxe.com/x", "airdrop_url"); err != nil {
		t.Fatalf("valid url rejected: %v", err)
	}
	if err := v.Var("ftp://galxe.com/x", "airdrop_url"); err == nil {
		t.Fatal("ftp url accepted")
	}
}
