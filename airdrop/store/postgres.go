package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/m3rciful/airdropbot/airdrop"
)

// Table is the postgres table mirroring the worksheet.
const Table = "airdrops"

type pgRow struct {
	Name      string `db:"name"`
	Twitter   string `db:"twitter"`
	Discord   string `db:"discord"`
	Telegram  string `db:"telegram"`
	Link      string `db:"link"`
	Type      string `db:"type"`
	Deadline  string `db:"deadline"`
	Reward    string `db:"reward"`
	UserID    string `db:"user_id"`
	Status    string `db:"status"`
	Network   string `db:"network"`
	Timestamp string `db:"created_at"`
}

func (r pgRow) cells() []string {
	return []string{
		r.Name, r.Twitter, r.Discord, r.Telegram, r.Link, r.Type,
		r.Deadline, r.Reward, r.UserID, r.Status, r.Network, r.Timestamp,
	}
}

func toPGRow(row []string) pgRow {
	rec := airdrop.DecodeRow(row)
	return pgRow{
		Name: rec.Name, Twitter: rec.Twitter, Discord: rec.Discord, Telegram: rec.Telegram,
		Link: rec.Link, Type: rec.Type, Deadline: rec.Deadline, Reward: rec.Reward,
		UserID: rec.UserID, Status: rec.Status, Network: rec.Network, Timestamp: rec.Timestamp,
	}
}

const (
	selectRows = `SELECT name, twitter, discord, telegram, link, type, deadline, reward,
		user_id, status, network, created_at FROM airdrops ORDER BY id`

	insertRow = `INSERT INTO airdrops (name, twitter, discord, telegram, link, type, deadline,
		reward, user_id, status, network, created_at)
		VALUES (:name, :twitter, :discord, :telegram, :link, :type, :deadline,
		:reward, :user_id, :status, :network, :created_at)`

	// Row numbers follow the worksheet convention: the header is row 1 and
	// records are numbered from 2 in id order.
	updateStatus = `WITH numbered AS (
		SELECT id, row_number() OVER (ORDER BY id) + 1 AS row_no FROM airdrops
	)
	UPDATE airdrops a SET status = $1
	FROM numbered n
	WHERE a.id = n.id AND n.row_no = ANY($2)`
)

// Postgres is a Backend over the airdrops table.
type Postgres struct {
	db *sqlx.DB
}

// NewPostgres wraps an open connection. The schema comes from the embedded migrations.
func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

// Name returns the table name.
func (p *Postgres) Name() string { return Table }

// Close closes the connection pool.
func (p *Postgres) Close() error { return p.db.Close() }

// Rows returns the header followed by every record in insertion order.
func (p *Postgres) Rows(ctx context.Context) ([][]string, error) {
	var list []pgRow
	if err := p.db.SelectContext(ctx, &list, selectRows); err != nil {
		return nil, err
	}
	rows := make([][]string, 0, len(list)+1)
	rows = append(rows, append([]string(nil), airdrop.Header...))
	for _, r := range list {
		rows = append(rows, r.cells())
	}
	return rows, nil
}

// AppendRow inserts one record.
func (p *Postgres) AppendRow(ctx context.Context, row []string) error {
	_, err := p.db.NamedExecContext(ctx, insertRow, toPGRow(row))
	return err
}

// UpdateStatus applies updates grouped by status inside one transaction.
func (p *Postgres) UpdateStatus(ctx context.Context, updates []airdrop.StatusUpdate) error {
	groups := groupByStatus(updates)
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, g := range groups {
		if _, err := tx.ExecContext(ctx, updateStatus, g.status, pq.Array(g.rows)); err != nil {
			return fmt.Errorf("set %s: %w", g.status, err)
		}
	}
	return tx.Commit()
}

type statusGroup struct {
	status string
	rows   []int64
}

// groupByStatus collects row numbers per target status, statuses in first
// seen order and rows deduplicated. A later update of the same row wins.
func groupByStatus(updates []airdrop.StatusUpdate) []statusGroup {
	last := make(map[int]string, len(updates))
	for _, u := range updates {
		last[u.Row] = u.Status
	}
	var groups []statusGroup
	index := make(map[string]int)
	seen := make(map[int]bool, len(updates))
	for _, u := range updates {
		if seen[u.Row] || last[u.Row] != u.Status {
			continue
		}
		seen[u.Row] = true
		i, ok := index[u.Status]
		if !ok {
			i = len(groups)
			index[u.Status] = i
			groups = append(groups, statusGroup{status: u.Status})
		}
		groups[i].rows = append(groups[i].rows, int64(u.Row))
	}
	return groups
}

// Snapshot copies the table, rows included, to a new table called name.
func (p *Postgres) Snapshot(ctx context.Context, name string) error {
	_, err := p.db.ExecContext(ctx, "CREATE TABLE "+pq.QuoteIdentifier(name)+" AS TABLE "+Table)
	return err
}
