package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/talgya/sarakt/internal/bridge"
)

// Outbox is a Ledger that records every operation in SQLite for a relay to
// forward later. It issues token ids itself and answers ownership from its
// own token table.
type Outbox struct {
	db  *DB
	now func() time.Time
}

// NewOutbox creates an outbox ledger on an open database.
func NewOutbox(db *DB) *Outbox {
	return &Outbox{db: db, now: time.Now}
}

var _ bridge.Ledger = (*Outbox)(nil)

// OutboxEntry is one recorded ledger operation.
type OutboxEntry struct {
	ID        int64          `db:"id" json:"id"`
	Ref       string         `db:"ref" json:"ref"`
	Op        string         `db:"op" json:"op"`
	TokenID   sql.NullInt64  `db:"token_id" json:"-"`
	Player    string         `db:"player" json:"player"`
	Payload   string         `db:"payload" json:"payload"`
	CreatedAt string         `db:"created_at" json:"created_at"`
	SentAt    sql.NullString `db:"sent_at" json:"-"`
}

func (o *Outbox) stamp() string { return o.now().UTC().Format(time.RFC3339Nano) }

// record appends an outbox row, minting a token first when kind is set.
func (o *Outbox) record(ctx context.Context, op, kind, assetID, player string, token *uint64, payload any) (bridge.Receipt, error) {
	body, err := toJSON(payload)
	if err != nil {
		return bridge.Receipt{}, err
	}

	tx, err := o.db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return bridge.Receipt{}, err
	}
	defer tx.Rollback()

	rcpt := bridge.Receipt{Ref: uuid.NewString()}
	if kind != "" {
		id, err := mintToken(ctx, tx, kind, assetID, player, o.stamp())
		if err != nil {
			return bridge.Receipt{}, fmt.Errorf("%s: %w", op, err)
		}
		rcpt.TokenID = id
		token = &id
	} else if token != nil {
		rcpt.TokenID = *token
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO ledger_outbox (ref, op, token_id, player, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`, rcpt.Ref, op, tokenParam(token), player, body, o.stamp())
	if err != nil {
		return bridge.Receipt{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := tx.Commit(); err != nil {
		return bridge.Receipt{}, err
	}
	return rcpt, nil
}

func mintToken(ctx context.Context, tx *sqlx.Tx, kind, assetID, owner, at string) (uint64, error) {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO ledger_tokens (kind, asset_id, owner, created_at) VALUES (?, ?, ?, ?)",
		kind, assetID, owner, at)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

func (o *Outbox) MintPlot(ctx context.Context, owner string, settlementID, plotID int, zone string) (bridge.Receipt, error) {
	asset := fmt.Sprintf("plot:%d:%d", settlementID, plotID)
	return o.record(ctx, "mint_plot", "plot", asset, owner, nil, map[string]any{
		"settlement_id": settlementID,
		"plot_id":       plotID,
		"zone":          zone,
	})
}

func (o *Outbox) RecordStructure(ctx context.Context, token uint64, structure string) (bridge.Receipt, error) {
	return o.record(ctx, "build_structure", "", "", "", &token, map[string]any{
		"structure": structure,
	})
}

func (o *Outbox) MintActor(ctx context.Context, owner string, actorID, bodyID int, name string) (bridge.Receipt, error) {
	return o.record(ctx, "mint_actor", "actor", "actor:"+strconv.Itoa(actorID), owner, nil, map[string]any{
		"actor_id": actorID,
		"body_id":  bodyID,
		"name":     name,
	})
}

// SyncLoyalty records the loyalty change as a magnitude and direction.
func (o *Outbox) SyncLoyalty(ctx context.Context, token uint64, player string, previous, current float64) (bridge.Receipt, error) {
	change := current - previous
	return o.record(ctx, "update_loyalty", "", "", player, &token, map[string]any{
		"change":   int64(absFloat(change)),
		"increase": change > 0,
		"current":  current,
	})
}

func (o *Outbox) MintFaction(ctx context.Context, leader, name string) (bridge.Receipt, error) {
	return o.record(ctx, "create_faction", "faction", "faction:"+name, leader, nil, map[string]any{
		"name": name,
	})
}

func (o *Outbox) RecordExtraction(ctx context.Context, extractor string, bodyID int, resource string, amount int64) (bridge.Receipt, error) {
	return o.record(ctx, "extract_resource", "", "", extractor, nil, map[string]any{
		"body_id":  bodyID,
		"resource": resource,
		"amount":   amount,
	})
}

// Owns reports whether player holds the token.
func (o *Outbox) Owns(ctx context.Context, player string, token uint64) (bool, error) {
	var owner string
	err := o.db.conn.GetContext(ctx, &owner, "SELECT owner FROM ledger_tokens WHERE token_id = ?", int64(token))
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return owner == player, nil
}

// Pending returns up to limit unsent entries, oldest first.
func (o *Outbox) Pending(ctx context.Context, limit int) ([]OutboxEntry, error) {
	entries := []OutboxEntry{}
	err := o.db.conn.SelectContext(ctx, &entries,
		"SELECT * FROM ledger_outbox WHERE sent_at IS NULL ORDER BY id LIMIT ?", limit)
	return entries, err
}

// MarkSent flags an entry as forwarded.
func (o *Outbox) MarkSent(ctx context.Context, ref string) error {
	res, err := o.db.conn.ExecContext(ctx,
		"UPDATE ledger_outbox SET sent_at = ? WHERE ref = ? AND sent_at IS NULL", o.stamp(), ref)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("outbox entry %s not pending", ref)
	}
	return nil
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
