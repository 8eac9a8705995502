// Package bridge keeps the universe and an external asset ledger in step.
// Ledger calls may block; they always run outside the engine lock, strictly
// before or after the core mutation they accompany.
package bridge

import "context"

// Receipt identifies a ledger operation.
type Receipt struct {
	Ref     string `json:"ref"`
	TokenID uint64 `json:"token_id,omitempty"`
}

// Ledger is the external record of asset ownership.
type Ledger interface {
	MintPlot(ctx context.Context, owner string, settlementID, plotID int, zone string) (Receipt, error)
	RecordStructure(ctx context.Context, token uint64, structure string) (Receipt, error)
	MintActor(ctx context.Context, owner string, actorID, bodyID int, name string) (Receipt, error)
	SyncLoyalty(ctx context.Context, token uint64, player string, previous, current float64) (Receipt, error)
	MintFaction(ctx context.Context, leader, name string) (Receipt, error)
	RecordExtraction(ctx context.Context, extractor string, bodyID int, resource string, amount int64) (Receipt, error)
	Owns(ctx context.Context, player string, token uint64) (bool, error)
}
