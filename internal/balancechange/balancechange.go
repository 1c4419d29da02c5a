// Package balancechange implements C2: deriving the consolidated
// (address, asset, signed amount, roles) balance changes a single
// transaction causes, without recursing into its inner transactions.
package balancechange

import "github.com/algorandfoundation/algokit-subscriber-go/pkg/models"

// entry is a single unconsolidated balance-change contribution, emitted in
// whatever order the type-specific rules below produce them.
type entry struct {
	address models.Address
	assetID uint64
	amount  int64
	role    models.Role
}

// Derive computes txn's consolidated balance changes (spec.md §4.2). It
// does not recurse into txn.InnerTxns; callers wanting the changes for an
// entire transaction tree call Derive once per node.
func Derive(txn *models.CanonicalTxn) []models.BalanceChange {
	var raw []entry

	if txn.Fee > 0 {
		raw = append(raw, entry{address: txn.Sender, assetID: models.AlgoAssetID, amount: -int64(txn.Fee), role: models.RoleSender})
	}

	switch txn.Type {
	case models.Payment:
		raw = append(raw, derivePayment(txn)...)
	case models.AssetTransfer:
		raw = append(raw, deriveAssetTransfer(txn)...)
	case models.AssetConfig:
		raw = append(raw, deriveAssetConfig(txn)...)
	}

	return consolidate(raw)
}

func derivePayment(txn *models.CanonicalTxn) []entry {
	p := txn.Payment
	if p == nil {
		return nil
	}
	out := []entry{
		{address: txn.Sender, assetID: models.AlgoAssetID, amount: -int64(p.Amount), role: models.RoleSender},
		{address: p.Receiver, assetID: models.AlgoAssetID, amount: int64(p.Amount), role: models.RoleReceiver},
	}
	if !p.CloseRemainderTo.IsZero() {
		out = append(out,
			entry{address: txn.Sender, assetID: models.AlgoAssetID, amount: -int64(p.ClosingAmount), role: models.RoleSender},
			entry{address: p.CloseRemainderTo, assetID: models.AlgoAssetID, amount: int64(p.ClosingAmount), role: models.RoleCloseTo},
		)
	}
	return out
}

func deriveAssetTransfer(txn *models.CanonicalTxn) []entry {
	x := txn.AssetTransfer
	if x == nil {
		return nil
	}
	effectiveSender := txn.Sender
	if !x.Sender.IsZero() {
		effectiveSender = x.Sender
	}
	out := []entry{
		{address: effectiveSender, assetID: x.AssetID, amount: -int64(x.Amount), role: models.RoleSender},
		{address: x.Receiver, assetID: x.AssetID, amount: int64(x.Amount), role: models.RoleReceiver},
	}
	if !x.CloseTo.IsZero() {
		out = append(out,
			entry{address: effectiveSender, assetID: x.AssetID, amount: -int64(x.AssetClosingAmount), role: models.RoleSender},
			entry{address: x.CloseTo, assetID: x.AssetID, amount: int64(x.AssetClosingAmount), role: models.RoleCloseTo},
		)
	}
	return out
}

func deriveAssetConfig(txn *models.CanonicalTxn) []entry {
	cfg := txn.AssetConfig
	if cfg == nil {
		return nil
	}
	if cfg.AssetID == 0 && txn.CreatedAssetID != 0 {
		total := uint64(0)
		if cfg.Params != nil {
			total = cfg.Params.Total
		}
		return []entry{
			{address: txn.Sender, assetID: txn.CreatedAssetID, amount: int64(total), role: models.RoleAssetCreator},
		}
	}
	if cfg.AssetID != 0 && cfg.Params == nil {
		return []entry{
			{address: txn.Sender, assetID: cfg.AssetID, amount: 0, role: models.RoleAssetDestroyer},
		}
	}
	return nil
}

// consolidate groups raw entries by (address, asset id), summing amounts
// and unioning roles (spec.md §4.2: "a single account acting as both
// sender and close-target produces one entry").
func consolidate(raw []entry) []models.BalanceChange {
	if len(raw) == 0 {
		return nil
	}

	type key struct {
		address models.Address
		assetID uint64
	}
	order := make([]key, 0, len(raw))
	byKey := make(map[key]*models.BalanceChange, len(raw))

	for _, e := range raw {
		k := key{address: e.address, assetID: e.assetID}
		bc, ok := byKey[k]
		if !ok {
			bc = &models.BalanceChange{Address: e.address, AssetID: e.assetID, Roles: models.NewRoleSet()}
			byKey[k] = bc
			order = append(order, k)
		}
		bc.Amount += e.amount
		bc.Roles[e.role] = struct{}{}
	}

	out := make([]models.BalanceChange, 0, len(order))
	for _, k := range order {
		out = append(out, *byKey[k])
	}
	return out
}
