// Package filter implements C4: evaluating a models.Filter's compositional
// AND of predicate fragments against a normalized transaction.
package filter

import (
	"bytes"
	"crypto/sha512"

	"github.com/algorandfoundation/algokit-subscriber-go/pkg/models"
)

// Evaluate reports whether txn matches every fragment set on f. txn must
// already carry its derived BalanceChanges and Arc28Events when the
// corresponding fragments are used.
func Evaluate(f models.Filter, txn *models.CanonicalTxn) bool {
	checks := []func() bool{
		func() bool { return matchType(f, txn) },
		func() bool { return matchSender(f, txn) },
		func() bool { return matchReceiver(f, txn) },
		func() bool { return matchNotePrefix(f, txn) },
		func() bool { return matchAppID(f, txn) },
		func() bool { return matchAppCreate(f, txn) },
		func() bool { return matchAppOnComplete(f, txn) },
		func() bool { return matchAssetID(f, txn) },
		func() bool { return matchAssetCreate(f, txn) },
		func() bool { return matchAmountRange(f, txn) },
		func() bool { return matchMethodSignature(f, txn) },
		func() bool { return matchAppCallArgs(f, txn) },
		func() bool { return matchArc28Events(f, txn) },
		func() bool { return matchBalanceChanges(f, txn) },
		func() bool { return matchCustom(f, txn) },
	}
	for _, check := range checks {
		if !check() {
			return false
		}
	}
	return true
}

func matchType(f models.Filter, txn *models.CanonicalTxn) bool {
	if len(f.Type) == 0 {
		return true
	}
	for _, t := range f.Type {
		if t == txn.Type {
			return true
		}
	}
	return false
}

func matchSender(f models.Filter, txn *models.CanonicalTxn) bool {
	if len(f.Sender) == 0 {
		return true
	}
	return containsAddress(f.Sender, txn.Sender)
}

func receiverOf(txn *models.CanonicalTxn) (models.Address, bool) {
	switch {
	case txn.Payment != nil:
		return txn.Payment.Receiver, true
	case txn.AssetTransfer != nil:
		return txn.AssetTransfer.Receiver, true
	default:
		return models.Address{}, false
	}
}

func matchReceiver(f models.Filter, txn *models.CanonicalTxn) bool {
	if len(f.Receiver) == 0 {
		return true
	}
	recv, ok := receiverOf(txn)
	if !ok {
		return false
	}
	return containsAddress(f.Receiver, recv)
}

func matchNotePrefix(f models.Filter, txn *models.CanonicalTxn) bool {
	if len(f.NotePrefix) == 0 {
		return true
	}
	return bytes.HasPrefix(txn.Note, f.NotePrefix)
}

func matchAppID(f models.Filter, txn *models.CanonicalTxn) bool {
	if len(f.AppID) == 0 {
		return true
	}
	id, ok := txn.CalledOrCreatedAppID()
	if !ok {
		return false
	}
	return containsUint64(f.AppID, id)
}

func matchAppCreate(f models.Filter, txn *models.CanonicalTxn) bool {
	if f.AppCreate == nil {
		return true
	}
	present := txn.CreatedAppID != 0
	return present == *f.AppCreate
}

func matchAppOnComplete(f models.Filter, txn *models.CanonicalTxn) bool {
	if len(f.AppOnComplete) == 0 {
		return true
	}
	if txn.ApplicationCall == nil {
		return false
	}
	for _, oc := range f.AppOnComplete {
		if oc == txn.ApplicationCall.OnComplete {
			return true
		}
	}
	return false
}

func matchAssetID(f models.Filter, txn *models.CanonicalTxn) bool {
	if len(f.AssetID) == 0 {
		return true
	}
	id, ok := txn.CalledCreatedOrTransferredAssetID()
	if !ok {
		return false
	}
	return containsUint64(f.AssetID, id)
}

func matchAssetCreate(f models.Filter, txn *models.CanonicalTxn) bool {
	if f.AssetCreate == nil {
		return true
	}
	present := txn.CreatedAssetID != 0
	return present == *f.AssetCreate
}

func amountOf(txn *models.CanonicalTxn) (uint64, bool) {
	switch {
	case txn.Payment != nil:
		return txn.Payment.Amount, true
	case txn.AssetTransfer != nil:
		return txn.AssetTransfer.Amount, true
	default:
		return 0, false
	}
}

func matchAmountRange(f models.Filter, txn *models.CanonicalTxn) bool {
	if f.MinAmount == nil && f.MaxAmount == nil {
		return true
	}
	amount, ok := amountOf(txn)
	if !ok {
		return false
	}
	if f.MinAmount != nil && amount < *f.MinAmount {
		return false
	}
	if f.MaxAmount != nil && amount > *f.MaxAmount {
		return false
	}
	return true
}

func matchMethodSignature(f models.Filter, txn *models.CanonicalTxn) bool {
	if len(f.MethodSignature) == 0 {
		return true
	}
	if txn.ApplicationCall == nil || len(txn.ApplicationCall.Args) == 0 {
		return false
	}
	first := txn.ApplicationCall.Args[0]
	for _, sig := range f.MethodSignature {
		digest := sha512.Sum512_256([]byte(sig))
		if bytes.Equal(digest[:4], first) {
			return true
		}
	}
	return false
}

func matchAppCallArgs(f models.Filter, txn *models.CanonicalTxn) bool {
	if f.AppCallArgsMatch == nil {
		return true
	}
	if txn.ApplicationCall == nil {
		return false
	}
	return f.AppCallArgsMatch(txn.ApplicationCall.Args)
}

func matchArc28Events(f models.Filter, txn *models.CanonicalTxn) bool {
	if len(f.Arc28Events) == 0 {
		return true
	}
	for _, want := range f.Arc28Events {
		for _, got := range txn.Arc28Events {
			if got.GroupName == want.GroupName && got.EventName == want.EventName {
				return true
			}
		}
	}
	return false
}

func matchBalanceChanges(f models.Filter, txn *models.CanonicalTxn) bool {
	if len(f.BalanceChanges) == 0 {
		return true
	}
	for _, predicate := range f.BalanceChanges {
		for _, bc := range txn.BalanceChanges {
			if predicate.Matches(bc) {
				return true
			}
		}
	}
	return false
}

func matchCustom(f models.Filter, txn *models.CanonicalTxn) bool {
	if f.Custom == nil {
		return true
	}
	return f.Custom(txn)
}

func containsAddress(set []models.Address, v models.Address) bool {
	for _, a := range set {
		if a == v {
			return true
		}
	}
	return false
}

func containsUint64(set []uint64, v uint64) bool {
	for _, a := range set {
		if a == v {
			return true
		}
	}
	return false
}
