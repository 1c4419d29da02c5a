package filter

import (
	"crypto/sha512"
	"testing"

	"github.com/algorandfoundation/algokit-subscriber-go/pkg/models"
)

func faddr(b byte) models.Address {
	var a models.Address
	a[0] = b
	return a
}

func TestEvaluate_TypeAndSender(t *testing.T) {
	sender := faddr(1)
	txn := &models.CanonicalTxn{Type: models.Payment, Sender: sender, Payment: &models.PaymentPayload{Receiver: faddr(2), Amount: 10}}

	f := models.Filter{Type: []models.TxType{models.Payment}, Sender: []models.Address{sender}}
	if !Evaluate(f, txn) {
		t.Fatalf("expected match")
	}

	f2 := models.Filter{Type: []models.TxType{models.AssetTransfer}}
	if Evaluate(f2, txn) {
		t.Fatalf("expected no match on type mismatch")
	}
}

func TestEvaluate_AmountRange(t *testing.T) {
	txn := &models.CanonicalTxn{Type: models.Payment, Payment: &models.PaymentPayload{Amount: 500}}
	min := uint64(100)
	max := uint64(1000)
	f := models.Filter{MinAmount: &min, MaxAmount: &max}
	if !Evaluate(f, txn) {
		t.Fatalf("expected 500 to be within [100,1000]")
	}

	tooHigh := uint64(10)
	f2 := models.Filter{MaxAmount: &tooHigh}
	if Evaluate(f2, txn) {
		t.Fatalf("expected no match when amount exceeds max")
	}
}

func TestEvaluate_OnCompleteNormalization(t *testing.T) {
	txn := &models.CanonicalTxn{
		Type: models.ApplicationCall,
		ApplicationCall: &models.ApplicationCallPayload{
			AppID:      9,
			OnComplete: models.OnCompleteOptIn,
		},
	}
	f := models.Filter{AppOnComplete: []models.OnCompleteAction{models.OnCompleteOptIn}}
	if !Evaluate(f, txn) {
		t.Fatalf("expected optin match")
	}
	f2 := models.Filter{AppOnComplete: []models.OnCompleteAction{models.OnCompleteDelete}}
	if Evaluate(f2, txn) {
		t.Fatalf("expected no match for delete")
	}
}

func TestEvaluate_MethodSignature(t *testing.T) {
	sig := "add(uint64,uint64)uint64"
	digest := sha512.Sum512_256([]byte(sig))
	txn := &models.CanonicalTxn{
		Type: models.ApplicationCall,
		ApplicationCall: &models.ApplicationCallPayload{
			Args: [][]byte{digest[:4]},
		},
	}
	f := models.Filter{MethodSignature: []string{sig}}
	if !Evaluate(f, txn) {
		t.Fatalf("expected method signature selector match")
	}
	f2 := models.Filter{MethodSignature: []string{"sub(uint64,uint64)uint64"}}
	if Evaluate(f2, txn) {
		t.Fatalf("expected no match for different signature")
	}
}

func TestEvaluate_BalanceChangesFragment(t *testing.T) {
	a := faddr(1)
	txn := &models.CanonicalTxn{
		BalanceChanges: []models.BalanceChange{
			{Address: a, AssetID: 0, Amount: -500, Roles: models.NewRoleSet(models.RoleSender)},
		},
	}
	minAbs := uint64(100)
	f := models.Filter{BalanceChanges: []models.BalanceChangeFilter{{Addresses: []models.Address{a}, MinAbsoluteAmount: &minAbs}}}
	if !Evaluate(f, txn) {
		t.Fatalf("expected balance-change predicate match")
	}
}

func TestEvaluate_EmptyFilterMatchesEverything(t *testing.T) {
	txn := &models.CanonicalTxn{Type: models.Payment}
	if !Evaluate(models.Filter{}, txn) {
		t.Fatalf("empty filter should match any transaction")
	}
}
