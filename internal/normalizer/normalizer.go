// Normalize walks a raw algod block into the flattened sequence of
// models.CanonicalTxn values the rest of the pipeline operates on.
package normalizer

import (
	"fmt"

	"github.com/algorandfoundation/algokit-subscriber-go/pkg/models"
)

// Normalize converts block into the depth-first pre-order sequence of
// canonical transactions it contains: every top-level transaction followed
// immediately by its own recursively unrolled inner transactions, before
// moving to the next top-level transaction (spec.md §4.1).
func Normalize(block *RawBlock) ([]*models.CanonicalTxn, error) {
	var roundOffset uint64
	out := make([]*models.CanonicalTxn, 0, len(block.Txns))

	for i, entry := range block.Txns {
		top, err := buildTopLevel(block, entry, uint64(i), &roundOffset)
		if err != nil {
			return nil, fmt.Errorf("normalizer: round %d txn %d: %w", block.Round, i, err)
		}
		out = append(out, top.AllTransactions()...)
	}
	return out, nil
}

// buildTopLevel normalizes one top-level block entry and recursively builds
// its inner-transaction tree.
func buildTopLevel(block *RawBlock, entry RawSignedTxnInBlock, roundIndex uint64, roundOffset *uint64) (*models.CanonicalTxn, error) {
	txn := entry.Txn
	if entry.HasGenesisID {
		txn.GenesisID = block.GenesisID
	}
	if entry.HasGenesisHash {
		txn.GenesisHash = block.GenesisHash
	}

	id := canonicalTxnID(txn)

	top, err := buildCanonicalTxn(txn, entry.RawSignedTxnWithAD)
	if err != nil {
		return nil, err
	}
	top.ID = id
	top.ConfirmedRound = block.Round
	top.RoundTime = block.Timestamp
	top.RoundIndex = roundIndex
	top.IntraRoundOffset = *roundOffset
	*roundOffset++

	// innerCounter is the single counter shared by every inner transaction
	// beneath this top-level parent, at every nesting depth (spec.md §4.1
	// step 2 design note: it is never reset when descending into nested
	// inner transactions).
	var innerCounter uint64
	inner, err := buildInnerTxns(id, id, entry.EvalDelta.InnerTxns, &innerCounter, roundOffset)
	if err != nil {
		return nil, err
	}
	top.InnerTxns = inner
	return top, nil
}

// buildInnerTxns recursively builds the canonical form of one level of
// inner transactions. topLevelID is the ultimate top-level parent's id,
// used for both ParentTransactionID and the synthetic id suffix on every
// descendant regardless of nesting depth.
func buildInnerTxns(topLevelID, immediateParentID string, raw []RawSignedTxnWithAD, innerCounter *uint64, roundOffset *uint64) ([]*models.CanonicalTxn, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]*models.CanonicalTxn, 0, len(raw))
	for localIndex, entry := range raw {
		*innerCounter++
		id := innerTxnID(topLevelID, *innerCounter)

		txn, err := buildCanonicalTxn(entry.Txn, entry)
		if err != nil {
			return nil, fmt.Errorf("inner txn %d of %s: %w", localIndex, immediateParentID, err)
		}
		txn.ID = id
		txn.ParentTransactionID = topLevelID
		txn.ParentOffset = uint64(localIndex)
		txn.IntraRoundOffset = *roundOffset
		*roundOffset++

		grandchildren, err := buildInnerTxns(topLevelID, id, entry.EvalDelta.InnerTxns, innerCounter, roundOffset)
		if err != nil {
			return nil, err
		}
		txn.InnerTxns = grandchildren

		out = append(out, txn)
	}
	return out, nil
}

// buildCanonicalTxn maps the header, type-specific payload and apply-data
// side effects of one raw transaction entry onto a models.CanonicalTxn.
// Identity fields (ID, ParentTransactionID, offsets, ConfirmedRound,
// RoundTime) are filled in by the caller.
func buildCanonicalTxn(txn RawTxn, ad RawSignedTxnWithAD) (*models.CanonicalTxn, error) {
	out := &models.CanonicalTxn{
		Type:        models.TxType(txn.Type),
		Fee:         txn.Fee,
		FirstValid:  txn.FirstValid,
		LastValid:   txn.LastValid,
		GenesisID:   txn.GenesisID,
		GenesisHash: txn.GenesisHash,
		Group:       txn.Group,
		Note:        txn.Note,
		Lease:       txn.Lease,

		ClosingAmount: ad.ClosingAmount,
		Logs:          ad.EvalDelta.Logs,
	}
	copy32(&out.Sender, txn.Sender)
	copy32(&out.RekeyTo, txn.RekeyTo)
	copy32(&out.AuthAddr, ad.AuthAddr)

	switch out.Type {
	case models.Payment:
		p := &models.PaymentPayload{
			Amount:        txn.Amount,
			ClosingAmount: ad.ClosingAmount,
		}
		copy32(&p.Receiver, txn.Receiver)
		copy32(&p.CloseRemainderTo, txn.CloseRemainderTo)
		out.Payment = p

	case models.KeyRegistration:
		out.KeyReg = &models.KeyRegPayload{
			VoteKey:         txn.VotePK,
			SelectionKey:    txn.SelectionPK,
			StateProofKey:   txn.StateProofPK,
			VoteFirst:       txn.VoteFirst,
			VoteLast:        txn.VoteLast,
			VoteKeyDilution: txn.VoteKeyDilution,
			Nonparticipant:  txn.Nonparticipation,
		}

	case models.AssetConfig:
		cfg := &models.AssetConfigPayload{AssetID: txn.ConfigAsset}
		if txn.AssetParams != nil {
			params := &models.AssetParams{
				Total:         txn.AssetParams.Total,
				Decimals:      txn.AssetParams.Decimals,
				DefaultFrozen: txn.AssetParams.DefaultFrozen,
				UnitName:      txn.AssetParams.UnitName,
				AssetName:     txn.AssetParams.AssetName,
				URL:           txn.AssetParams.URL,
				MetadataHash:  txn.AssetParams.MetadataHash,
			}
			copy32(&params.Manager, txn.AssetParams.Manager)
			copy32(&params.Reserve, txn.AssetParams.Reserve)
			copy32(&params.Freeze, txn.AssetParams.Freeze)
			copy32(&params.Clawback, txn.AssetParams.Clawback)
			cfg.Params = params
		}
		out.AssetConfig = cfg
		out.CreatedAssetID = ad.ConfigAsset

	case models.AssetTransfer:
		x := &models.AssetTransferPayload{
			AssetID:            txn.XferAsset,
			Amount:             txn.AssetAmount,
			AssetClosingAmount: ad.AssetClosingAmount,
		}
		copy32(&x.Sender, txn.AssetSender)
		copy32(&x.Receiver, txn.AssetReceiver)
		copy32(&x.CloseTo, txn.AssetCloseTo)
		out.AssetTransfer = x

	case models.AssetFreeze:
		f := &models.AssetFreezePayload{
			AssetID: txn.FreezeAsset,
			Frozen:  txn.AssetFrozen,
		}
		copy32(&f.FreezeAccount, txn.FreezeAccount)
		out.AssetFreeze = f

	case models.ApplicationCall:
		onComplete, ok := models.OnCompleteFromInt(txn.OnCompletion)
		if !ok {
			return nil, fmt.Errorf("unrecognized on-complete value %d", txn.OnCompletion)
		}
		accounts := make([]models.Address, len(txn.Accounts))
		for i, a := range txn.Accounts {
			copy32(&accounts[i], a)
		}
		out.ApplicationCall = &models.ApplicationCallPayload{
			AppID:             txn.ApplicationID,
			OnComplete:        onComplete,
			ApprovalProgram:   txn.ApprovalProgram,
			ClearStateProgram: txn.ClearStateProgram,
			Args:              txn.ApplicationArgs,
			Accounts:          accounts,
			ForeignApps:       txn.ForeignApps,
			ForeignAssets:     txn.ForeignAssets,
			GlobalStateSchema: models.StateSchema{NumUint: txn.GlobalStateSchema.NumUint, NumByteSlice: txn.GlobalStateSchema.NumByteSlice},
			LocalStateSchema:  models.StateSchema{NumUint: txn.LocalStateSchema.NumUint, NumByteSlice: txn.LocalStateSchema.NumByteSlice},
			ExtraProgramPages: txn.ExtraProgramPages,
		}
		out.CreatedAppID = ad.ApplicationID

	case models.StateProof:
		out.StateProof = &models.StateProofPayload{
			StateProofType: txn.StateProofType,
			Message:        txn.Message,
			StateProof:     txn.StateProof,
		}

	case models.Heartbeat:
		// Heartbeat transactions carry no normalized payload beyond the
		// common header; they exist only to keep an account's last-seen
		// round fresh and are preserved verbatim via the header fields.

	default:
		return nil, fmt.Errorf("unrecognized transaction type %q", txn.Type)
	}

	return out, nil
}

// copy32 copies a possibly-short or nil raw address byte slice into dst,
// leaving dst at its zero value (models.ZeroAddress) when b is empty.
func copy32(dst *models.Address, b []byte) {
	if len(b) == 0 {
		return
	}
	copy(dst[:], b)
}
