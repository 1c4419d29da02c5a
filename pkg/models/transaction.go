// Package models holds the public data shapes the subscription engine
// produces and consumes: the canonical transaction record, balance
// changes, ARC-28 events, filters and the subscription result envelope.
package models

// TxType is the discriminator for a transaction's type-specific payload.
type TxType string

const (
	Payment         TxType = "pay"
	KeyRegistration TxType = "keyreg"
	AssetConfig     TxType = "acfg"
	AssetTransfer   TxType = "axfer"
	AssetFreeze     TxType = "afrz"
	ApplicationCall TxType = "appl"
	StateProof      TxType = "stpf"
	Heartbeat       TxType = "hb"
)

// Role is a participatory capacity an address held in a BalanceChange.
type Role string

const (
	RoleSender         Role = "Sender"
	RoleReceiver       Role = "Receiver"
	RoleCloseTo        Role = "CloseTo"
	RoleAssetCreator   Role = "AssetCreator"
	RoleAssetDestroyer Role = "AssetDestroyer"
)

// RoleSet is a small unordered set of Role, consolidated without duplicates.
type RoleSet map[Role]struct{}

// NewRoleSet builds a RoleSet from the given roles.
func NewRoleSet(roles ...Role) RoleSet {
	s := make(RoleSet, len(roles))
	for _, r := range roles {
		s[r] = struct{}{}
	}
	return s
}

// Has reports whether the set contains r.
func (s RoleSet) Has(r Role) bool {
	_, ok := s[r]
	return ok
}

// Union merges other into s in place and returns s.
func (s RoleSet) Union(other RoleSet) RoleSet {
	for r := range other {
		s[r] = struct{}{}
	}
	return s
}

// Intersects reports whether s shares any role with required.
func (s RoleSet) Intersects(required RoleSet) bool {
	for r := range required {
		if s.Has(r) {
			return true
		}
	}
	return false
}

// Slice returns the roles in s as a slice, order unspecified.
func (s RoleSet) Slice() []Role {
	out := make([]Role, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	return out
}

// AlgoAssetID is the reserved asset id denoting native Algo balance changes.
const AlgoAssetID uint64 = 0

// BalanceChange is a derived, per-(address, asset) delta attributing a
// share of a transaction's Algo/asset movement to a participating account.
type BalanceChange struct {
	Address Address
	AssetID uint64
	Amount  int64 // signed; negative is an outflow
	Roles   RoleSet
}

// PaymentPayload is the type-specific payload for TxType Payment.
type PaymentPayload struct {
	Receiver         Address
	Amount           uint64
	CloseRemainderTo Address
	ClosingAmount    uint64
}

// KeyRegPayload is the type-specific payload for TxType KeyRegistration.
type KeyRegPayload struct {
	VoteKey         []byte
	SelectionKey    []byte
	StateProofKey   []byte
	VoteFirst       uint64
	VoteLast        uint64
	VoteKeyDilution uint64
	Nonparticipant  bool
}

// AssetParams describes the parameters of an asset, present on creation
// and reconfiguration acfg transactions.
type AssetParams struct {
	Total         uint64
	Decimals      uint32
	DefaultFrozen bool
	UnitName      string
	AssetName     string
	URL           string
	MetadataHash  []byte
	Manager       Address
	Reserve       Address
	Freeze        Address
	Clawback      Address
}

// AssetConfigPayload is the type-specific payload for TxType AssetConfig.
type AssetConfigPayload struct {
	AssetID uint64 // ConfigAsset; zero means this transaction creates a new asset
	Params  *AssetParams
}

// AssetTransferPayload is the type-specific payload for TxType AssetTransfer.
type AssetTransferPayload struct {
	AssetID            uint64
	Amount             uint64
	Sender             Address // clawback source; present iff this is a clawback
	Receiver           Address
	CloseTo            Address
	AssetClosingAmount uint64
}

// AssetFreezePayload is the type-specific payload for TxType AssetFreeze.
type AssetFreezePayload struct {
	FreezeAccount Address
	AssetID       uint64
	Frozen        bool
}

// StateSchema bounds the global/local state a smart contract may allocate.
type StateSchema struct {
	NumUint      uint64
	NumByteSlice uint64
}

// OnCompleteAction is the normalized (string-form) application call
// on-complete action. The raw block encodes this as an integer 0..5; the
// indexer encodes it as one of these strings. Comparisons always happen
// in the string form per spec.
type OnCompleteAction string

const (
	OnCompleteNoOp       OnCompleteAction = "noop"
	OnCompleteOptIn      OnCompleteAction = "optin"
	OnCompleteCloseOut   OnCompleteAction = "closeout"
	OnCompleteClearState OnCompleteAction = "clear"
	OnCompleteUpdate     OnCompleteAction = "update"
	OnCompleteDelete     OnCompleteAction = "delete"
)

// OnCompleteFromInt maps the raw block's integer on-complete value to its
// normalized string form.
func OnCompleteFromInt(v int) (OnCompleteAction, bool) {
	switch v {
	case 0:
		return OnCompleteNoOp, true
	case 1:
		return OnCompleteOptIn, true
	case 2:
		return OnCompleteCloseOut, true
	case 3:
		return OnCompleteClearState, true
	case 4:
		return OnCompleteUpdate, true
	case 5:
		return OnCompleteDelete, true
	default:
		return "", false
	}
}

// ApplicationCallPayload is the type-specific payload for TxType ApplicationCall.
type ApplicationCallPayload struct {
	AppID             uint64 // zero means this call creates a new application
	OnComplete        OnCompleteAction
	ApprovalProgram   []byte
	ClearStateProgram []byte
	// Args are decoded separately from the rest of the transaction fields
	// to avoid a historical SDK encoding bug affecting app-call byte args
	// (spec.md §4.1 edge cases); they are therefore kept as raw byte slices
	// here rather than folded into a generic arguments map.
	Args            [][]byte
	Accounts        []Address
	ForeignApps     []uint64
	ForeignAssets   []uint64
	GlobalStateSchema StateSchema
	LocalStateSchema  StateSchema
	ExtraProgramPages uint32
}

// StateProofPayload is the type-specific payload for TxType StateProof. Its
// fields are opaque to the subscription engine; it is preserved verbatim.
type StateProofPayload struct {
	StateProofType uint64
	Message        []byte
	StateProof     []byte
}

// CanonicalTxn is the normalized transaction record used throughout the
// pipeline, shared by both the algod (raw block) and indexer ingestion
// paths. Exactly one of the type-specific payload pointers is non-nil,
// selected by Type.
type CanonicalTxn struct {
	// Identity
	ID                  string
	ParentTransactionID string // present iff this is an inner transaction
	IntraRoundOffset    uint64
	ConfirmedRound      uint64
	RoundTime           int64

	// Header
	Type        TxType
	Sender      Address
	Fee         uint64
	FirstValid  uint64
	LastValid   uint64
	GenesisID   string
	GenesisHash []byte
	Group       []byte
	Note        []byte
	Lease       []byte
	RekeyTo     Address
	AuthAddr    Address

	// Type-specific payload; exactly one is set per Type.
	Payment         *PaymentPayload
	KeyReg          *KeyRegPayload
	AssetConfig     *AssetConfigPayload
	AssetTransfer   *AssetTransferPayload
	AssetFreeze     *AssetFreezePayload
	ApplicationCall *ApplicationCallPayload
	StateProof      *StateProofPayload

	// Side effects
	CreatedAssetID uint64
	CreatedAppID   uint64
	ClosingAmount  uint64
	Logs           [][]byte
	InnerTxns      []*CanonicalTxn

	// Positional bookkeeping used while normalizing; harmless to expose.
	RoundIndex   uint64 // top-level position within the round
	ParentOffset uint64 // position within the immediate parent's inner list (inner txns only)

	// Derived (populated by the pipeline)
	BalanceChanges []BalanceChange
	Arc28Events    []EmittedArc28Event
	FiltersMatched map[string]struct{}
}

// IsInner reports whether t is an inner transaction.
func (t *CanonicalTxn) IsInner() bool {
	return t.ParentTransactionID != ""
}

// AddFilterMatch records that the named filter matched t, merging with any
// previously recorded matches (spec.md invariant P4).
func (t *CanonicalTxn) AddFilterMatch(name string) {
	if t.FiltersMatched == nil {
		t.FiltersMatched = make(map[string]struct{})
	}
	t.FiltersMatched[name] = struct{}{}
}

// FilterNames returns the names of the filters that matched t, order
// unspecified.
func (t *CanonicalTxn) FilterNames() []string {
	out := make([]string, 0, len(t.FiltersMatched))
	for name := range t.FiltersMatched {
		out = append(out, name)
	}
	return out
}

// AllTransactions returns t and every inner transaction reachable from it,
// in depth-first pre-order.
func (t *CanonicalTxn) AllTransactions() []*CanonicalTxn {
	out := []*CanonicalTxn{t}
	for _, inner := range t.InnerTxns {
		out = append(out, inner.AllTransactions()...)
	}
	return out
}

// CalledOrCreatedAppID returns the application id this transaction touches,
// whether it called an existing app or created a new one, and whether any
// app id is present at all.
func (t *CanonicalTxn) CalledOrCreatedAppID() (uint64, bool) {
	if t.CreatedAppID != 0 {
		return t.CreatedAppID, true
	}
	if t.ApplicationCall != nil && t.ApplicationCall.AppID != 0 {
		return t.ApplicationCall.AppID, true
	}
	return 0, false
}

// CalledCreatedOrTransferredAssetID returns the asset id this transaction
// touches: the asset it called (acfg), created, or transferred.
func (t *CanonicalTxn) CalledCreatedOrTransferredAssetID() (uint64, bool) {
	if t.CreatedAssetID != 0 {
		return t.CreatedAssetID, true
	}
	if t.AssetConfig != nil && t.AssetConfig.AssetID != 0 {
		return t.AssetConfig.AssetID, true
	}
	if t.AssetTransfer != nil && t.AssetTransfer.AssetID != 0 {
		return t.AssetTransfer.AssetID, true
	}
	return 0, false
}
