package models

// AppCallArgPredicate inspects the decoded application-call arguments and
// reports whether they satisfy a user-supplied condition.
type AppCallArgPredicate func(args [][]byte) bool

// CustomPredicate inspects the fully normalized transaction (including its
// derived balance changes and ARC-28 events) and reports a match. It is
// evaluated last, after every other fragment, since it is the most
// expensive to run in general.
type CustomPredicate func(txn *CanonicalTxn) bool

// Arc28EventMatch selects a specific event within a specific group for the
// arc28_events filter fragment.
type Arc28EventMatch struct {
	EventName string
	GroupName string
}

// BalanceChangeFilter is a single predicate evaluated against every
// consolidated BalanceChange of a transaction; a transaction matches the
// enclosing balance_changes fragment if any one of its balance changes
// satisfies any one of the configured BalanceChangeFilter values. An empty
// slice on any field means "unconstrained" for that field.
type BalanceChangeFilter struct {
	Addresses          []Address
	AssetIDs           []uint64
	Roles              []Role
	MinAmount          *int64
	MaxAmount          *int64
	MinAbsoluteAmount  *uint64
	MaxAbsoluteAmount  *uint64
}

// Matches reports whether bc satisfies f.
func (f BalanceChangeFilter) Matches(bc BalanceChange) bool {
	if len(f.Addresses) > 0 && !containsAddress(f.Addresses, bc.Address) {
		return false
	}
	if len(f.AssetIDs) > 0 && !containsUint64(f.AssetIDs, bc.AssetID) {
		return false
	}
	if len(f.Roles) > 0 {
		required := NewRoleSet(f.Roles...)
		if !bc.Roles.Intersects(required) {
			return false
		}
	}
	if f.MinAmount != nil && bc.Amount < *f.MinAmount {
		return false
	}
	if f.MaxAmount != nil && bc.Amount > *f.MaxAmount {
		return false
	}
	abs := absInt64(bc.Amount)
	if f.MinAbsoluteAmount != nil && abs < *f.MinAbsoluteAmount {
		return false
	}
	if f.MaxAbsoluteAmount != nil && abs > *f.MaxAbsoluteAmount {
		return false
	}
	return true
}

func absInt64(v int64) uint64 {
	if v < 0 {
		return uint64(-v)
	}
	return uint64(v)
}

func containsAddress(set []Address, v Address) bool {
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

// Filter is a compositional AND of optional per-field predicate fragments;
// a transaction matches iff every specified fragment matches (spec.md §4.4).
// Every field is a pointer or nil-able slice so "unset" is distinguishable
// from "set to the zero value".
type Filter struct {
	Type             []TxType
	Sender           []Address
	Receiver         []Address
	NotePrefix       []byte
	AppID            []uint64
	AppCreate        *bool
	AppOnComplete    []OnCompleteAction
	AssetID          []uint64
	AssetCreate      *bool
	MinAmount        *uint64
	MaxAmount        *uint64
	MethodSignature  []string
	AppCallArgsMatch AppCallArgPredicate
	Arc28Events      []Arc28EventMatch
	BalanceChanges   []BalanceChangeFilter
	Custom           CustomPredicate
}

// NamedFilter pairs a Filter with the name used to tag matching
// transactions in CanonicalTxn.FiltersMatched.
type NamedFilter struct {
	Name   string
	Filter Filter
}
