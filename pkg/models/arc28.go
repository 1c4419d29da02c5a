package models

// Arc28EventDefinition names one ARC-28 event and its ordered argument
// types (ABI type strings, e.g. "uint64", "address", "(uint64,string)").
type Arc28EventDefinition struct {
	Name     string
	Args     []Arc28EventArg
}

// Arc28EventArg is one positional argument of an event definition.
type Arc28EventArg struct {
	Type string
	Name string // optional; empty if the argument is unnamed
}

// Arc28EventGroup is a named collection of event definitions that apply to
// a transaction under the conditions below.
type Arc28EventGroup struct {
	GroupName string
	Events    []Arc28EventDefinition

	// ProcessForAppIDs restricts this group to transactions whose called or
	// created app id is in the list; empty means "applies to every app".
	ProcessForAppIDs []uint64

	// ProcessTransaction is an optional, lazily-evaluated predicate: it
	// receives a thunk producing the canonical transaction rather than the
	// transaction itself, so callers that only need the app-id check can
	// avoid materializing the flattened form (spec.md §9 design note).
	ProcessTransaction func(thunk func() *CanonicalTxn) bool

	// ContinueOnError governs what happens when a log matches an event's
	// 4-byte prefix but fails to decode as that event's ABI tuple: true
	// skips the log with a warning, false fails the transaction.
	ContinueOnError bool
}

// Arc28EventCatalog is the full set of event groups configured for a
// subscription.
type Arc28EventCatalog struct {
	Groups []Arc28EventGroup
}

// EmittedArc28Event is one successfully decoded ARC-28 log event.
type EmittedArc28Event struct {
	GroupName  string
	EventName  string
	Signature  string
	Prefix     string // lowercase hex, 8 chars
	Definition Arc28EventDefinition
	Args       []interface{}
	ArgsByName map[string]interface{}
}
