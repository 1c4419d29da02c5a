// Package normalizer implements C1: decoding a raw algod block into the
// ordered, flattened sequence of models.CanonicalTxn the rest of the
// pipeline operates on, including recursive inner-transaction unrolling.
//
// The raw shapes below mirror algod's msgpack block encoding (short field
// names, empty transaction fields omitted) rather than the indexer's flat JSON form;
// see internal/indexeradapter for the latter. The struct layout follows
// the same anonymous-embedding-as-flattening idiom used by the official
// SDK's types.Transaction (see _examples/other_examples
// 9c047565_mikeyhodl-go-algorand-sdk__types-transaction.go.go): codec
// flattens the fields of an embedded struct into the same msgpack map as
// its parent, which is how algod itself encodes a transaction's header,
// type-specific fields and apply-data side effects side by side.
package normalizer

// RawHeader captures the fields common to every transaction type.
type RawHeader struct {
	_struct     struct{} `codec:",omitempty,omitemptyarray"`
	Type        string `codec:"type"`
	Sender      []byte `codec:"snd"`
	Fee         uint64 `codec:"fee"`
	FirstValid  uint64 `codec:"fv"`
	LastValid   uint64 `codec:"lv"`
	Note        []byte `codec:"note"`
	GenesisID   string `codec:"gen"`
	GenesisHash []byte `codec:"gh"`
	Group       []byte `codec:"grp"`
	Lease       []byte `codec:"lx"`
	RekeyTo     []byte `codec:"rekey"`
}

// RawPaymentFields is the raw payload for "pay" transactions.
type RawPaymentFields struct {
	_struct          struct{} `codec:",omitempty,omitemptyarray"`
	Receiver         []byte `codec:"rcv"`
	Amount           uint64 `codec:"amt"`
	CloseRemainderTo []byte `codec:"close"`
}

// RawKeyregFields is the raw payload for "keyreg" transactions.
type RawKeyregFields struct {
	_struct         struct{} `codec:",omitempty,omitemptyarray"`
	VotePK          []byte `codec:"votekey"`
	SelectionPK     []byte `codec:"selkey"`
	StateProofPK    []byte `codec:"sprfkey"`
	VoteFirst       uint64 `codec:"votefst"`
	VoteLast        uint64 `codec:"votelst"`
	VoteKeyDilution uint64 `codec:"votekd"`
	Nonparticipation bool  `codec:"nonpart"`
}

// RawAssetParams mirrors Algorand's AssetParams ("apar").
type RawAssetParams struct {
	_struct       struct{} `codec:",omitempty,omitemptyarray"`
	Total         uint64 `codec:"t"`
	Decimals      uint32 `codec:"dc"`
	DefaultFrozen bool   `codec:"df"`
	UnitName      string `codec:"un"`
	AssetName     string `codec:"an"`
	URL           string `codec:"au"`
	MetadataHash  []byte `codec:"am"`
	Manager       []byte `codec:"m"`
	Reserve       []byte `codec:"r"`
	Freeze        []byte `codec:"f"`
	Clawback      []byte `codec:"c"`
}

// RawAssetConfigFields is the raw payload for "acfg" transactions.
type RawAssetConfigFields struct {
	_struct     struct{}        `codec:",omitempty,omitemptyarray"`
	ConfigAsset uint64          `codec:"caid"`
	AssetParams *RawAssetParams `codec:"apar"`
}

// RawAssetTransferFields is the raw payload for "axfer" transactions.
type RawAssetTransferFields struct {
	_struct      struct{} `codec:",omitempty,omitemptyarray"`
	XferAsset    uint64 `codec:"xaid"`
	AssetAmount  uint64 `codec:"aamt"`
	AssetSender  []byte `codec:"asnd"`
	AssetReceiver []byte `codec:"arcv"`
	AssetCloseTo []byte `codec:"aclose"`
}

// RawAssetFreezeFields is the raw payload for "afrz" transactions.
type RawAssetFreezeFields struct {
	_struct       struct{} `codec:",omitempty,omitemptyarray"`
	FreezeAccount []byte `codec:"fadd"`
	FreezeAsset   uint64 `codec:"faid"`
	AssetFrozen   bool   `codec:"afrz"`
}

// RawStateSchema mirrors Algorand's StateSchema ("apgs"/"apls").
type RawStateSchema struct {
	NumUint      uint64 `codec:"nui"`
	NumByteSlice uint64 `codec:"nbs"`
}

// RawApplicationCallFields is the raw payload for "appl" transactions.
type RawApplicationCallFields struct {
	_struct           struct{}         `codec:",omitempty,omitemptyarray"`
	ApplicationID     uint64           `codec:"apid"`
	OnCompletion      int              `codec:"apan"`
	ApprovalProgram   []byte           `codec:"apap"`
	ClearStateProgram []byte           `codec:"apsu"`
	ApplicationArgs   [][]byte         `codec:"apaa"`
	Accounts          [][]byte         `codec:"apat"`
	ForeignApps       []uint64         `codec:"apfa"`
	ForeignAssets     []uint64         `codec:"apas"`
	GlobalStateSchema RawStateSchema   `codec:"apgs"`
	LocalStateSchema  RawStateSchema   `codec:"apls"`
	ExtraProgramPages uint32           `codec:"apep"`
}

// RawStateProofFields is the raw payload for "stpf" transactions. Its
// contents are opaque to this engine and preserved verbatim.
type RawStateProofFields struct {
	_struct        struct{} `codec:",omitempty,omitemptyarray"`
	StateProofType uint64 `codec:"sptype"`
	Message        []byte `codec:"spmsg"`
	StateProof     []byte `codec:"sp"`
}

// RawTxn is the flattened union of every transaction field algod may
// encode, matching the embedding pattern of the official SDK's
// types.Transaction.
type RawTxn struct {
	_struct struct{} `codec:",omitempty,omitemptyarray"`
	RawHeader
	RawPaymentFields
	RawKeyregFields
	RawAssetConfigFields
	RawAssetTransferFields
	RawAssetFreezeFields
	RawApplicationCallFields
	RawStateProofFields
}

// RawEvalDelta mirrors Algorand's EvalDelta ("dt"): the recorded
// side-effects of executing an application call, including its inner
// transactions and emitted logs.
type RawEvalDelta struct {
	InnerTxns []RawSignedTxnWithAD `codec:"itx"`
	Logs      [][]byte             `codec:"lg"`
}

// RawSignedTxnWithAD is one transaction entry as it appears either at the
// top level of a block's txns[] or inside a parent's eval_delta.itx: the
// signed transaction fields flattened alongside the apply-data side
// effects algod recorded while executing it.
type RawSignedTxnWithAD struct {
	Txn      RawTxn `codec:"txn"`
	AuthAddr []byte `codec:"sgnr"`

	// Apply-data side effects.
	ClosingAmount      uint64       `codec:"ca"`
	AssetClosingAmount uint64       `codec:"aca"`
	ConfigAsset        uint64       `codec:"caid"`
	ApplicationID      uint64       `codec:"apid"`
	EvalDelta          RawEvalDelta `codec:"dt"`
}

// RawSignedTxnInBlock wraps a RawSignedTxnWithAD with the two flags that
// tell the normalizer whether to inject the block's genesis id/hash into
// the transaction (spec.md §4.1).
type RawSignedTxnInBlock struct {
	RawSignedTxnWithAD
	HasGenesisID   bool `codec:"hgi"`
	HasGenesisHash bool `codec:"hgh"`
}

// RawBlock is algod's raw block encoding (spec.md §6): a header plus an
// ordered list of signed top-level transactions, each of which may carry
// a nested list of inner transactions via its eval_delta.itx field.
type RawBlock struct {
	Round       uint64                `codec:"rnd"`
	Timestamp   int64                 `codec:"ts"`
	GenesisID   string                `codec:"gen"`
	GenesisHash []byte                `codec:"gh"`
	Previous    []byte                `codec:"prev"`
	Seed        []byte                `codec:"seed"`
	Proto       string                `codec:"proto"`
	Txns        []RawSignedTxnInBlock `codec:"txns"`
	FeeSink     []byte                `codec:"fees"`
	RewardsPool []byte                `codec:"rwd"`
}
