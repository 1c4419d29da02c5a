package normalizer

import (
	"bytes"
	"crypto/sha512"
	"encoding/base32"

	"github.com/algorand/go-algorand-sdk/v2/encoding/msgpack"
)

// txIDTagPrefix is the domain-separator Algorand prepends to the
// canonical encoding of a transaction before hashing it for its ID.
var txIDTagPrefix = []byte("TX")

var txIDEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// canonicalTxnID computes a top-level transaction's id: canonical
// (sorted-key) msgpack encoding of the transaction header and
// type-specific fields, prefixed with "TX", hashed with SHA-512/256, and
// base32-encoded to its first 52 characters (spec.md §4.1). Field values
// must already be normalized (genesis id/hash injected, null fields
// dropped) before calling this, since the hash covers exactly the bytes
// encoded here.
func canonicalTxnID(txn RawTxn) string {
	encoded := msgpack.Encode(txn)
	toHash := bytes.Join([][]byte{txIDTagPrefix, encoded}, nil)
	digest := sha512.Sum512_256(toHash)
	return txIDEncoding.EncodeToString(digest[:])[:52]
}

// innerTxnID synthesizes the id for the k'th inner transaction (1-based)
// beneath topLevelParentID (spec.md §4.1 step 2): inner ids are never
// recomputed by hashing, they are derived purely from the parent's id and
// the shared per-top-level-parent counter value.
func innerTxnID(topLevelParentID string, k uint64) string {
	return topLevelParentID + "/inner/" + uitoa(k)
}

func uitoa(v uint64) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}
