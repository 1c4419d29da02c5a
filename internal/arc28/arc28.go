// Package arc28 implements C3: decoding ARC-28 structured log events emitted
// by application-call transactions.
package arc28

import (
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"log"
	"strings"

	"github.com/algorand/go-algorand-sdk/v2/abi"

	"github.com/algorandfoundation/algokit-subscriber-go/pkg/models"
)

// Extractor decodes ARC-28 events against a fixed catalog. A nil Logger
// falls back to log.Default(), matching the rest of the package's ambient
// logging convention.
type Extractor struct {
	Catalog models.Arc28EventCatalog
	Logger  *log.Logger
}

func (e *Extractor) logger() *log.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return log.Default()
}

// Extract decodes every ARC-28 event present in txn.Logs, consulting thunk
// only for groups whose app-id whitelist already matches, per the lazy
// evaluation rule in spec.md §4.3 step 1.
func (e *Extractor) Extract(txn *models.CanonicalTxn, appID uint64, thunk func() *models.CanonicalTxn) ([]models.EmittedArc28Event, error) {
	groups := e.applicableGroups(appID, thunk)
	if len(groups) == 0 || len(txn.Logs) == 0 {
		return nil, nil
	}

	prefixIndex := buildPrefixIndex(groups)

	var out []models.EmittedArc28Event
	for _, raw := range txn.Logs {
		if len(raw) <= 4 {
			continue
		}
		prefix := hex.EncodeToString(raw[:4])
		candidates, ok := prefixIndex[prefix]
		if !ok {
			continue
		}
		for _, c := range candidates {
			event, err := decodeEvent(c, raw[4:])
			if err != nil {
				if c.group.ContinueOnError {
					e.logger().Printf("[arc28] skipping log: group %q event %q: %v", c.group.GroupName, c.def.Name, err)
					continue
				}
				return nil, fmt.Errorf("arc28: group %q event %q: %w", c.group.GroupName, c.def.Name, err)
			}
			out = append(out, event)
		}
	}
	return out, nil
}

func (e *Extractor) applicableGroups(appID uint64, thunk func() *models.CanonicalTxn) []models.Arc28EventGroup {
	var out []models.Arc28EventGroup
	for _, g := range e.Catalog.Groups {
		if len(g.ProcessForAppIDs) > 0 && !containsAppID(g.ProcessForAppIDs, appID) {
			continue
		}
		if g.ProcessTransaction != nil && !g.ProcessTransaction(thunk) {
			continue
		}
		out = append(out, g)
	}
	return out
}

func containsAppID(ids []uint64, id uint64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// candidate is one event definition reachable by a given log prefix.
type candidate struct {
	group models.Arc28EventGroup
	def   models.Arc28EventDefinition
	sig   string
}

func buildPrefixIndex(groups []models.Arc28EventGroup) map[string][]candidate {
	idx := make(map[string][]candidate)
	for _, g := range groups {
		for _, def := range g.Events {
			sig := Signature(def)
			p := Prefix(sig)
			idx[p] = append(idx[p], candidate{group: g, def: def, sig: sig})
		}
	}
	return idx
}

// Signature renders an event definition's signature: "name(type1,type2,...)".
func Signature(def models.Arc28EventDefinition) string {
	types := make([]string, len(def.Args))
	for i, a := range def.Args {
		types[i] = a.Type
	}
	return def.Name + "(" + strings.Join(types, ",") + ")"
}

// Prefix returns the lowercase 8-hex-char log prefix for an event signature:
// the first 4 bytes of SHA-512/256(signature).
func Prefix(signature string) string {
	digest := sha512.Sum512_256([]byte(signature))
	return hex.EncodeToString(digest[:4])
}

func decodeEvent(c candidate, payload []byte) (models.EmittedArc28Event, error) {
	tupleType := "(" + joinTypes(c.def.Args) + ")"
	abiType, err := abi.TypeOf(tupleType)
	if err != nil {
		return models.EmittedArc28Event{}, fmt.Errorf("invalid event arg types %q: %w", tupleType, err)
	}
	decoded, err := abiType.Decode(payload)
	if err != nil {
		return models.EmittedArc28Event{}, fmt.Errorf("decoding abi tuple: %w", err)
	}
	values, ok := decoded.([]interface{})
	if !ok {
		return models.EmittedArc28Event{}, fmt.Errorf("decoded value is not a tuple: %T", decoded)
	}

	byName := make(map[string]interface{}, len(values))
	for i, v := range values {
		if i < len(c.def.Args) && c.def.Args[i].Name != "" {
			byName[c.def.Args[i].Name] = v
		}
	}

	return models.EmittedArc28Event{
		GroupName:  c.group.GroupName,
		EventName:  c.def.Name,
		Signature:  c.sig,
		Prefix:     Prefix(c.sig),
		Definition: c.def,
		Args:       values,
		ArgsByName: byName,
	}, nil
}

func joinTypes(args []models.Arc28EventArg) string {
	types := make([]string, len(args))
	for i, a := range args {
		types[i] = a.Type
	}
	return strings.Join(types, ",")
}
