package indexeradapter

import (
	"encoding/base64"

	"github.com/algorandfoundation/algokit-subscriber-go/pkg/indexerclient"
	"github.com/algorandfoundation/algokit-subscriber-go/pkg/models"
)

func getString(m indexerclient.FlatIndexerTxn, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func getUint64(m indexerclient.FlatIndexerTxn, key string) uint64 {
	v, ok := m[key]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case uint64:
		return n
	case int64:
		return uint64(n)
	case float64:
		return uint64(n)
	case int:
		return uint64(n)
	default:
		return 0
	}
}

func getInt64(m indexerclient.FlatIndexerTxn, key string) int64 {
	return int64(getUint64(m, key))
}

func getBool(m indexerclient.FlatIndexerTxn, key string) bool {
	if v, ok := m[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

func getMap(m indexerclient.FlatIndexerTxn, key string) indexerclient.FlatIndexerTxn {
	v, ok := m[key]
	if !ok {
		return nil
	}
	switch sub := v.(type) {
	case indexerclient.FlatIndexerTxn:
		return sub
	case map[string]interface{}:
		return indexerclient.FlatIndexerTxn(sub)
	default:
		return nil
	}
}

func getSlice(m indexerclient.FlatIndexerTxn, key string) []interface{} {
	v, ok := m[key]
	if !ok {
		return nil
	}
	s, _ := v.([]interface{})
	return s
}

func getBytesB64(m indexerclient.FlatIndexerTxn, key string) []byte {
	s := getString(m, key)
	if s == "" {
		return nil
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil
	}
	return b
}

func getBytesB64Slice(m indexerclient.FlatIndexerTxn, key string) [][]byte {
	raw := getSlice(m, key)
	if len(raw) == 0 {
		return nil
	}
	out := make([][]byte, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			continue
		}
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			continue
		}
		out = append(out, b)
	}
	return out
}

func mustDecodeAddress(s string) models.Address {
	if s == "" {
		return models.ZeroAddress
	}
	addr, err := models.DecodeAddress(s)
	if err != nil {
		return models.ZeroAddress
	}
	return addr
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
