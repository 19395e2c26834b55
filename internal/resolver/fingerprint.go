package resolver

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"hawk/internal/config"
)

// DomainResolve separates resolver input hashes from other hawk digests.
const DomainResolve = "hawk/resolve/v1"

// InputHash digests everything a resolution depends on: every contributing
// layer (path and raw bytes, in order), the profile warnings and the store mapping.
func InputHash(layers *config.LayerSet, mapping map[string]string) string {
	h := sha256.New()
	h.Write([]byte(DomainResolve))
	h.Write([]byte{0x00})
	writeField(h, layers.Dir)
	for _, l := range layers.Layers {
		writeField(h, string(l.Kind))
		writeField(h, l.Path)
		writeField(h, string(l.Raw))
	}
	for _, w := range layers.Warnings {
		writeField(h, string(w.Code)+":"+w.Subject)
	}
	keys := make([]string, 0, len(mapping))
	for k := range mapping {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		writeField(h, k)
		writeField(h, mapping[k])
	}
	return hex.EncodeToString(h.Sum(nil))
}

type writer interface{ Write([]byte) (int, error) }

// writeField writes s followed by a NUL separator.
func writeField(h writer, s string) {
	h.Write([]byte(s))
	h.Write([]byte{0x00})
}
