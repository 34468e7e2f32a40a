// Package fingerprint derives stable identifiers and digests for search records and payloads
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"hash/fnv"
	"sort"
	"strconv"
	"strings"

	"github.com/Ramsey-B/clover/pkg/models"
)

// syntheticIDSpace bounds synthetic record ids to seven digits
const syntheticIDSpace = 10_000_000

// SyntheticID derives a record id from a transport-level id (such as a search hit's _id)
// when the record carries no native id. Collisions are possible; callers must flag the
// record as synthetic.
func SyntheticID(transportID string) (models.RecordID, bool) {
	if transportID == "" {
		return "", false
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(transportID))
	return models.RecordID(strconv.FormatUint(h.Sum64()%syntheticIDSpace, 10)), true
}

// Record returns a digest of a record's source, id and tracked fields
func Record(rec models.NormalizedRecord) string {
	data := map[string]any{
		"record_id": string(rec.RecordID),
		"source":    string(rec.Source),
	}
	for _, field := range models.TrackedFields {
		data[field] = rec.Field(field)
	}
	return Generate(data)
}

// Request digests an endpoint and its JSON payload. Object payloads are canonicalized so
// key order does not change the digest; anything else is hashed as raw bytes.
func Request(url string, payload []byte) string {
	var body map[string]any
	if err := json.Unmarshal(payload, &body); err == nil && body != nil {
		return Generate(map[string]any{"url": url, "payload": body})
	}
	h := sha256.New()
	h.Write([]byte(url))
	h.Write([]byte{0})
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

// Generate creates a deterministic fingerprint for decoded JSON data.
// The fingerprint is a SHA256 hash of the canonicalized JSON.
func Generate(data map[string]any) string {
	var b strings.Builder
	canonicalize(&b, data)
	hash := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(hash[:])
}

func canonicalize(b *strings.Builder, data any) {
	switch v := data.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			key, _ := json.Marshal(k)
			b.Write(key)
			b.WriteByte(':')
			canonicalize(b, v[k])
		}
		b.WriteByte('}')
	case []any:
		b.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				b.WriteByte(',')
			}
			canonicalize(b, item)
		}
		b.WriteByte(']')
	default:
		raw, _ := json.Marshal(v)
		b.Write(raw)
	}
}
