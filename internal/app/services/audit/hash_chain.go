package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"medbridge-service/internal/app/models"
	"sort"
	"time"

	"github.com/goccy/go-json"
)

// genesisHash anchors the first event of every provider chain.
const genesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

// canonicalPayload is the hashed projection of an audit event. Field
// order is fixed and Context keys are sorted, so the same event always
// serializes to the same bytes. Hash itself is excluded; PrevHash is
// mixed in separately by computeHash.
type canonicalPayload struct {
	ID        string      `json:"id"`
	Provider  string      `json:"provider"`
	Seq       int64       `json:"seq"`
	Timestamp string      `json:"timestamp"`
	Actor     string      `json:"actor"`
	Type      string      `json:"type"`
	Subject   string      `json:"subject"`
	Success   bool        `json:"success"`
	ErrorKind string      `json:"error_kind"`
	Context   []contextKV `json:"context"`
}

type contextKV struct {
	Key   string `json:"k"`
	Value string `json:"v"`
}

func canonicalize(event *models.AuditEvent) ([]byte, error) {
	kvs := make([]contextKV, 0, len(event.Context))
	for k, v := range event.Context {
		kvs = append(kvs, contextKV{Key: k, Value: v})
	}
	sort.Slice(kvs, func(i, j int) bool { return kvs[i].Key < kvs[j].Key })

	return json.Marshal(canonicalPayload{
		ID:        event.ID,
		Provider:  event.Provider,
		Seq:       event.Seq,
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339Nano),
		Actor:     event.Actor,
		Type:      event.Type,
		Subject:   event.Subject,
		Success:   event.Outcome.Success,
		ErrorKind: string(event.Outcome.ErrorKind),
		Context:   kvs,
	})
}

// computeHash returns hex(sha256(prevHash || canonical payload)).
func computeHash(prevHash string, event *models.AuditEvent) (string, error) {
	payload, err := canonicalize(event)
	if err != nil {
		return "", err
	}
	h := sha256.New()
	h.Write([]byte(prevHash))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil)), nil
}
