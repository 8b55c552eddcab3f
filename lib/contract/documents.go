package contract

import (
	"encoding/json"
	"errors"

	"github.com/gridledger/electric/lib/keys"
)

const (
	DocTypeUser  = "user"
	DocTypeUsage = "usage"
)

// User is the document stored for every registered user.
type User struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	DocType  string `json:"docType"`
}

// Usage is one electricity measurement of a user. Measurements are kept as
// the strings the caller supplied.
type Usage struct {
	UserID    string `json:"userId"`
	Time      string `json:"time"`
	Voltage   string `json:"voltage"`
	Current   string `json:"current"`
	Power     string `json:"power"`
	Frequency string `json:"frequency"`
	Energy    string `json:"energy"`
	DocType   string `json:"docType"`
}

// Entry is one element of a range query result.
// Record holds the stored JSON document, or a JSON string with the raw
// value if the stored bytes are not valid JSON.
type Entry struct {
	Key    string          `json:"Key"`
	Record json.RawMessage `json:"Record"`
}

// --------------------------------------------------------------------------
// Document helpers
// --------------------------------------------------------------------------

// putDocument serializes doc and writes it under key unconditionally.
func putDocument(stub Stub, key string, doc any) ([]byte, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, NewError(CodeInternal, "failed to encode document %q: %v", key, err)
	}
	if err := stub.PutState(key, raw); err != nil {
		return nil, wrapLedgerErr(err, "failed to put %q", key)
	}
	return raw, nil
}

// getDocument reads the bytes under key. An absent or empty value is NotFound,
// the message carries name, the identifier the caller asked for.
func getDocument(stub Stub, key, name string) ([]byte, error) {
	raw, err := stub.GetState(key)
	if err != nil {
		return nil, wrapLedgerErr(err, "failed to read %q", name)
	}
	if len(raw) == 0 {
		return nil, NewError(CodeNotFound, "%s does not exist", name)
	}
	return raw, nil
}

// scan collects all entries of [startKey, endKey). Values that are not valid
// JSON are returned as JSON strings and never fail the scan.
func scan(stub Stub, startKey, endKey string) ([]Entry, error) {
	results := make([]Entry, 0)
	r := keys.Range{Start: startKey, End: endKey}
	if errors.Is(r.Validate(), keys.ErrEmptyRange) {
		return results, nil
	}

	it, err := stub.GetStateByRange(startKey, endKey)
	if err != nil {
		return nil, wrapLedgerErr(err, "failed to scan [%q, %q)", startKey, endKey)
	}
	defer it.Close()

	for it.HasNext() {
		kv, err := it.Next()
		if err != nil {
			return nil, wrapLedgerErr(err, "failed to iterate [%q, %q)", startKey, endKey)
		}
		// a ledger that does not honour the bounds must not leak foreign documents
		if !r.Contains(kv.Key) {
			log.Warningf("ledger returned %q outside of [%q, %q), skipping", kv.Key, startKey, endKey)
			continue
		}
		results = append(results, Entry{Key: kv.Key, Record: recordOf(kv.Key, kv.Value)})
	}
	return results, nil
}

func recordOf(key string, value []byte) json.RawMessage {
	if json.Valid(value) {
		return append(json.RawMessage(nil), value...)
	}
	log.Warningf("value of %q is not valid JSON, returning raw string", key)
	raw, _ := json.Marshal(string(value))
	return raw
}

// wrapLedgerErr keeps contract errors as they are and turns everything else into an internal error.
func wrapLedgerErr(err error, format string, args ...any) error {
	if _, ok := err.(*Error); ok {
		return err
	}
	ce := NewError(CodeInternal, format, args...)
	ce.Msg += ": " + err.Error()
	return ce
}
