package common

import (
	"encoding/json"
	"fmt"

	"github.com/gridledger/electric/lib/store"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message represents a single message used for both requests and responses.
// Which fields are used depends on the type of message.
type Message struct {
	// Type of message
	MsgType MessageType `json:"msg_type"`

	// Key value fields
	Key    string `json:"key,omitempty"`    // Used for: Set, Get, Has, Range (start)
	EndKey string `json:"endKey,omitempty"` // Used for: Range (exclusive end)
	Value  []byte `json:"value,omitempty"`  // Used for: Set (request), Get, Info, Submit, Evaluate (response)

	// Contract fields
	Fn      string   `json:"fn,omitempty"`      // Used for: Submit, Evaluate
	Args    []string `json:"args,omitempty"`    // Used for: Submit, Evaluate
	Creator string   `json:"creator,omitempty"` // Used for: Submit, Evaluate (identity label of the caller)

	// Response only fields
	Entries []store.KV `json:"entries,omitempty"` // Used for: Range responses
	Ok      bool       `json:"ok,omitempty"`      // Used for: Get, Has responses
	Err     string     `json:"err,omitempty"`     // Empty if no error, otherwise contains the error message
	Code    string     `json:"code,omitempty"`    // Contract error code of Err, empty for transport or store errors

	// Meta information
	Meta []byte `json:"meta,omitempty"` // Unused, can be used for additional Adapters
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// NewSetRequest creates a new Set request
func NewSetRequest(key string, value []byte) *Message {
	return &Message{
		MsgType: MsgTKVSet,
		Key:     key,
		Value:   value,
	}
}

// NewSetResponse creates a new Set response
func NewSetResponse(err error) *Message {
	msg := &Message{
		MsgType: MsgTKVSet,
	}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewGetRequest creates a new Get request
func NewGetRequest(key string) *Message {
	return &Message{
		MsgType: MsgTKVGet,
		Key:     key,
	}
}

// NewGetResponse creates a new Get response
func NewGetResponse(value []byte, ok bool, err error) *Message {
	msg := &Message{
		MsgType: MsgTKVGet,
		Ok:      ok,
		Value:   value,
	}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewHasRequest creates a new Has request
func NewHasRequest(key string) *Message {
	return &Message{
		MsgType: MsgTKVHas,
		Key:     key,
	}
}

// NewHasResponse creates a new Has response
func NewHasResponse(ok bool, err error) *Message {
	msg := &Message{
		MsgType: MsgTKVHas,
		Ok:      ok,
	}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewRangeRequest creates a new Range request for [start, end)
func NewRangeRequest(start, end string) *Message {
	return &Message{
		MsgType: MsgTKVRange,
		Key:     start,
		EndKey:  end,
	}
}

// NewRangeResponse creates a new Range response
func NewRangeResponse(entries []store.KV, err error) *Message {
	msg := &Message{
		MsgType: MsgTKVRange,
		Entries: entries,
	}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewInfoRequest creates a new Info request
func NewInfoRequest() *Message {
	return &Message{
		MsgType: MsgTKVInfo,
	}
}

// NewInfoResponse creates a new Info response, the info is carried as json in Value
func NewInfoResponse(info []byte, err error) *Message {
	msg := &Message{
		MsgType: MsgTKVInfo,
		Value:   info,
	}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewSubmitRequest creates a new Submit request for the contract function fn
func NewSubmitRequest(creator, fn string, args []string) *Message {
	return &Message{
		MsgType: MsgTSubmit,
		Fn:      fn,
		Args:    args,
		Creator: creator,
	}
}

// NewEvaluateRequest creates a new Evaluate request for the contract function fn
func NewEvaluateRequest(creator, fn string, args []string) *Message {
	return &Message{
		MsgType: MsgTEvaluate,
		Fn:      fn,
		Args:    args,
		Creator: creator,
	}
}

// NewTransactionResponse creates the response to a Submit or Evaluate request.
// code is the contract error code of err and is ignored if err is nil.
func NewTransactionResponse(msgType MessageType, payload []byte, code string, err error) *Message {
	msg := &Message{
		MsgType: msgType,
		Value:   payload,
	}
	if err != nil {
		msg.Err = err.Error()
		msg.Code = code
	}
	return msg
}

// NewCustomRequest creates a new Custom request
func NewCustomRequest(meta []byte) *Message {
	return &Message{
		MsgType: MsgTCustom,
		Meta:    meta,
	}
}

// NewCustomResponse creates a new Custom response
func NewCustomResponse(meta []byte, err error) *Message {
	msg := &Message{
		MsgType: MsgTCustom,
		Meta:    meta,
	}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewErrorResponse creates a new Error response
func NewErrorResponse(err string) *Message {
	return &Message{
		MsgType: MsgTError,
		Err:     err,
	}
}

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType defines the type of message used in RPC communication.
type MessageType uint8

var messageTypeNames = map[MessageType]string{
	MsgTSuccess:  "success",
	MsgTError:    "error",
	MsgTKVSet:    "set",
	MsgTKVGet:    "get",
	MsgTKVHas:    "has",
	MsgTKVRange:  "range",
	MsgTKVInfo:   "info",
	MsgTSubmit:   "submit",
	MsgTEvaluate: "evaluate",
	MsgTCustom:   "custom",
}

// String returns the string representation of a MessageType.
func (t MessageType) String() string {
	if name, ok := messageTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// MarshalJSON implements the json.Marshaller interface for MessageType.
// This allows MessageType to be serialized as a string in JSON.
func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for MessageType.
// This allows MessageType to be deserialized from a string in JSON.
func (t *MessageType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for msgType, name := range messageTypeNames {
		if name == s {
			*t = msgType
			return nil
		}
	}
	return fmt.Errorf("unknown message type: %s", s)
}

// --------------------------------------------------------------------------
// Message Type Constants
// --------------------------------------------------------------------------

const (
	// General message types

	MsgTUnknown MessageType = iota
	MsgTSuccess             // Indicates a successful operation
	MsgTError               // Indicates an error occurred

	// IStore operations

	MsgTKVSet   // Set a key-value pair
	MsgTKVGet   // Get a value by key
	MsgTKVHas   // Check if a key exists
	MsgTKVRange // Read all entries of a key range
	MsgTKVInfo  // Read the database info

	// Contract operations

	MsgTSubmit   // Run a contract function that may write the ledger
	MsgTEvaluate // Run a contract function read only

	// Custom operations

	MsgTCustom // Custom operation type
)
