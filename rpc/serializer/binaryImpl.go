package serializer

import (
	"encoding/binary"
	"fmt"

	"github.com/gridledger/electric/lib/store"
	"github.com/gridledger/electric/rpc/common"
)

// NewBinarySerializer creates a new serializer using a custom binary format
// optimized for speed and efficiency
func NewBinarySerializer() IRPCSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IRPCSerializer using a custom binary format
//
// Layout: MsgType (1 byte) | flags (2 bytes, big endian) | present fields in flag order.
// Strings and byte slices are length prefixed (uint32), Args and Entries are
// prefixed with their element count (uint32).
type binarySerializerImpl struct {
}

// Bit flags to indicate which optional fields are present
const (
	hasKey     uint16 = 1 << 0
	hasEndKey  uint16 = 1 << 1
	hasValue   uint16 = 1 << 2
	hasFn      uint16 = 1 << 3
	hasArgs    uint16 = 1 << 4
	hasCreator uint16 = 1 << 5
	hasEntries uint16 = 1 << 6
	hasOk      uint16 = 1 << 7
	hasErr     uint16 = 1 << 8
	hasCode    uint16 = 1 << 9
	hasMeta    uint16 = 1 << 10
)

const headerSize = 3

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	result := make([]byte, b.sizeBytes(msg))
	result[0] = byte(msg.MsgType)

	var flags uint16
	w := writer{buf: result, pos: headerSize}

	if msg.Key != "" {
		flags |= hasKey
		w.string(msg.Key)
	}
	if msg.EndKey != "" {
		flags |= hasEndKey
		w.string(msg.EndKey)
	}
	if msg.Value != nil {
		flags |= hasValue
		w.bytes(msg.Value)
	}
	if msg.Fn != "" {
		flags |= hasFn
		w.string(msg.Fn)
	}
	if msg.Args != nil {
		flags |= hasArgs
		w.uint32(uint32(len(msg.Args)))
		for _, arg := range msg.Args {
			w.string(arg)
		}
	}
	if msg.Creator != "" {
		flags |= hasCreator
		w.string(msg.Creator)
	}
	if msg.Entries != nil {
		flags |= hasEntries
		w.uint32(uint32(len(msg.Entries)))
		for _, kv := range msg.Entries {
			w.string(kv.Key)
			w.bytes(kv.Value)
		}
	}
	if msg.Ok {
		flags |= hasOk
		w.buf[w.pos] = 1
		w.pos++
	}
	if msg.Err != "" {
		flags |= hasErr
		w.string(msg.Err)
	}
	if msg.Code != "" {
		flags |= hasCode
		w.string(msg.Code)
	}
	if msg.Meta != nil {
		flags |= hasMeta
		w.bytes(msg.Meta)
	}

	// Set flags after knowing which fields are present
	binary.BigEndian.PutUint16(result[1:3], flags)

	return result, nil
}

func (b binarySerializerImpl) Deserialize(data []byte, msg *common.Message) error {
	// Check minimum size (MsgType + flags)
	if len(data) < headerSize {
		return fmt.Errorf("data too short for message header")
	}

	msg.MsgType = common.MessageType(data[0])
	flags := binary.BigEndian.Uint16(data[1:3])
	r := reader{data: data, pos: headerSize}

	var err error
	field := func(flag uint16, name string, read func() error) {
		if err != nil || flags&flag == 0 {
			return
		}
		if e := read(); e != nil {
			err = fmt.Errorf("data too short for %s", name)
		}
	}

	msg.Key, msg.EndKey, msg.Fn, msg.Creator, msg.Err, msg.Code = "", "", "", "", "", ""
	msg.Value, msg.Meta, msg.Args, msg.Entries, msg.Ok = nil, nil, nil, nil, false

	field(hasKey, "key", func() (e error) { msg.Key, e = r.string(); return })
	field(hasEndKey, "end key", func() (e error) { msg.EndKey, e = r.string(); return })
	field(hasValue, "value", func() (e error) { msg.Value, e = r.bytes(); return })
	field(hasFn, "function", func() (e error) { msg.Fn, e = r.string(); return })
	field(hasArgs, "args", func() error {
		n, e := r.uint32()
		if e != nil {
			return e
		}
		if int(n) > r.remaining()/4 {
			return errShort
		}
		msg.Args = make([]string, n)
		for i := range msg.Args {
			if msg.Args[i], e = r.string(); e != nil {
				return e
			}
		}
		return nil
	})
	field(hasCreator, "creator", func() (e error) { msg.Creator, e = r.string(); return })
	field(hasEntries, "entries", func() error {
		n, e := r.uint32()
		if e != nil {
			return e
		}
		if int(n) > r.remaining()/8 {
			return errShort
		}
		msg.Entries = make([]store.KV, n)
		for i := range msg.Entries {
			if msg.Entries[i].Key, e = r.string(); e != nil {
				return e
			}
			if msg.Entries[i].Value, e = r.bytes(); e != nil {
				return e
			}
		}
		return nil
	})
	field(hasOk, "ok flag", func() error {
		if r.remaining() < 1 {
			return errShort
		}
		msg.Ok = r.data[r.pos] != 0
		r.pos++
		return nil
	})
	field(hasErr, "error", func() (e error) { msg.Err, e = r.string(); return })
	field(hasCode, "code", func() (e error) { msg.Code, e = r.string(); return })
	field(hasMeta, "meta", func() (e error) { msg.Meta, e = r.bytes(); return })

	return err
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// sizeBytes calculates the total size needed for serialization
func (b binarySerializerImpl) sizeBytes(msg common.Message) int {
	size := headerSize

	// 4 bytes length prefix for every variable length field
	if msg.Key != "" {
		size += 4 + len(msg.Key)
	}
	if msg.EndKey != "" {
		size += 4 + len(msg.EndKey)
	}
	if msg.Value != nil {
		size += 4 + len(msg.Value)
	}
	if msg.Fn != "" {
		size += 4 + len(msg.Fn)
	}
	if msg.Args != nil {
		size += 4
		for _, arg := range msg.Args {
			size += 4 + len(arg)
		}
	}
	if msg.Creator != "" {
		size += 4 + len(msg.Creator)
	}
	if msg.Entries != nil {
		size += 4
		for _, kv := range msg.Entries {
			size += 8 + len(kv.Key) + len(kv.Value)
		}
	}
	if msg.Ok {
		size += 1
	}
	if msg.Err != "" {
		size += 4 + len(msg.Err)
	}
	if msg.Code != "" {
		size += 4 + len(msg.Code)
	}
	if msg.Meta != nil {
		size += 4 + len(msg.Meta)
	}

	return size
}

var errShort = fmt.Errorf("short buffer")

type writer struct {
	buf []byte
	pos int
}

func (w *writer) uint32(v uint32) {
	binary.BigEndian.PutUint32(w.buf[w.pos:w.pos+4], v)
	w.pos += 4
}

func (w *writer) string(s string) {
	w.uint32(uint32(len(s)))
	w.pos += copy(w.buf[w.pos:], s)
}

func (w *writer) bytes(b []byte) {
	w.uint32(uint32(len(b)))
	w.pos += copy(w.buf[w.pos:], b)
}

type reader struct {
	data []byte
	pos  int
}

func (r *reader) remaining() int {
	return len(r.data) - r.pos
}

func (r *reader) uint32() (uint32, error) {
	if r.remaining() < 4 {
		return 0, errShort
	}
	v := binary.BigEndian.Uint32(r.data[r.pos : r.pos+4])
	r.pos += 4
	return v, nil
}

// bytes reads a length prefixed byte slice. A zero length yields an empty, non nil slice.
func (r *reader) bytes() ([]byte, error) {
	n, err := r.uint32()
	if err != nil {
		return nil, err
	}
	if uint64(n) > uint64(r.remaining()) {
		return nil, errShort
	}
	b := make([]byte, n)
	copy(b, r.data[r.pos:r.pos+int(n)])
	r.pos += int(n)
	return b, nil
}

func (r *reader) string() (string, error) {
	n, err := r.uint32()
	if err != nil {
		return "", err
	}
	if uint64(n) > uint64(r.remaining()) {
		return "", errShort
	}
	s := string(r.data[r.pos : r.pos+int(n)])
	r.pos += int(n)
	return s, nil
}
