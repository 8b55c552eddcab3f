package internal

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/gridledger/electric/lib/db"
)

// TestSizeBytes tests the SizeBytes method
func TestSizeBytes(t *testing.T) {
	tests := []struct {
		name     string
		command  Command
		expected int
	}{
		{
			name:     "Command with key and value",
			command:  Command{Type: CommandTSet, Key: "testkey", Value: []byte("testvalue")},
			expected: 1 + 4 + 7 + 9, // Type + KeyLen + Key + Value
		},
		{
			name:     "Command with empty key",
			command:  Command{Type: CommandTSet, Key: "", Value: []byte("testvalue")},
			expected: 1 + 4 + 0 + 9,
		},
		{
			name:     "Command without value",
			command:  Command{Type: CommandTSet, Key: "testkey"},
			expected: 1 + 4 + 7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			size := tt.command.SizeBytes()
			if size != tt.expected {
				t.Errorf("SizeBytes() = %v, want %v", size, tt.expected)
			}
		})
	}
}

// TestSerializeDeserialize tests both Serialize and Deserialize methods
func TestSerializeDeserialize(t *testing.T) {
	tests := []struct {
		name    string
		command Command
	}{
		{
			name:    "Standard command with value",
			command: Command{Type: CommandTSet, Key: "testkey", Value: []byte("testvalue")},
		},
		{
			name:    "Command without value",
			command: Command{Type: CommandTSet, Key: "testkey", Value: nil},
		},
		{
			name:    "Command with empty key",
			command: Command{Type: CommandTSet, Key: "", Value: []byte("testvalue")},
		},
		{
			name: "Composite usage key",
			command: Command{
				Type:  CommandTSet,
				Key:   "USAGE\x00alice\x0000000001554650825727",
				Value: []byte(`{"docType":"usage","userId":"alice"}`),
			},
		},
		{
			name:    "Command with binary value",
			command: Command{Type: CommandTSet, Key: "binary", Value: []byte{0, 1, 2, 3, 254, 255}},
		},
		{
			name:    "Command with Unicode key",
			command: Command{Type: CommandTSet, Key: "USER\x00你好世界", Value: []byte("unicode test")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.command.Serialize()

			var newCommand Command
			if err := newCommand.Deserialize(data); err != nil {
				t.Fatalf("Deserialize() error = %v", err)
			}

			if newCommand.Type != tt.command.Type {
				t.Errorf("Type mismatch: got %v, want %v", newCommand.Type, tt.command.Type)
			}
			if newCommand.Key != tt.command.Key {
				t.Errorf("Key mismatch: got %q, want %q", newCommand.Key, tt.command.Key)
			}

			// Value comparison handling nil case
			if tt.command.Value == nil {
				if len(newCommand.Value) != 0 {
					t.Errorf("Value should be nil or empty, got %v", newCommand.Value)
				}
			} else if !bytes.Equal(newCommand.Value, tt.command.Value) {
				t.Errorf("Value mismatch: got %v, want %v", newCommand.Value, tt.command.Value)
			}

			if tt.command.SizeBytes() != len(data) {
				t.Errorf("SizeBytes() = %d, but serialized data length = %d",
					tt.command.SizeBytes(), len(data))
			}
		})
	}
}

// TestDeserializeErrors tests error cases in Deserialize
func TestDeserializeErrors(t *testing.T) {
	tests := []struct {
		name        string
		data        []byte
		expectedErr string
	}{
		{
			name:        "Empty data",
			data:        []byte{},
			expectedErr: "data too short for command",
		},
		{
			name:        "Data too short (less than header)",
			data:        []byte{0, 0, 0},
			expectedErr: "data too short for command",
		},
		{
			name: "Invalid key length",
			data: func() []byte {
				data := make([]byte, 5)
				data[0] = byte(CommandTSet)
				binary.BigEndian.PutUint32(data[1:5], 1000)
				return data
			}(),
			expectedErr: "data too short for key of length 1000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cmd Command
			err := cmd.Deserialize(tt.data)

			if err == nil {
				t.Fatalf("Expected error but got nil")
			}
			if err.Error() != tt.expectedErr {
				t.Errorf("Expected error %q, got %q", tt.expectedErr, err.Error())
			}
		})
	}
}

// TestBinaryFormat tests the exact binary format of serialized commands
func TestBinaryFormat(t *testing.T) {
	cmd := Command{
		Type:  CommandTSet,
		Key:   "testkey",
		Value: []byte("testvalue"),
	}

	expected := make([]byte, cmd.SizeBytes())
	expected[0] = byte(CommandTSet)
	binary.BigEndian.PutUint32(expected[1:5], 7) // "testkey" length
	copy(expected[5:12], "testkey")
	copy(expected[12:], "testvalue")

	serialized := cmd.Serialize()
	if !bytes.Equal(serialized, expected) {
		t.Errorf("Binary format does not match:\nGot:      %v\nExpected: %v", serialized, expected)
	}
}

// TestBufferReuse tests that the Deserialize method reuses buffers when possible
func TestBufferReuse(t *testing.T) {
	cmd := Command{Type: CommandTSet, Key: "key", Value: []byte("original value")}
	originalBuffer := cmd.Value

	cmd2 := Command{Type: CommandTSet, Key: "key", Value: []byte("changed value")}
	if err := cmd.Deserialize(cmd2.Serialize()); err != nil {
		t.Fatalf("Deserialize() error = %v", err)
	}

	if cap(cmd.Value) != cap(originalBuffer) {
		t.Logf("Buffer capacity changed from %d to %d", cap(originalBuffer), cap(cmd.Value))
	}
	if !bytes.Equal(cmd.Value, []byte("changed value")) {
		t.Errorf("Value not correctly deserialized: got %q, want %q", string(cmd.Value), "changed value")
	}

	cmd3 := Command{Type: CommandTSet, Key: "key", Value: []byte("this is a much longer value that won't fit in the original buffer")}
	beforeCap := cap(cmd.Value)

	if err := cmd.Deserialize(cmd3.Serialize()); err != nil {
		t.Fatalf("Deserialize() error = %v", err)
	}
	if cap(cmd.Value) <= beforeCap {
		t.Errorf("Buffer capacity did not increase for larger value: still %d", cap(cmd.Value))
	}
	if !bytes.Equal(cmd.Value, cmd3.Value) {
		t.Errorf("Value not correctly deserialized")
	}
}

func TestCommandTypeFeature(t *testing.T) {
	feat, err := CommandTSet.ToDBFeature()
	if err != nil || feat != db.FeatureSet {
		t.Errorf("expected FeatureSet, got %v (err=%v)", feat, err)
	}
	if _, err := CommandType(42).ToDBFeature(); err == nil {
		t.Errorf("expected error for unknown command type")
	}
	if CommandType(42).String() != "Unknown(42)" {
		t.Errorf("unexpected string for unknown command type: %s", CommandType(42).String())
	}
}
