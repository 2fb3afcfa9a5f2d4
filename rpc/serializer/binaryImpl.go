package serializer

import (
	"encoding/binary"
	"fmt"
	"github.com/ValentinKolb/dTetris/lib/tetris"
	"github.com/ValentinKolb/dTetris/rpc/common"
)

// NewBinarySerializer creates a new serializer using a custom binary format
// optimized for speed and efficiency
func NewBinarySerializer() IRPCSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IRPCSerializer using a custom binary format
type binarySerializerImpl struct {
}

// Bit flags to indicate which optional fields are present
const (
	hasMode     byte = 1 << 0
	hasMatchID  byte = 1 << 1
	hasIndex    byte = 1 << 2
	hasSeed     byte = 1 << 3
	hasAction   byte = 1 << 4
	hasSnapshot byte = 1 << 5
	hasReason   byte = 1 << 6
	hasErr      byte = 1 << 7
)

// Bit flags of an encoded snapshot
const (
	snapHasCells byte = 1 << 0
	snapGameOver byte = 1 << 1
)

// snapshotFixedSize is the size of an encoded snapshot without its cells:
// flags(1) revision(8) score(8) lines(4) kind(1) rotation(1) x(4) y(4) next(1)
const snapshotFixedSize = 32

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	// Calculate total size needed
	totalSize := b.sizeBytes(msg)
	result := make([]byte, totalSize)

	// Write message type
	result[0] = byte(msg.MsgType)

	// Initialize flags byte
	var flags byte = 0

	// Set position for writing
	pos := 2 // Start after MsgType and flags

	if msg.Mode != "" {
		flags |= hasMode
		pos = putString(result, pos, msg.Mode)
	}

	if msg.MatchID != "" {
		flags |= hasMatchID
		pos = putString(result, pos, msg.MatchID)
	}

	if msg.Index != 0 {
		flags |= hasIndex
		binary.BigEndian.PutUint32(result[pos:pos+4], uint32(msg.Index))
		pos += 4
	}

	if msg.Seed != 0 {
		flags |= hasSeed
		binary.BigEndian.PutUint64(result[pos:pos+8], msg.Seed)
		pos += 8
	}

	if msg.Action != "" {
		flags |= hasAction
		pos = putString(result, pos, msg.Action)
	}

	if msg.Snapshot != nil {
		flags |= hasSnapshot
		pos = putSnapshot(result, pos, msg.Snapshot)
	}

	if msg.Reason != "" {
		flags |= hasReason
		pos = putString(result, pos, msg.Reason)
	}

	if msg.Err != "" {
		flags |= hasErr
		pos = putString(result, pos, msg.Err)
	}

	// Set flags byte after knowing which fields are present
	result[1] = flags

	return result, nil
}

func (b binarySerializerImpl) Deserialize(data []byte, msg *common.Message) error {
	// Check minimum size (MsgType + flags)
	if len(data) < 2 {
		return fmt.Errorf("data too short for message header")
	}

	*msg = common.Message{}

	// Read message type
	msg.MsgType = common.MessageType(data[0])

	// Read flags
	flags := data[1]

	// Initialize read position
	pos := 2
	var err error

	if flags&hasMode != 0 {
		if msg.Mode, pos, err = readString(data, pos, "mode"); err != nil {
			return err
		}
	}

	if flags&hasMatchID != 0 {
		if msg.MatchID, pos, err = readString(data, pos, "match id"); err != nil {
			return err
		}
	}

	if flags&hasIndex != 0 {
		if pos+4 > len(data) {
			return fmt.Errorf("data too short for index")
		}
		msg.Index = int32(binary.BigEndian.Uint32(data[pos : pos+4]))
		pos += 4
	}

	if flags&hasSeed != 0 {
		if pos+8 > len(data) {
			return fmt.Errorf("data too short for seed")
		}
		msg.Seed = binary.BigEndian.Uint64(data[pos : pos+8])
		pos += 8
	}

	if flags&hasAction != 0 {
		if msg.Action, pos, err = readString(data, pos, "action"); err != nil {
			return err
		}
	}

	if flags&hasSnapshot != 0 {
		if msg.Snapshot, pos, err = readSnapshot(data, pos); err != nil {
			return err
		}
	}

	if flags&hasReason != 0 {
		if msg.Reason, pos, err = readString(data, pos, "reason"); err != nil {
			return err
		}
	}

	if flags&hasErr != 0 {
		if msg.Err, pos, err = readString(data, pos, "error"); err != nil {
			return err
		}
	}

	if pos != len(data) {
		return fmt.Errorf("%d trailing bytes after message", len(data)-pos)
	}
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// sizeBytes calculates the total size needed for serialization
func (b binarySerializerImpl) sizeBytes(msg common.Message) int {
	// 1 byte for MsgType + 1 byte for flags
	size := 2

	// Add sizes for fields that require length encoding
	if msg.Mode != "" {
		size += 4 + len(msg.Mode)
	}
	if msg.MatchID != "" {
		size += 4 + len(msg.MatchID)
	}
	if msg.Index != 0 {
		size += 4 // int32
	}
	if msg.Seed != 0 {
		size += 8 // uint64
	}
	if msg.Action != "" {
		size += 4 + len(msg.Action)
	}
	if msg.Snapshot != nil {
		size += snapshotFixedSize
		if !msg.Snapshot.IsPartial() {
			size += 4 + len(msg.Snapshot.Cells)
		}
	}
	if msg.Reason != "" {
		size += 4 + len(msg.Reason)
	}
	if msg.Err != "" {
		size += 4 + len(msg.Err)
	}

	return size
}

// putString writes a length prefixed string and returns the new position
func putString(buf []byte, pos int, s string) int {
	binary.BigEndian.PutUint32(buf[pos:pos+4], uint32(len(s)))
	pos += 4
	return pos + copy(buf[pos:], s)
}

// readString reads a length prefixed string
func readString(data []byte, pos int, field string) (string, int, error) {
	if pos+4 > len(data) {
		return "", pos, fmt.Errorf("data too short for %s length", field)
	}
	n := int(binary.BigEndian.Uint32(data[pos : pos+4]))
	pos += 4
	if n < 0 || pos+n > len(data) {
		return "", pos, fmt.Errorf("data too short for %s data", field)
	}
	return string(data[pos : pos+n]), pos + n, nil
}

func putSnapshot(buf []byte, pos int, s *tetris.Snapshot) int {
	var flags byte
	if !s.IsPartial() {
		flags |= snapHasCells
	}
	if s.GameOver {
		flags |= snapGameOver
	}
	buf[pos] = flags
	binary.BigEndian.PutUint64(buf[pos+1:], s.Revision)
	binary.BigEndian.PutUint64(buf[pos+9:], s.Score)
	binary.BigEndian.PutUint32(buf[pos+17:], s.Lines)
	buf[pos+21] = byte(s.Piece.Kind)
	buf[pos+22] = s.Piece.Rotation
	binary.BigEndian.PutUint32(buf[pos+23:], uint32(s.Piece.X))
	binary.BigEndian.PutUint32(buf[pos+27:], uint32(s.Piece.Y))
	buf[pos+31] = byte(s.Next)
	pos += snapshotFixedSize

	if flags&snapHasCells != 0 {
		binary.BigEndian.PutUint32(buf[pos:pos+4], uint32(len(s.Cells)))
		pos += 4
		pos += copy(buf[pos:], s.Cells)
	}
	return pos
}

func readSnapshot(data []byte, pos int) (*tetris.Snapshot, int, error) {
	if pos+snapshotFixedSize > len(data) {
		return nil, pos, fmt.Errorf("data too short for snapshot")
	}
	flags := data[pos]
	s := &tetris.Snapshot{
		Revision: binary.BigEndian.Uint64(data[pos+1:]),
		Score:    binary.BigEndian.Uint64(data[pos+9:]),
		Lines:    binary.BigEndian.Uint32(data[pos+17:]),
		Piece: tetris.Piece{
			Kind:     tetris.Kind(data[pos+21]),
			Rotation: data[pos+22],
			X:        int32(binary.BigEndian.Uint32(data[pos+23:])),
			Y:        int32(binary.BigEndian.Uint32(data[pos+27:])),
		},
		Next:     tetris.Kind(data[pos+31]),
		GameOver: flags&snapGameOver != 0,
	}
	pos += snapshotFixedSize

	if flags&snapHasCells != 0 {
		if pos+4 > len(data) {
			return nil, pos, fmt.Errorf("data too short for cells length")
		}
		n := int(binary.BigEndian.Uint32(data[pos : pos+4]))
		pos += 4
		if n < 0 || pos+n > len(data) {
			return nil, pos, fmt.Errorf("data too short for cells")
		}
		// copy so the snapshot does not alias the frame buffer
		s.Cells = make([]byte, n)
		copy(s.Cells, data[pos:pos+n])
		pos += n
	}
	return s, pos, nil
}
