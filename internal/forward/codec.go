package forward

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Decoder reconstructs a Command from its opcode and body bytes. Each
// command package registers its own decoders at init time (see the
// init functions in internal/command's files) to avoid forward importing
// command (which would cycle, since command imports forward to
// implement Command).
type Decoder func(r *Reader) (Command, error)

var decoders = make(map[OpCode]Decoder)

// RegisterDecoder associates an OpCode with the function that decodes
// its variant body. Called from command package init functions.
func RegisterDecoder(op OpCode, dec Decoder) {
	decoders[op] = dec
}

// EncodeMessage serializes {write_id u64, slot_id u16, tag u8, body}
// exactly per spec.md §4.F.
func EncodeMessage(m Message) ([]byte, error) {
	var header [10]byte
	binary.BigEndian.PutUint64(header[0:8], m.WriteID)
	binary.BigEndian.PutUint16(header[8:10], m.SlotID)

	w := NewWriter()
	w.buf = append(w.buf, header[:]...)
	if m.Cmd == nil {
		return nil, fmt.Errorf("forward: message has no command")
	}
	w.buf = append(w.buf, byte(m.Cmd.OpCode()))
	if err := m.Cmd.EncodeBody(w); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// WriteMessage length-prefixes and writes an encoded message, matching
// spec.md §4.H's "length-prefixed bincode record" wire shape for the
// replication tail stream and §4.G's AOF file format (AOF omits the
// length prefix; see internal/persist for the bare-concatenation form).
func WriteMessage(w io.Writer, m Message) error {
	body, err := EncodeMessage(m)
	if err != nil {
		return err
	}
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(body)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err = w.Write(body)
	return err
}

// ReadMessage reads one length-prefixed message from r.
func ReadMessage(r io.Reader) (Message, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return Message{}, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return Message{}, err
	}
	return DecodeMessage(body)
}

// DecodeMessage parses a bare (non-length-prefixed) encoded message,
// used directly by AOF replay where messages are simply concatenated.
func DecodeMessage(body []byte) (Message, error) {
	if len(body) < 11 {
		return Message{}, fmt.Errorf("forward: truncated message header")
	}
	writeID := binary.BigEndian.Uint64(body[0:8])
	slotID := binary.BigEndian.Uint16(body[8:10])
	op := OpCode(body[10])
	dec, ok := decoders[op]
	if !ok {
		return Message{}, fmt.Errorf("forward: no decoder registered for opcode %d", op)
	}
	cmd, err := dec(NewReader(byteReaderFrom(body[11:])))
	if err != nil {
		return Message{}, err
	}
	return Message{WriteID: writeID, SlotID: slotID, Cmd: cmd}, nil
}

// byteReaderFrom adapts a byte slice to io.Reader without an extra copy.
type sliceReader struct {
	b []byte
	i int
}

func (s *sliceReader) Read(p []byte) (int, error) {
	if s.i >= len(s.b) {
		return 0, io.EOF
	}
	n := copy(p, s.b[s.i:])
	s.i += n
	return n, nil
}

func byteReaderFrom(b []byte) io.Reader { return &sliceReader{b: b} }

// DecodeAOFStream decodes a sequence of bare (non-length-prefixed)
// messages from an AOF file by repeatedly peeking the fixed 11-byte
// header, then asking the registered decoder to consume its own body
// from the same stream (the body length is variable and opcode-specific,
// mirroring spec.md §4.G's "bytes on disk are exactly the concatenation
// of ForwardMessages").
func DecodeAOFStream(r io.Reader, onMessage func(Message) error) error {
	for {
		var header [11]byte
		if _, err := io.ReadFull(r, header[:]); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		writeID := binary.BigEndian.Uint64(header[0:8])
		slotID := binary.BigEndian.Uint16(header[8:10])
		op := OpCode(header[10])
		dec, ok := decoders[op]
		if !ok {
			return fmt.Errorf("forward: no decoder registered for opcode %d", op)
		}
		cmd, err := dec(NewReader(r))
		if err != nil {
			return err
		}
		if err := onMessage(Message{WriteID: writeID, SlotID: slotID, Cmd: cmd}); err != nil {
			return err
		}
	}
}
