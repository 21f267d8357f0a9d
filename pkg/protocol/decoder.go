package protocol

import "encoding/binary"

// DefaultMaxPayload is the decoder's default payload cap: 512 KiB.
const DefaultMaxPayload = 512 * 1024

// Decoder turns a byte feed into a sequence of complete Messages. It owns
// an internal buffer; Feed never fails, and Drain either returns the
// messages that could be extracted from the head of the buffer so far or a
// fatal *DecodeError, in which case the connection that owns this decoder
// must be terminated.
type Decoder struct {
	buf        []byte
	maxPayload uint32
}

// NewDecoder returns a Decoder with DefaultMaxPayload.
func NewDecoder() *Decoder {
	return NewDecoderWithMax(DefaultMaxPayload)
}

// NewDecoderWithMax returns a Decoder that rejects frames whose payload_len
// exceeds maxPayload.
func NewDecoderWithMax(maxPayload uint32) *Decoder {
	return &Decoder{maxPayload: maxPayload}
}

// Feed appends data to the internal buffer.
func (d *Decoder) Feed(data []byte) {
	d.buf = append(d.buf, data...)
}

// BufferedLen returns the current buffered byte count.
func (d *Decoder) BufferedLen() int {
	return len(d.buf)
}

// Drain repeatedly attempts to extract a complete frame from the head of
// the buffer, in the order specified by the frame format's decode checks.
// A successful extraction consumes exactly HeaderSize+P+S+L bytes.
func (d *Decoder) Drain() ([]*Message, error) {
	var out []*Message
	for {
		if len(d.buf) < HeaderSize {
			return out, nil
		}
		version := d.buf[0]
		if version != Version {
			return out, ErrUnsupportedVersion(version)
		}
		kindByte := d.buf[1]
		if !validKind(kindByte) {
			return out, ErrUnsupportedKind(kindByte)
		}
		attenuation := d.buf[2]
		if attenuation > MaxAttenuation {
			return out, ErrBadAttenuation(attenuation)
		}
		payloadLen := binary.BigEndian.Uint32(d.buf[3:7])
		if payloadLen > d.maxPayload {
			return out, ErrLengthTooLarge(payloadLen)
		}
		pkLen := binary.BigEndian.Uint32(d.buf[7:11])
		sigLen := binary.BigEndian.Uint32(d.buf[11:15])
		timestamp := binary.BigEndian.Uint64(d.buf[15:23])

		total := HeaderSize + int(pkLen) + int(sigLen) + int(payloadLen)
		if len(d.buf) < total {
			return out, nil
		}

		off := HeaderSize
		var pk, sig []byte
		if pkLen > 0 {
			pk = append([]byte(nil), d.buf[off:off+int(pkLen)]...)
		}
		off += int(pkLen)
		if sigLen > 0 {
			sig = append([]byte(nil), d.buf[off:off+int(sigLen)]...)
		}
		off += int(sigLen)
		var payload []byte
		if payloadLen > 0 {
			payload = append([]byte(nil), d.buf[off:off+int(payloadLen)]...)
		}

		out = append(out, &Message{
			Version:     version,
			Kind:        Kind(kindByte),
			Attenuation: attenuation,
			Timestamp:   timestamp,
			Payload:     payload,
			PublicKey:   pk,
			Signature:   sig,
		})

		d.buf = d.buf[total:]
	}
}
