// Package logstore is the durable, append-only chat log. Records are
// grouped by the UTC calendar day derived from their timestamp and stored
// in a go.etcd.io/bbolt database, lz4-compressed at rest.
package logstore

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"time"
)

// RecordKind distinguishes the three record shapes the core writes.
type RecordKind uint8

const (
	KindChat RecordKind = iota
	KindDM
	KindSystem
)

func (k RecordKind) String() string {
	switch k {
	case KindChat:
		return "chat"
	case KindDM:
		return "dm"
	case KindSystem:
		return "system"
	default:
		return fmt.Sprintf("RecordKind(%d)", uint8(k))
	}
}

// Record is one logged event: a chat broadcast, a DM, or a system note.
type Record struct {
	TsMillis     uint64
	RecvTsMillis uint64
	Kind         RecordKind
	FromPeerID   *int
	ToPeerID     *int
	Handle       string
	Text         string
	SignedOK     *bool
}

// Day returns the UTC calendar day this record belongs to, as YYYYMMDD.
func (r Record) Day() string {
	return time.UnixMilli(int64(r.TsMillis)).UTC().Format("20060102")
}

// encodeRecord serializes r into the current on-disk binary format: a
// small length-prefixed field encoding, not gob/json, so the format stays
// stable independent of the Go toolchain's encoding library versions.
func encodeRecord(r Record) []byte {
	var buf bytes.Buffer
	var u64 [8]byte

	binary.BigEndian.PutUint64(u64[:], r.TsMillis)
	buf.Write(u64[:])
	binary.BigEndian.PutUint64(u64[:], r.RecvTsMillis)
	buf.Write(u64[:])
	buf.WriteByte(byte(r.Kind))
	writeOptionalInt(&buf, r.FromPeerID)
	writeOptionalInt(&buf, r.ToPeerID)
	writeString(&buf, r.Handle)
	writeString(&buf, r.Text)
	writeOptionalBool(&buf, r.SignedOK)
	return buf.Bytes()
}

// decodeRecord is the inverse of encodeRecord.
func decodeRecord(data []byte) (Record, error) {
	r := bytes.NewReader(data)
	var rec Record

	ts, err := readUint64(r)
	if err != nil {
		return Record{}, err
	}
	rec.TsMillis = ts

	recv, err := readUint64(r)
	if err != nil {
		return Record{}, err
	}
	rec.RecvTsMillis = recv

	kindByte, err := r.ReadByte()
	if err != nil {
		return Record{}, fmt.Errorf("logstore: truncated record (kind): %w", err)
	}
	rec.Kind = RecordKind(kindByte)

	if rec.FromPeerID, err = readOptionalInt(r); err != nil {
		return Record{}, err
	}
	if rec.ToPeerID, err = readOptionalInt(r); err != nil {
		return Record{}, err
	}
	if rec.Handle, err = readString(r); err != nil {
		return Record{}, err
	}
	if rec.Text, err = readString(r); err != nil {
		return Record{}, err
	}
	if rec.SignedOK, err = readOptionalBool(r); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func writeString(buf *bytes.Buffer, s string) {
	var length [2]byte
	binary.BigEndian.PutUint16(length[:], uint16(len(s)))
	buf.Write(length[:])
	buf.WriteString(s)
}

func readString(r *bytes.Reader) (string, error) {
	var length [2]byte
	if _, err := io.ReadFull(r, length[:]); err != nil {
		return "", fmt.Errorf("logstore: truncated record (string len): %w", err)
	}
	n := binary.BigEndian.Uint16(length[:])
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil && n > 0 {
		return "", fmt.Errorf("logstore: truncated record (string body): %w", err)
	}
	return string(buf), nil
}

func writeOptionalInt(buf *bytes.Buffer, v *int) {
	if v == nil {
		buf.WriteByte(0)
		return
	}
	buf.WriteByte(1)
	var i32 [4]byte
	binary.BigEndian.PutUint32(i32[:], uint32(int32(*v)))
	buf.Write(i32[:])
}

func readOptionalInt(r *bytes.Reader) (*int, error) {
	present, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("logstore: truncated record (optional int tag): %w", err)
	}
	if present == 0 {
		return nil, nil
	}
	var i32 [4]byte
	if _, err := io.ReadFull(r, i32[:]); err != nil {
		return nil, fmt.Errorf("logstore: truncated record (optional int body): %w", err)
	}
	v := int(int32(binary.BigEndian.Uint32(i32[:])))
	return &v, nil
}

func writeOptionalBool(buf *bytes.Buffer, v *bool) {
	if v == nil {
		buf.WriteByte(0)
		return
	}
	if *v {
		buf.WriteByte(2)
	} else {
		buf.WriteByte(1)
	}
}

func readOptionalBool(r *bytes.Reader) (*bool, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("logstore: truncated record (optional bool): %w", err)
	}
	switch tag {
	case 0:
		return nil, nil
	case 1:
		f := false
		return &f, nil
	case 2:
		t := true
		return &t, nil
	default:
		return nil, fmt.Errorf("logstore: bad optional bool tag %d", tag)
	}
}

func readUint64(r *bytes.Reader) (uint64, error) {
	var u64 [8]byte
	if _, err := io.ReadFull(r, u64[:]); err != nil {
		return 0, fmt.Errorf("logstore: truncated record (u64): %w", err)
	}
	return binary.BigEndian.Uint64(u64[:]), nil
}
