package logstore

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/pierrec/lz4"
	bolt "go.etcd.io/bbolt"
)

var messagesBucket = []byte("messages")

const indexKey = "index"

// Store is the durable, append-only chat log described by the durable log
// interface: append_structured, list_dates, load_day. It is safe to call
// from any goroutine; bbolt serializes writers internally and this type
// adds no further locking.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if absent) the bbolt database at path and ensures
// the messages bucket exists.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("logstore: opening %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(messagesBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("logstore: initializing bucket: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// AppendStructured appends rec to its calendar day's log, atomically
// bumping that day's counter and, if this is the day's first record,
// adding it to the index.
func (s *Store) AppendStructured(rec Record) error {
	day := rec.Day()
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(messagesBucket)

		cntKey := []byte("cnt:" + day)
		cnt := uint64(0)
		if raw := b.Get(cntKey); raw != nil {
			cnt = binary.BigEndian.Uint64(raw)
		} else if err := addToIndex(b, day); err != nil {
			return err
		}

		msgKey := []byte(day + strconv.FormatUint(cnt, 10))
		if err := b.Put(msgKey, compress(encodeRecord(rec))); err != nil {
			return err
		}

		var next [8]byte
		binary.BigEndian.PutUint64(next[:], cnt+1)
		return b.Put(cntKey, next[:])
	})
}

// ListDates returns every known YYYYMMDD day string, ascending.
func (s *Store) ListDates() ([]string, error) {
	var dates []string
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(messagesBucket)
		raw := b.Get([]byte(indexKey))
		if len(raw) == 0 {
			return nil
		}
		dates = strings.Split(string(raw), "\n")
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("logstore: listing dates: %w", err)
	}
	sort.Strings(dates)
	return dates, nil
}

// LoadDay returns every record logged on day (YYYYMMDD), in the order
// they were appended.
func (s *Store) LoadDay(day string) ([]Record, error) {
	var records []Record
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(messagesBucket)
		cntKey := []byte("cnt:" + day)
		raw := b.Get(cntKey)
		if raw == nil {
			return nil
		}
		cnt := binary.BigEndian.Uint64(raw)
		for i := uint64(0); i < cnt; i++ {
			msgKey := []byte(day + strconv.FormatUint(i, 10))
			val := b.Get(msgKey)
			if val == nil {
				continue
			}
			rec, err := decodeStoredValue(val)
			if err != nil {
				return fmt.Errorf("logstore: decoding %s[%d]: %w", day, i, err)
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// addToIndex inserts day into the newline-separated index key, keeping it
// sorted and deduplicated. Caller holds the write transaction.
func addToIndex(b *bolt.Bucket, day string) error {
	raw := b.Get([]byte(indexKey))
	var dates []string
	if len(raw) > 0 {
		dates = strings.Split(string(raw), "\n")
	}
	for _, d := range dates {
		if d == day {
			return nil
		}
	}
	dates = append(dates, day)
	sort.Strings(dates)
	return b.Put([]byte(indexKey), []byte(strings.Join(dates, "\n")))
}

func compress(data []byte) []byte {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	_, _ = w.Write(data)
	_ = w.Close()
	return buf.Bytes()
}

// decodeStoredValue decodes a value written by the current format; if lz4
// decompression fails, it falls back to the legacy "ts|text" plain-text
// format that older versions of this store wrote.
func decodeStoredValue(val []byte) (Record, error) {
	r := lz4.NewReader(bytes.NewReader(val))
	decompressed, err := io.ReadAll(r)
	if err == nil {
		rec, decErr := decodeRecord(decompressed)
		if decErr == nil {
			return rec, nil
		}
	}
	return decodeLegacy(val)
}

// decodeLegacy parses the pre-existing "ts|text" plain-text record format.
func decodeLegacy(val []byte) (Record, error) {
	parts := strings.SplitN(string(val), "|", 2)
	if len(parts) != 2 {
		return Record{}, fmt.Errorf("logstore: not a legacy ts|text record")
	}
	ts, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("logstore: legacy record bad timestamp: %w", err)
	}
	return Record{
		TsMillis:     ts,
		RecvTsMillis: ts,
		Kind:         KindSystem,
		Text:         parts[1],
	}, nil
}
