package audit

import (
	"fmt"
	"sync"
	"time"

	"github.com/JLSed/Novault/internal/crypto"
	"github.com/JLSed/Novault/internal/wire"
)

// Entry records one crypto operation: what ran, which file it touched,
// and the content fingerprint involved. Chained: each entry's hash
// covers the previous one, so rewriting history breaks verification.
type Entry struct {
	TS          int64  `json:"ts"`
	Op          string `json:"op"`
	FileID      string `json:"file_id,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
	Hash        string `json:"hash"`
}

type Log struct {
	mu       sync.Mutex
	lastHash []byte
	entries  []Entry
}

func New() *Log { return &Log{} }

// Append chains a new entry. Safe for concurrent use; file operations
// land from multiple handlers at once.
func (l *Log) Append(op, fileID, fingerprint string) Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	sum := chainHash(l.lastHash, op, fileID, fingerprint)
	l.lastHash = sum[:]
	e := Entry{
		TS:          time.Now().Unix(),
		Op:          op,
		FileID:      fileID,
		Fingerprint: fingerprint,
		Hash:        wire.EncodeHex(sum[:]),
	}
	l.entries = append(l.entries, e)
	return e
}

// Verify walks the chain from the beginning.
func (l *Log) Verify() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	var prev []byte
	for i, e := range l.entries {
		sum := chainHash(prev, e.Op, e.FileID, e.Fingerprint)
		if wire.EncodeHex(sum[:]) != e.Hash {
			return fmt.Errorf("audit chain broken at entry %d", i)
		}
		prev = sum[:]
	}
	return nil
}

func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Entry(nil), l.entries...)
}

func chainHash(prev []byte, op, fileID, fingerprint string) [crypto.DigestSize]byte {
	buf := make([]byte, 0, len(prev)+len(op)+len(fileID)+len(fingerprint)+3)
	buf = append(buf, prev...)
	buf = append(buf, op...)
	buf = append(buf, 0)
	buf = append(buf, fileID...)
	buf = append(buf, 0)
	buf = append(buf, fingerprint...)
	buf = append(buf, 0)
	return crypto.SHA256Sum(buf)
}
