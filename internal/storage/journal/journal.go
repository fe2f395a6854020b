// Package journal writes an append-only log of market events. Entries are
// framed, lz4-compressed records so a consumer can rebuild notification
// streams or audit settlements after the fact.
package journal

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/pierrec/lz4"
	"golang.org/x/sync/errgroup"

	"github.com/tidemark/marketd/internal/core/market"
)

var (
	// ErrJournalClosed indicates an append after Close.
	ErrJournalClosed = errors.New("journal is closed")

	// ErrCorruptEntry indicates an unreadable record during replay.
	ErrCorruptEntry = errors.New("corrupt journal entry")
)

// Don't compress records smaller than this; the lz4 header overhead
// outweighs the savings.
const minCompressSize = 128

// Entry is one journaled event.
type Entry struct {
	Seq     uint64          `json:"seq"`
	Time    int64           `json:"time"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Journal is an append-only event log. Appends are enqueued and written by
// a background goroutine; Flush and Close drain the queue.
type Journal struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	queue  chan Entry
	group  *errgroup.Group
	seq    uint64
	closed bool

	pending sync.WaitGroup
}

// Open opens (or creates) a journal at path and starts the writer.
func Open(path string) (*Journal, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}

	j := &Journal{
		path:  path,
		file:  file,
		queue: make(chan Entry, 256),
	}

	// resume the sequence from the existing tail
	if err := replayPath(path, func(e Entry) error {
		if e.Seq > j.seq {
			j.seq = e.Seq
		}
		return nil
	}); err != nil {
		file.Close()
		return nil, err
	}

	j.group = &errgroup.Group{}
	j.group.Go(j.writeLoop)
	return j, nil
}

// Append enqueues one entry per event. The write happens asynchronously;
// call Flush for a durability barrier.
func (j *Journal) Append(events []market.Event, now int64) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return ErrJournalClosed
	}

	for _, event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("encode journal event: %w", err)
		}
		j.seq++
		j.pending.Add(1)
		j.queue <- Entry{
			Seq:     j.seq,
			Time:    now,
			Type:    event.EventType(),
			Payload: payload,
		}
	}
	return nil
}

// Flush blocks until every queued entry reached the file and syncs it.
func (j *Journal) Flush() error {
	j.mu.Lock()
	if j.closed {
		j.mu.Unlock()
		return ErrJournalClosed
	}
	j.mu.Unlock()

	j.pending.Wait()
	return j.file.Sync()
}

// Close drains the queue, stops the writer, and closes the file.
func (j *Journal) Close() error {
	j.mu.Lock()
	if j.closed {
		j.mu.Unlock()
		return nil
	}
	j.closed = true
	close(j.queue)
	j.mu.Unlock()

	err := j.group.Wait()
	if syncErr := j.file.Sync(); err == nil {
		err = syncErr
	}
	if closeErr := j.file.Close(); err == nil {
		err = closeErr
	}
	return err
}

// Size returns the number of entries written so far.
func (j *Journal) Size() uint64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.seq
}

// Replay visits every fully written entry in write order. Entries still in
// the queue are not seen; call Flush first for a complete view.
func (j *Journal) Replay(fn func(Entry) error) error {
	j.mu.Lock()
	if j.closed {
		j.mu.Unlock()
		return ErrJournalClosed
	}
	path := j.path
	j.mu.Unlock()

	j.pending.Wait()
	return replayPath(path, fn)
}

// writeLoop drains the queue until Close. After a failure it keeps
// consuming entries (dropping them) so Append never blocks on a full
// channel and Flush never waits on entries that will not be written; the
// first error surfaces from Close.
func (j *Journal) writeLoop() error {
	var failed error
	for entry := range j.queue {
		if failed != nil {
			j.pending.Done()
			continue
		}
		record, err := encodeEntry(entry)
		if err != nil {
			j.pending.Done()
			failed = err
			continue
		}
		_, err = j.file.Write(record)
		j.pending.Done()
		if err != nil {
			failed = fmt.Errorf("append journal entry %d: %w", entry.Seq, err)
		}
	}
	return failed
}

// Record framing: total payload length, then the uncompressed length (zero
// when the payload is stored raw), then the payload.
func encodeEntry(entry Entry) ([]byte, error) {
	raw, err := json.Marshal(entry)
	if err != nil {
		return nil, err
	}

	payload := raw
	uncompressed := 0
	if len(raw) > minCompressSize {
		buf := make([]byte, lz4.CompressBlockBound(len(raw)))
		n, err := lz4.CompressBlock(raw, buf, nil)
		if err == nil && n > 0 && n < len(raw) {
			payload = buf[:n]
			uncompressed = len(raw)
		}
	}

	record := make([]byte, 8+len(payload))
	binary.LittleEndian.PutUint32(record[0:4], uint32(len(payload)))
	binary.LittleEndian.PutUint32(record[4:8], uint32(uncompressed))
	copy(record[8:], payload)
	return record, nil
}

func replayPath(path string, fn func(Entry) error) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	header := make([]byte, 8)
	for {
		if _, err := io.ReadFull(file, header); err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("%w: truncated header", ErrCorruptEntry)
		}
		payloadLen := binary.LittleEndian.Uint32(header[0:4])
		uncompressed := binary.LittleEndian.Uint32(header[4:8])

		payload := make([]byte, payloadLen)
		if _, err := io.ReadFull(file, payload); err != nil {
			return fmt.Errorf("%w: truncated payload", ErrCorruptEntry)
		}

		raw := payload
		if uncompressed > 0 {
			buf := make([]byte, uncompressed)
			n, err := lz4.UncompressBlock(payload, buf)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrCorruptEntry, err)
			}
			raw = buf[:n]
		}

		var entry Entry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return fmt.Errorf("%w: %v", ErrCorruptEntry, err)
		}
		if err := fn(entry); err != nil {
			return err
		}
	}
}
