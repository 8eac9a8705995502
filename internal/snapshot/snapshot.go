// Package snapshot writes and reads zstd-compressed universe snapshots: a
// JSON header line followed by the JSON-encoded state.
package snapshot

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/talgya/sarakt/internal/engine"
)

const Version = 1

// Header describes a snapshot without decoding the state.
type Header struct {
	Version int       `json:"version"`
	Cycle   uint64    `json:"cycle"`
	Seed    int64     `json:"seed"`
	Actors  int       `json:"actors"`
	Created time.Time `json:"created"`
}

// FileName is the conventional name for a snapshot taken at a cycle.
func FileName(cycle uint64) string {
	return fmt.Sprintf("universe-%010d.json.zst", cycle)
}

// Write stores st at path. The file is written under a temporary name and
// renamed into place.
func Write(path string, st engine.State) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(tmp)
		}
	}()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 256*1024)

	h := Header{
		Version: Version,
		Cycle:   st.Cycle,
		Seed:    st.Config.Seed,
		Actors:  len(st.Actors),
		Created: time.Now().UTC(),
	}
	hb, err := json.Marshal(h)
	if err != nil {
		return err
	}
	if _, err := bw.Write(append(hb, '\n')); err != nil {
		return err
	}
	if err := json.NewEncoder(bw).Encode(st); err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	if err := bw.Flush(); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Read loads a snapshot.
func Read(path string) (Header, engine.State, error) {
	var h Header
	var st engine.State

	f, err := os.Open(path)
	if err != nil {
		return h, st, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, st, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)
	line, err := br.ReadBytes('\n')
	if err != nil {
		return h, st, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, st, fmt.Errorf("decode header: %w", err)
	}
	if h.Version != Version {
		return h, st, fmt.Errorf("unsupported snapshot version %d", h.Version)
	}
	if err := json.NewDecoder(br).Decode(&st); err != nil {
		return h, st, fmt.Errorf("decode state: %w", err)
	}
	return h, st, nil
}
