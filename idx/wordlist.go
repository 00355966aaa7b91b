// Copyright 2024 The sdquery Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package idx

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/dictutil/sdquery/internal/folding"
)

// WordListIndex serves a gzip-compressed .idx.gz file by holding the
// whole decompressed index in memory with a position table over its
// records.
type WordListIndex struct {
	data []byte

	// offsets has one entry per record plus a sentinel at end of data.
	offsets []int32
}

var _ Index = (*WordListIndex)(nil)

// NewWordListIndex loads the gzip-compressed index at path into
// memory.
func NewWordListIndex(path string, wordCount, idxFileSize int64, options *Options) (*WordListIndex, error) {
	if wordCount <= 0 {
		return nil, fmt.Errorf("%w: empty index", ErrCorruptIndex)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %q: %w", path, err)
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("creating gzip reader for %q: %w", path, err)
	}
	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("decompressing %q: %w", path, err)
	}
	if err := zr.Close(); err != nil {
		return nil, fmt.Errorf("closing gzip reader for %q: %w", path, err)
	}
	if int64(len(data)) != idxFileSize {
		return nil, fmt.Errorf("%w: decompressed index is %d bytes, metadata says %d", ErrCorruptIndex, len(data), idxFileSize)
	}

	wl := &WordListIndex{
		data:    data,
		offsets: make([]int32, 0, wordCount+1),
	}
	s := NewScanner(bytes.NewReader(data))
	for s.Scan() {
		wl.offsets = append(wl.offsets, int32(s.Pos()))
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("scanning %q: %w", path, err)
	}
	if int64(len(wl.offsets)) != wordCount {
		return nil, fmt.Errorf("%w: %d records, metadata says %d", ErrCorruptIndex, len(wl.offsets), wordCount)
	}
	wl.offsets = append(wl.offsets, int32(len(data)))

	return wl, nil
}

// record returns the raw bytes of the record at position i.
func (wl *WordListIndex) record(i int64) []byte {
	return wl.data[wl.offsets[i]:wl.offsets[i+1]]
}

// GetKey returns the headword at position i.
func (wl *WordListIndex) GetKey(i int64) (string, error) {
	b := wl.record(i)
	return string(b[:len(b)-9]), nil
}

// GetData returns the article offset and size at position i.
func (wl *WordListIndex) GetData(i int64) (uint32, uint32, error) {
	b := wl.record(i)
	n := len(b) - 8
	return binary.BigEndian.Uint32(b[n:]), binary.BigEndian.Uint32(b[n+4:]), nil
}

// GetKeyAndData returns the full record at position i.
func (wl *WordListIndex) GetKeyAndData(i int64) (*Word, error) {
	b := wl.record(i)
	n := len(b) - 8
	return &Word{
		Word:   string(b[:n-1]),
		Offset: binary.BigEndian.Uint32(b[n:]),
		Size:   binary.BigEndian.Uint32(b[n+4:]),
	}, nil
}

// WordCount returns the number of records in the index.
func (wl *WordListIndex) WordCount() int64 {
	return int64(len(wl.offsets)) - 1
}

// Close releases the in-memory index.
func (wl *WordListIndex) Close() error {
	wl.data = nil
	wl.offsets = nil
	return nil
}

// key is GetKey without the error; the in-memory index cannot fail.
func (wl *WordListIndex) key(i int64) string {
	b := wl.record(i)
	return string(b[:len(b)-9])
}

// Lookup returns the positions of all records whose headword compares
// equal to s.
func (wl *WordListIndex) Lookup(s string) ([]int64, int64, error) {
	last := wl.WordCount() - 1

	if folding.Compare(s, wl.key(0)) < 0 {
		return nil, 0, nil
	}
	if folding.Compare(s, wl.key(last)) > 0 {
		return nil, InvalidIndex, nil
	}

	lo, hi := int64(0), last
	var this int64
	found := false
	for lo <= hi {
		this = (lo + hi) / 2
		c := folding.Compare(s, wl.key(this))
		if c > 0 {
			lo = this + 1
		} else if c < 0 {
			hi = this - 1
		} else {
			found = true
			break
		}
	}
	if !found {
		return nil, lo, nil
	}

	indices, err := walkEqual(s, this, last, wl.GetKey)
	if err != nil {
		return nil, 0, err
	}
	return indices, this, nil
}
