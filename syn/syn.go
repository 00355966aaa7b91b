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

// Package syn implements reading .syn synonym files.
//
// A .syn file maps alternate surface forms to positions in the
// headword index. Each record is a null-terminated utf-8 word followed
// by a 32 bit headword position in network byte order, sorted with the
// same comparison as the headword index. Synonym words may repeat,
// each occurrence pointing at a different headword.
package syn

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	mmap "github.com/edsrzf/mmap-go"

	"github.com/dictutil/sdquery/internal/folding"
)

// ErrCorruptSyn indicates that the .syn file does not match the
// metadata that describes it or contains a malformed record.
var ErrCorruptSyn = errors.New("corrupt synonym index")

// Word is a decoded .syn record.
type Word struct {
	// Word is the synonym word.
	Word string

	// TargetIndex is the position of the primary headword in the
	// headword index.
	TargetIndex uint32
}

// Syn is the synonym index. The file stays memory-mapped for the
// lifetime of the Syn.
type Syn struct {
	path string
	f    *os.File
	m    mmap.MMap

	// offsets has one entry per record plus a sentinel at end of file.
	offsets []int32
}

// Load memory-maps the .syn file at path. wordCount is the
// synwordcount declared by the dictionary metadata.
func Load(path string, wordCount int64) (*Syn, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %q: %w", path, err)
	}
	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mapping %q: %w", path, err)
	}

	syn := &Syn{
		path:    path,
		f:       f,
		m:       m,
		offsets: make([]int32, 0, wordCount+1),
	}
	s := NewScanner(bytes.NewReader(m))
	for s.Scan() {
		syn.offsets = append(syn.offsets, int32(s.Pos()))
	}
	if err := s.Err(); err != nil {
		syn.Close()
		return nil, fmt.Errorf("scanning %q: %w", path, err)
	}
	if int64(len(syn.offsets)) != wordCount {
		syn.Close()
		return nil, fmt.Errorf("%w: %d records, metadata says %d", ErrCorruptSyn, len(syn.offsets), wordCount)
	}
	syn.offsets = append(syn.offsets, int32(len(m)))

	return syn, nil
}

// record returns the raw bytes of the record at position i.
func (s *Syn) record(i int64) []byte {
	return s.m[s.offsets[i]:s.offsets[i+1]]
}

// GetKey returns the synonym word at position i.
func (s *Syn) GetKey(i int64) string {
	b := s.record(i)
	return string(b[:len(b)-5])
}

// target returns the headword position the record at position i points
// at.
func (s *Syn) target(i int64) uint32 {
	b := s.record(i)
	return binary.BigEndian.Uint32(b[len(b)-4:])
}

// WordCount returns the number of records in the synonym index.
func (s *Syn) WordCount() int64 {
	return int64(len(s.offsets)) - 1
}

// Close unmaps and closes the .syn file.
func (s *Syn) Close() error {
	if err := s.m.Unmap(); err != nil {
		return fmt.Errorf("unmapping %q: %w", s.path, err)
	}
	if err := s.f.Close(); err != nil {
		return fmt.Errorf("closing %q: %w", s.path, err)
	}
	return nil
}

// Lookup returns the headword positions of all synonym records whose
// word compares equal to str.
func (s *Syn) Lookup(str string) []int64 {
	last := s.WordCount() - 1
	if last < 0 {
		return nil
	}

	if folding.Compare(str, s.GetKey(0)) < 0 || folding.Compare(str, s.GetKey(last)) > 0 {
		return nil
	}

	lo, hi := int64(0), last
	var this int64
	found := false
	for lo <= hi {
		this = (lo + hi) / 2
		c := folding.Compare(str, s.GetKey(this))
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
		return nil
	}

	// Walk linearly behind and ahead of the found record so every
	// occurrence of the word is reported.
	head := this
	for head > 0 && folding.Compare(str, s.GetKey(head-1)) == 0 {
		head--
	}
	var targets []int64
	i := head
	for {
		targets = append(targets, int64(s.target(i)))
		i++
		if i > last || folding.Compare(str, s.GetKey(i)) != 0 {
			break
		}
	}
	return targets
}
