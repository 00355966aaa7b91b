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
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	mmap "github.com/edsrzf/mmap-go"

	"github.com/dictutil/sdquery/internal/folding"
)

const (
	// cacheMagic is the banner of a page-offset cache file.
	cacheMagic = "StarDict's Cache, Version: 0.2"

	// cacheTag validates that a cache file was written by a compatible
	// build. It is stored in host byte order.
	cacheTag = uint32(0x51a4d1c1)
)

// anchor caches a headword so page-list binary searches can skip the
// page read.
type anchor struct {
	idx int64
	key string
}

// pageEntry is one decoded record of the resident page.
type pageEntry struct {
	key    string
	offset uint32
	size   uint32
}

// OffsetIndex serves a plain .idx file, keeping only the page-offset
// sidecar and a single decoded page in memory. The sidecar maps each
// page of EntriesPerPage records to its byte offset in the file and is
// persisted in a .oft cache file so later loads skip the full scan.
type OffsetIndex struct {
	path      string
	f         *os.File
	wordCount int64
	perPage   int64
	cacheDir  string

	// wordOffset has one entry per page plus a sentinel at end of file.
	wordOffset []uint32

	first    anchor
	middle   anchor
	last     anchor
	realLast anchor

	pageIdx     int64
	pageEntries []pageEntry
	pageBuf     []byte
}

var _ Index = (*OffsetIndex)(nil)

// NewOffsetIndex loads the plain .idx file at path. The page-offset
// sidecar is read from a .oft cache file when a valid one exists and
// is otherwise rebuilt by scanning the memory-mapped index and written
// back.
func NewOffsetIndex(path string, wordCount, idxFileSize int64, options *Options) (*OffsetIndex, error) {
	if options == nil {
		options = DefaultOptions
	}
	if wordCount <= 0 {
		return nil, fmt.Errorf("%w: empty index", ErrCorruptIndex)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %q: %w", path, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %q: %w", path, err)
	}
	if st.Size() != idxFileSize {
		f.Close()
		return nil, fmt.Errorf("%w: index is %d bytes, metadata says %d", ErrCorruptIndex, st.Size(), idxFileSize)
	}

	perPage := int64(options.EntriesPerPage)
	oi := &OffsetIndex{
		path:        path,
		f:           f,
		wordCount:   wordCount,
		perPage:     perPage,
		cacheDir:    options.CacheDir,
		wordOffset:  make([]uint32, (wordCount-1)/perPage+2),
		pageIdx:     -1,
		pageEntries: make([]pageEntry, 0, perPage),
	}

	if !oi.loadCache(st.ModTime()) {
		if err := oi.build(); err != nil {
			f.Close()
			return nil, err
		}
		oi.saveCache()
	}

	if err := oi.loadAnchors(); err != nil {
		f.Close()
		return nil, err
	}

	return oi, nil
}

// build rebuilds the page-offset sidecar by a single linear scan of
// the memory-mapped index.
func (oi *OffsetIndex) build() error {
	m, err := mmap.Map(oi.f, mmap.RDONLY, 0)
	if err != nil {
		return fmt.Errorf("mapping %q: %w", oi.path, err)
	}
	defer m.Unmap()

	s := NewScanner(bytes.NewReader(m))
	var i, j int64
	for s.Scan() {
		if i%oi.perPage == 0 {
			oi.wordOffset[j] = uint32(s.Pos())
			j++
		}
		i++
	}
	if err := s.Err(); err != nil {
		return fmt.Errorf("scanning %q: %w", oi.path, err)
	}
	if i != oi.wordCount {
		return fmt.Errorf("%w: %d records, metadata says %d", ErrCorruptIndex, i, oi.wordCount)
	}
	oi.wordOffset[j] = uint32(len(m))
	return nil
}

// cacheVariants returns the candidate cache file locations in
// precedence order: next to the index first, then the user cache
// directory.
func (oi *OffsetIndex) cacheVariants() []string {
	variants := []string{oi.path + ".oft"}
	dir := oi.cacheDir
	if dir == "" {
		d, err := os.UserCacheDir()
		if err != nil {
			return variants
		}
		dir = d
	}
	dir = filepath.Join(dir, "sdcv")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return variants
	}
	return append(variants, filepath.Join(dir, filepath.Base(oi.path)+".oft"))
}

// loadCache fills the sidecar from the first usable cache variant. A
// cache is usable when it is not older than the index and its magic,
// tag, and size all match.
func (oi *OffsetIndex) loadCache(idxMtime time.Time) bool {
	want := int64(len(cacheMagic) + 4 + 4*len(oi.wordOffset))
	for _, p := range oi.cacheVariants() {
		st, err := os.Stat(p)
		if err != nil || st.ModTime().Before(idxMtime) || st.Size() != want {
			continue
		}
		f, err := os.Open(p)
		if err != nil {
			continue
		}
		m, err := mmap.Map(f, mmap.RDONLY, 0)
		if err != nil {
			f.Close()
			continue
		}
		ok := oi.readCache(m)
		m.Unmap()
		f.Close()
		if ok {
			return true
		}
	}
	return false
}

func (oi *OffsetIndex) readCache(b []byte) bool {
	if !bytes.HasPrefix(b, []byte(cacheMagic)) {
		return false
	}
	b = b[len(cacheMagic):]
	if binary.NativeEndian.Uint32(b) != cacheTag {
		return false
	}
	b = b[4:]
	for i := range oi.wordOffset {
		oi.wordOffset[i] = binary.NativeEndian.Uint32(b[4*i:])
	}
	return true
}

// saveCache persists the sidecar to the first writable cache variant.
// Failure to write is not an error; the sidecar is simply rebuilt on
// the next load.
func (oi *OffsetIndex) saveCache() {
	buf := make([]byte, 0, len(cacheMagic)+4+4*len(oi.wordOffset))
	buf = append(buf, cacheMagic...)
	buf = binary.NativeEndian.AppendUint32(buf, cacheTag)
	for _, off := range oi.wordOffset {
		buf = binary.NativeEndian.AppendUint32(buf, off)
	}
	for _, p := range oi.cacheVariants() {
		if err := os.WriteFile(p, buf, 0o644); err == nil {
			return
		}
	}
}

func (oi *OffsetIndex) loadAnchors() error {
	lastPage := int64(len(oi.wordOffset)) - 2

	var err error
	oi.first.idx = 0
	if oi.first.key, err = oi.readFirstOnPage(0); err != nil {
		return err
	}
	oi.last.idx = lastPage
	if oi.last.key, err = oi.readFirstOnPage(lastPage); err != nil {
		return err
	}
	oi.middle.idx = lastPage / 2
	if oi.middle.key, err = oi.readFirstOnPage(oi.middle.idx); err != nil {
		return err
	}
	oi.realLast.idx = oi.wordCount - 1
	if oi.realLast.key, err = oi.GetKey(oi.realLast.idx); err != nil {
		return err
	}
	return nil
}

// readFirstOnPage reads the first headword of page p directly from the
// file without disturbing the resident page.
func (oi *OffsetIndex) readFirstOnPage(p int64) (string, error) {
	span := int64(oi.wordOffset[p+1] - oi.wordOffset[p])
	if span > maxKeyLen+9 {
		span = maxKeyLen + 9
	}
	buf := make([]byte, span)
	if _, err := oi.f.ReadAt(buf, int64(oi.wordOffset[p])); err != nil {
		return "", fmt.Errorf("reading page %d of %q: %w", p, oi.path, err)
	}
	i := bytes.IndexByte(buf, 0)
	if i < 0 {
		return "", fmt.Errorf("%w: unterminated headword on page %d", ErrCorruptIndex, p)
	}
	return string(buf[:i]), nil
}

// firstOnPageKey returns the first headword of page p, consulting the
// anchors before touching the file.
func (oi *OffsetIndex) firstOnPageKey(p int64) (string, error) {
	switch {
	case p < oi.middle.idx:
		if p == oi.first.idx {
			return oi.first.key, nil
		}
		return oi.readFirstOnPage(p)
	case p > oi.middle.idx:
		if p == oi.last.idx {
			return oi.last.key, nil
		}
		return oi.readFirstOnPage(p)
	default:
		return oi.middle.key, nil
	}
}

// loadPage makes page p resident and returns its record count. Only
// one page is resident at a time.
func (oi *OffsetIndex) loadPage(p int64) (int64, error) {
	n := oi.perPage
	if p == int64(len(oi.wordOffset))-2 {
		if n = oi.wordCount % oi.perPage; n == 0 {
			n = oi.perPage
		}
	}
	if p == oi.pageIdx {
		return n, nil
	}

	span := int(oi.wordOffset[p+1] - oi.wordOffset[p])
	if cap(oi.pageBuf) < span {
		oi.pageBuf = make([]byte, span)
	}
	buf := oi.pageBuf[:span]
	if _, err := oi.f.ReadAt(buf, int64(oi.wordOffset[p])); err != nil {
		return 0, fmt.Errorf("reading page %d of %q: %w", p, oi.path, err)
	}

	entries := oi.pageEntries[:0]
	for k := int64(0); k < n; k++ {
		i := bytes.IndexByte(buf, 0)
		if i < 0 || len(buf) < i+9 {
			oi.pageIdx = -1
			return 0, fmt.Errorf("%w: truncated record on page %d", ErrCorruptIndex, p)
		}
		entries = append(entries, pageEntry{
			key:    string(buf[:i]),
			offset: binary.BigEndian.Uint32(buf[i+1:]),
			size:   binary.BigEndian.Uint32(buf[i+5:]),
		})
		buf = buf[i+9:]
	}
	oi.pageEntries = entries
	oi.pageIdx = p
	return n, nil
}

// GetKey returns the headword at position i.
func (oi *OffsetIndex) GetKey(i int64) (string, error) {
	if _, err := oi.loadPage(i / oi.perPage); err != nil {
		return "", err
	}
	return oi.pageEntries[i%oi.perPage].key, nil
}

// GetData returns the article offset and size at position i.
func (oi *OffsetIndex) GetData(i int64) (uint32, uint32, error) {
	if _, err := oi.loadPage(i / oi.perPage); err != nil {
		return 0, 0, err
	}
	e := oi.pageEntries[i%oi.perPage]
	return e.offset, e.size, nil
}

// GetKeyAndData returns the full record at position i.
func (oi *OffsetIndex) GetKeyAndData(i int64) (*Word, error) {
	if _, err := oi.loadPage(i / oi.perPage); err != nil {
		return nil, err
	}
	e := oi.pageEntries[i%oi.perPage]
	return &Word{
		Word:   e.key,
		Offset: e.offset,
		Size:   e.size,
	}, nil
}

// WordCount returns the number of records in the index.
func (oi *OffsetIndex) WordCount() int64 {
	return oi.wordCount
}

// Close closes the underlying index file.
func (oi *OffsetIndex) Close() error {
	if err := oi.f.Close(); err != nil {
		return fmt.Errorf("closing %q: %w", oi.path, err)
	}
	return nil
}

// Lookup returns the positions of all records whose headword compares
// equal to s.
func (oi *OffsetIndex) Lookup(s string) ([]int64, int64, error) {
	if folding.Compare(s, oi.first.key) < 0 {
		return nil, 0, nil
	}
	if folding.Compare(s, oi.realLast.key) > 0 {
		return nil, InvalidIndex, nil
	}

	// Search for the first page the word could be on.
	lo, hi := int64(0), int64(len(oi.wordOffset))-2
	var page, this int64
	found := false
	for lo <= hi {
		this = (lo + hi) / 2
		k, err := oi.firstOnPageKey(this)
		if err != nil {
			return nil, 0, err
		}
		c := folding.Compare(s, k)
		if c > 0 {
			lo = this + 1
		} else if c < 0 {
			hi = this - 1
		} else {
			found = true
			break
		}
	}

	if found {
		// A hit on a page's first record need not be the first equal
		// record overall; the walk below picks up earlier pages.
		page, this = this, 0
	} else {
		page = hi
		n, err := oi.loadPage(page)
		if err != nil {
			return nil, 0, err
		}
		lo, hi = 0, n-1
		for lo <= hi {
			this = (lo + hi) / 2
			c := folding.Compare(s, oi.pageEntries[this].key)
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
			return nil, page*oi.perPage + lo, nil
		}
	}

	hit := page*oi.perPage + this
	indices, err := walkEqual(s, hit, oi.realLast.idx, oi.GetKey)
	if err != nil {
		return nil, 0, err
	}
	return indices, hit, nil
}

// walkEqual walks linearly behind and ahead of a known matching
// position, collecting every position whose key compares equal to s.
// Positions are returned in ascending order.
func walkEqual(s string, hit, last int64, getKey func(int64) (string, error)) ([]int64, error) {
	head := hit
	for head > 0 {
		k, err := getKey(head - 1)
		if err != nil {
			return nil, err
		}
		if folding.Compare(s, k) != 0 {
			break
		}
		head--
	}

	indices := make([]int64, 0, hit-head+1)
	for i := head; i < hit; i++ {
		indices = append(indices, i)
	}
	// No need to re-check hit itself.
	i := hit
	for {
		indices = append(indices, i)
		i++
		if i > last {
			break
		}
		k, err := getKey(i)
		if err != nil {
			return nil, err
		}
		if folding.Compare(s, k) != 0 {
			break
		}
	}
	return indices, nil
}
