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

// Package dict implements reading .dict article files.
//
// Articles are located by the (offset, size) pair stored in the
// headword index. When the dictionary declares a sametypesequence the
// stored articles omit their field type tags and the last field's
// terminator; GetWordData restores both, so callers always see the
// same canonical tagged form.
package dict

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ianlewis/go-dictzip"
)

var (
	// ErrCorruptArticle indicates that an article's bytes disagree with
	// the field schema describing them.
	ErrCorruptArticle = errors.New("corrupt article")

	errInvalidType = errors.New("invalid type")
)

// DataType is a type of data field in an article. Data types are
// specified by a single byte. Lower case characters represent
// string-like data terminated by a null terminator ('\0'). Upper case
// characters represent file-like data that starts with a 32-bit size
// followed by file data.
type DataType byte

const (
	// UTFTextType is utf-8 text.
	UTFTextType = DataType('m')

	// LocaleTextType is text in a locale encoding.
	LocaleTextType = DataType('l')

	// PangoTextType is utf-8 text in the Pango text format.
	PangoTextType = DataType('g')

	// PhoneticType is utf-8 text representing an English phonetic string.
	PhoneticType = DataType('t')

	// XDXFType is utf-8 encoded xml in XDXF format.
	XDXFType = DataType('x')

	// YinBiaoOrKataType is utf-8 encoded Yin Biao or Kana phonetic string.
	YinBiaoOrKataType = DataType('y')

	// KingSoftType is KingSoft PowerWord data.
	KingSoftType = DataType('k')

	// PowerWordType is a utf-8 encoded KingSoft PowerWord XML format.
	PowerWordType = DataType('p')

	// MediaWikiType is utf-8 encoded text in MediaWiki format.
	MediaWikiType = DataType('w')

	// HTMLType is utf-8 encoded HTML text.
	HTMLType = DataType('h')

	// WordNetType is WordNet data.
	WordNetType = DataType('n')

	// ResourceFileListType is a list of files in resource storage.
	ResourceFileListType = DataType('r')

	// WavType is .wav sound file data.
	WavType = DataType('W')

	// PictureType is image file data.
	PictureType = DataType('P')

	// ExperimentalType is reserved for experimental features.
	ExperimentalType = DataType('X')
)

// IsText reports whether the type is a null-terminated textual field
// type.
func (t DataType) IsText() bool {
	return 'a' <= t && t <= 'z'
}

// Data is a data field in an article.
type Data struct {
	Type DataType
	Data []byte
}

// Word is a full decoded article.
type Word struct {
	Data []*Data
}

// Options are options for the article store.
type Options struct {
	// CacheSize is the number of decoded articles kept in the
	// round-robin cache.
	CacheSize int
}

// DefaultOptions is the default options for a Dict.
var DefaultOptions = &Options{
	CacheSize: 2,
}

type cacheSlot struct {
	offset uint32
	data   []byte
}

// Dict is the article store of a dictionary. It prefers a
// dictzip-compressed .dict.dz file and falls back to the plain .dict
// file.
type Dict struct {
	path string
	f    *os.File
	dz   *dictzip.Reader

	sametypesequence []DataType

	cache    []cacheSlot
	cacheCur int
}

// New opens the article store belonging to the .ifo file at ifoPath.
// sametypesequence is the per-dictionary field schema from the
// metadata, empty when articles carry their own type tags.
func New(ifoPath, sametypesequence string, options *Options) (*Dict, error) {
	if options == nil {
		options = DefaultOptions
	}

	sts := make([]DataType, 0, len(sametypesequence))
	for i := 0; i < len(sametypesequence); i++ {
		c := sametypesequence[i]
		if !('a' <= c && c <= 'z') && !('A' <= c && c <= 'Z') {
			return nil, fmt.Errorf("%w: sametypesequence %q", errInvalidType, sametypesequence)
		}
		sts = append(sts, DataType(c))
	}

	d := &Dict{
		sametypesequence: sts,
		cache:            make([]cacheSlot, options.CacheSize),
	}

	base := strings.TrimSuffix(ifoPath, filepath.Ext(ifoPath))
	dzPath := base + ".dict.dz"
	if f, err := os.Open(dzPath); err == nil {
		z, err := dictzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("opening %q: %w", dzPath, err)
		}
		d.path = dzPath
		d.f = f
		d.dz = z
		return d, nil
	}

	path := base + ".dict"
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %q: %w", path, err)
	}
	d.path = path
	d.f = f
	return d, nil
}

// Close closes the underlying .dict file.
func (d *Dict) Close() error {
	if err := d.f.Close(); err != nil {
		return fmt.Errorf("closing %q: %w", d.path, err)
	}
	return nil
}

// readRaw fills buf with the raw article bytes starting at offset.
func (d *Dict) readRaw(buf []byte, offset uint32) error {
	var n int
	var err error
	if d.dz != nil {
		n, err = d.dz.ReadAt(buf, int64(offset))
	} else {
		n, err = d.f.ReadAt(buf, int64(offset))
	}
	if n < len(buf) {
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		return fmt.Errorf("reading article at %d in %q: %w", offset, d.path, err)
	}
	return nil
}

// GetWordData returns the article at (offset, size) in canonical
// tagged form: a 32-bit total size in host byte order followed by
// type-tagged fields. Textual fields keep their null terminator;
// file-like fields keep a big-endian 32-bit length prefix. The
// returned bytes are owned by the article cache and are valid until
// the slot is recycled.
func (d *Dict) GetWordData(offset, size uint32) ([]byte, error) {
	for i := range d.cache {
		if d.cache[i].data != nil && d.cache[i].offset == offset {
			return d.cache[i].data, nil
		}
	}

	raw := make([]byte, size)
	if err := d.readRaw(raw, offset); err != nil {
		return nil, err
	}

	var data []byte
	if len(d.sametypesequence) > 0 {
		canon, err := d.canonicalize(raw)
		if err != nil {
			return nil, err
		}
		data = canon
	} else {
		data = make([]byte, 4+len(raw))
		binary.NativeEndian.PutUint32(data, uint32(4+len(raw)))
		copy(data[4:], raw)
	}

	if len(d.cache) > 0 {
		d.cache[d.cacheCur].data = data
		d.cache[d.cacheCur].offset = offset
		d.cacheCur++
		if d.cacheCur == len(d.cache) {
			d.cacheCur = 0
		}
	}
	return data, nil
}

// canonicalize restores the type tags and the last field's terminator
// that sametypesequence storage omits.
func (d *Dict) canonicalize(raw []byte) ([]byte, error) {
	last := len(d.sametypesequence) - 1

	extra := 1
	if !d.sametypesequence[last].IsText() {
		extra = 4
	}
	data := make([]byte, 4, 4+len(raw)+len(d.sametypesequence)+extra)

	b := raw
	for _, t := range d.sametypesequence[:last] {
		data = append(data, byte(t))
		if t.IsText() {
			i := bytes.IndexByte(b, 0)
			if i < 0 {
				return nil, fmt.Errorf("%w: unterminated %q field", ErrCorruptArticle, t)
			}
			data = append(data, b[:i+1]...)
			b = b[i+1:]
		} else {
			if len(b) < 4 {
				return nil, fmt.Errorf("%w: truncated %q field", ErrCorruptArticle, t)
			}
			n := binary.BigEndian.Uint32(b)
			if uint64(n)+4 > uint64(len(b)) {
				return nil, fmt.Errorf("%w: truncated %q field", ErrCorruptArticle, t)
			}
			data = append(data, b[:4+n]...)
			b = b[4+n:]
		}
	}

	// The last field's length is implied by the end of the record.
	t := d.sametypesequence[last]
	data = append(data, byte(t))
	if t.IsText() {
		data = append(data, b...)
		data = append(data, 0)
	} else {
		data = binary.BigEndian.AppendUint32(data, uint32(len(b)))
		data = append(data, b...)
	}

	binary.NativeEndian.PutUint32(data[:4], uint32(len(data)))
	return data, nil
}

// Fields decodes the canonical tagged form produced by GetWordData.
func Fields(data []byte) ([]*Data, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: missing size header", ErrCorruptArticle)
	}
	if binary.NativeEndian.Uint32(data) != uint32(len(data)) {
		return nil, fmt.Errorf("%w: size header mismatch", ErrCorruptArticle)
	}

	b := data[4:]
	var fields []*Data
	for len(b) > 0 {
		t := DataType(b[0])
		b = b[1:]
		if t.IsText() {
			i := bytes.IndexByte(b, 0)
			if i < 0 {
				return nil, fmt.Errorf("%w: unterminated %q field", ErrCorruptArticle, t)
			}
			fields = append(fields, &Data{Type: t, Data: b[:i]})
			b = b[i+1:]
		} else {
			if len(b) < 4 {
				return nil, fmt.Errorf("%w: truncated %q field", ErrCorruptArticle, t)
			}
			n := binary.BigEndian.Uint32(b)
			if uint64(n)+4 > uint64(len(b)) {
				return nil, fmt.Errorf("%w: truncated %q field", ErrCorruptArticle, t)
			}
			fields = append(fields, &Data{Type: t, Data: b[4 : 4+n]})
			b = b[4+n:]
		}
	}
	return fields, nil
}

// Word returns the full decoded article at (offset, size).
func (d *Dict) Word(offset, size uint32) (*Word, error) {
	data, err := d.GetWordData(offset, size)
	if err != nil {
		return nil, err
	}
	fields, err := Fields(data)
	if err != nil {
		return nil, err
	}
	return &Word{Data: fields}, nil
}

// Searchable reports whether the store's articles can contain
// searchable text.
func (d *Dict) Searchable() bool {
	if len(d.sametypesequence) == 0 {
		return true
	}
	for _, t := range d.sametypesequence {
		if t.IsText() {
			return true
		}
	}
	return false
}

// SearchData reports whether every needle occurs somewhere in the
// textual fields of the article at (offset, size). Needles are matched
// as raw utf-8 bytes. buf is a scratch buffer reused across calls; the
// possibly grown buffer is returned.
func (d *Dict) SearchData(needles [][]byte, offset, size uint32, buf []byte) (bool, []byte, error) {
	if cap(buf) < int(size) {
		buf = make([]byte, size)
	}
	b := buf[:size]
	if err := d.readRaw(b, offset); err != nil {
		return false, buf, err
	}

	found := make([]bool, len(needles))
	nfound := 0
	search := func(seg []byte) bool {
		for j, needle := range needles {
			if !found[j] && bytes.Contains(seg, needle) {
				found[j] = true
				nfound++
			}
		}
		return nfound == len(needles)
	}

	if len(d.sametypesequence) > 0 {
		last := len(d.sametypesequence) - 1
		for _, t := range d.sametypesequence[:last] {
			if t.IsText() {
				i := bytes.IndexByte(b, 0)
				if i < 0 {
					return false, buf, fmt.Errorf("%w: unterminated %q field", ErrCorruptArticle, t)
				}
				if search(b[:i]) {
					return true, buf, nil
				}
				b = b[i+1:]
			} else {
				if len(b) < 4 {
					return false, buf, fmt.Errorf("%w: truncated %q field", ErrCorruptArticle, t)
				}
				n := binary.BigEndian.Uint32(b)
				if uint64(n)+4 > uint64(len(b)) {
					return false, buf, fmt.Errorf("%w: truncated %q field", ErrCorruptArticle, t)
				}
				b = b[4+n:]
			}
		}
		if d.sametypesequence[last].IsText() && search(b) {
			return true, buf, nil
		}
		return false, buf, nil
	}

	for len(b) > 0 {
		t := DataType(b[0])
		b = b[1:]
		if t.IsText() {
			i := bytes.IndexByte(b, 0)
			if i < 0 {
				return false, buf, fmt.Errorf("%w: unterminated %q field", ErrCorruptArticle, t)
			}
			if search(b[:i]) {
				return true, buf, nil
			}
			b = b[i+1:]
		} else {
			if len(b) < 4 {
				return false, buf, fmt.Errorf("%w: truncated %q field", ErrCorruptArticle, t)
			}
			n := binary.BigEndian.Uint32(b)
			if uint64(n)+4 > uint64(len(b)) {
				return false, buf, fmt.Errorf("%w: truncated %q field", ErrCorruptArticle, t)
			}
			b = b[4+n:]
		}
	}
	return false, buf, nil
}
