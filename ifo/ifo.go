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

// Package ifo implements reading .ifo dictionary metadata files.
package ifo

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
)

// ErrMalformedIfo indicates that the .ifo file is missing its magic
// banner, a required key, or has a non-numeric required value.
var ErrMalformedIfo = errors.New("malformed .ifo file")

const (
	// Magic is the magic banner of normal dictionaries.
	Magic = "StarDict's dict ifo file"

	// TreeMagic is the magic banner of tree dictionaries.
	TreeMagic = "StarDict's treedict ifo file"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Ifo holds the metadata of a single dictionary.
type Ifo struct {
	// Path is the path of the .ifo file this metadata was read from.
	Path string

	// Bookname is the dictionary's display name. Required.
	Bookname string

	// WordCount is the number of headwords in the index. Required.
	WordCount int64

	// SynWordCount is the number of entries in the .syn file, zero when
	// the key is absent.
	SynWordCount int64

	// IdxFileSize is the size in bytes of the decompressed index file.
	// Required.
	IdxFileSize int64

	// SameTypeSequence is the per-dictionary article field schema, empty
	// when articles carry their own type tags.
	SameTypeSequence string

	// Informational fields.
	Version     string
	Author      string
	Email       string
	Website     string
	Date        string
	Description string
}

// Load reads and parses the .ifo file at path. Tree dictionaries carry a
// different magic banner and name their index size key tdxfilesize.
func Load(path string, treedict bool) (*Ifo, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", path, err)
	}
	i, err := Parse(b, treedict)
	if err != nil {
		return nil, fmt.Errorf("parsing %q: %w", path, err)
	}
	i.Path = path
	return i, nil
}

// Parse parses the contents of an .ifo file.
func Parse(b []byte, treedict bool) (*Ifo, error) {
	magic := Magic
	sizeKey := "idxfilesize"
	if treedict {
		magic = TreeMagic
		sizeKey = "tdxfilesize"
	}

	b = bytes.TrimPrefix(b, utf8BOM)
	if !bytes.HasPrefix(b, []byte(magic)) {
		return nil, fmt.Errorf("%w: no magic banner %q", ErrMalformedIfo, magic)
	}
	b = b[len(magic):]

	kv := parseKeyValues(b)

	i := &Ifo{}
	var err error
	i.WordCount, err = requiredInt(kv, "wordcount")
	if err != nil {
		return nil, err
	}
	i.IdxFileSize, err = requiredInt(kv, sizeKey)
	if err != nil {
		return nil, err
	}
	var ok bool
	if i.Bookname, ok = kv["bookname"]; !ok {
		return nil, fmt.Errorf("%w: missing bookname", ErrMalformedIfo)
	}

	if v, ok := kv["synwordcount"]; ok {
		i.SynWordCount, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad synwordcount %q", ErrMalformedIfo, v)
		}
	}

	i.Version = kv["version"]
	i.SameTypeSequence = kv["sametypesequence"]
	i.Author = kv["author"]
	i.Email = kv["email"]
	i.Website = kv["website"]
	i.Date = kv["date"]
	i.Description = kv["description"]

	return i, nil
}

func requiredInt(kv map[string]string, key string) (int64, error) {
	v, ok := kv[key]
	if !ok {
		return 0, fmt.Errorf("%w: missing %s", ErrMalformedIfo, key)
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad %s %q", ErrMalformedIfo, key, v)
	}
	return n, nil
}

// parseKeyValues consumes KEY=VALUE lines terminated by '\n' or '\r'.
// Leading whitespace before a key and after the '=' is permitted. Lines
// without '=' and duplicate keys keep the file readable; the first value
// wins as in a map insert that does not overwrite.
func parseKeyValues(b []byte) map[string]string {
	kv := map[string]string{}
	for len(b) > 0 {
		start := indexFunc(b, func(c byte) bool { return !isSpace(c) })
		if start < 0 {
			break
		}
		b = b[start:]
		eol := indexFunc(b, func(c byte) bool { return c == '\r' || c == '\n' })
		eq := bytes.IndexByte(b, '=')
		if eol >= 0 && (eq < 0 || eq > eol) {
			// Skip a line without '='.
			b = b[eol+1:]
			continue
		}
		if eq < 0 {
			break
		}
		key := string(b[:eq])
		b = b[eq+1:]

		vstart := indexFunc(b, func(c byte) bool { return !isSpace(c) })
		if vstart < 0 {
			insert(kv, key, "")
			break
		}
		b = b[vstart:]
		vend := indexFunc(b, func(c byte) bool { return c == '\r' || c == '\n' })
		if vend < 0 {
			insert(kv, key, string(b))
			break
		}
		insert(kv, key, string(b[:vend]))
		b = b[vend+1:]
	}
	return kv
}

func insert(kv map[string]string, key, value string) {
	if _, ok := kv[key]; !ok {
		kv[key] = value
	}
}

func indexFunc(b []byte, f func(byte) bool) int {
	for i := 0; i < len(b); i++ {
		if f(b[i]) {
			return i
		}
	}
	return -1
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}
