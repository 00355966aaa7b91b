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

package testutil

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/ianlewis/go-dictzip"

	"github.com/dictutil/sdquery/dict"
	"github.com/dictutil/sdquery/idx"
	"github.com/dictutil/sdquery/syn"
)

// Word is a headword and its article fields.
type Word struct {
	Word string
	Data []*dict.Data
}

// Dict describes a whole on-disk test dictionary.
type Dict struct {
	// Bookname is the dictionary name. Defaults to "test dict".
	Bookname string

	// SameTypeSequence is the sametypesequence metadata value.
	SameTypeSequence string

	// GZIdx compresses the index into an .idx.gz file.
	GZIdx bool

	// DictZip compresses the articles into a .dict.dz file.
	DictZip bool

	// Words are the dictionary entries in index order.
	Words []*Word

	// Syn are the synonym records in index order.
	Syn []*syn.Word
}

// WriteDict writes a complete dictionary into dir and returns the
// path of its .ifo file.
func WriteDict(t *testing.T, dir string, d *Dict) string {
	t.Helper()

	sts := make([]dict.DataType, 0, len(d.SameTypeSequence))
	for i := 0; i < len(d.SameTypeSequence); i++ {
		sts = append(sts, dict.DataType(d.SameTypeSequence[i]))
	}

	var dictBuf []byte
	entries := make([]*idx.Word, 0, len(d.Words))
	for _, w := range d.Words {
		article := MakeArticle(t, w.Data, sts)
		entries = append(entries, &idx.Word{
			Word:   w.Word,
			Offset: uint32(len(dictBuf)),
			Size:   uint32(len(article)),
		})
		dictBuf = append(dictBuf, article...)
	}
	idxBuf := MakeIndex(entries)

	base := filepath.Join(dir, "test")

	if d.GZIdx {
		var gzBuf bytes.Buffer
		zw := gzip.NewWriter(&gzBuf)
		if _, err := zw.Write(idxBuf); err != nil {
			t.Fatal(err)
		}
		if err := zw.Close(); err != nil {
			t.Fatal(err)
		}
		writeFile(t, base+".idx.gz", gzBuf.Bytes())
	} else {
		writeFile(t, base+".idx", idxBuf)
	}

	if d.DictZip {
		f, err := os.Create(base + ".dict.dz")
		if err != nil {
			t.Fatal(err)
		}
		z, err := dictzip.NewWriter(f)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := z.Write(dictBuf); err != nil {
			t.Fatal(err)
		}
		if err := z.Close(); err != nil {
			t.Fatal(err)
		}
		if err := f.Close(); err != nil {
			t.Fatal(err)
		}
	} else {
		writeFile(t, base+".dict", dictBuf)
	}

	if len(d.Syn) > 0 {
		writeFile(t, base+".syn", MakeSyn(d.Syn))
	}

	bookname := d.Bookname
	if bookname == "" {
		bookname = "test dict"
	}
	ifoBuf := "StarDict's dict ifo file\nversion=2.4.2\n"
	ifoBuf += fmt.Sprintf("bookname=%s\n", bookname)
	ifoBuf += fmt.Sprintf("wordcount=%d\n", len(d.Words))
	ifoBuf += fmt.Sprintf("idxfilesize=%d\n", len(idxBuf))
	if len(d.Syn) > 0 {
		ifoBuf += fmt.Sprintf("synwordcount=%d\n", len(d.Syn))
	}
	if d.SameTypeSequence != "" {
		ifoBuf += fmt.Sprintf("sametypesequence=%s\n", d.SameTypeSequence)
	}
	writeFile(t, base+".ifo", []byte(ifoBuf))

	return base + ".ifo"
}

func writeFile(t *testing.T, path string, b []byte) {
	t.Helper()
	if err := os.WriteFile(path, b, 0o600); err != nil {
		t.Fatal(err)
	}
}
