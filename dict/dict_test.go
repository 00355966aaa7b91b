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

package dict_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ianlewis/go-dictzip"

	"github.com/dictutil/sdquery/dict"
	"github.com/dictutil/sdquery/internal/testutil"
)

// article is an article and its location in the .dict file.
type article struct {
	offset uint32
	size   uint32
	data   []*dict.Data
}

// writeDict writes articles into a .dict (or .dict.dz) file in dir and
// returns the path of the matching .ifo file and the article
// locations.
func writeDict(t *testing.T, dir, sts string, articles [][]*dict.Data, dz bool) (string, []article) {
	t.Helper()

	seq := make([]dict.DataType, 0, len(sts))
	for i := 0; i < len(sts); i++ {
		seq = append(seq, dict.DataType(sts[i]))
	}

	var buf []byte
	var locs []article
	for _, data := range articles {
		b := testutil.MakeArticle(t, data, seq)
		locs = append(locs, article{
			offset: uint32(len(buf)),
			size:   uint32(len(b)),
			data:   data,
		})
		buf = append(buf, b...)
	}

	base := filepath.Join(dir, "test")
	if dz {
		f, err := os.Create(base + ".dict.dz")
		if err != nil {
			t.Fatal(err)
		}
		z, err := dictzip.NewWriter(f)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := z.Write(buf); err != nil {
			t.Fatal(err)
		}
		if err := z.Close(); err != nil {
			t.Fatal(err)
		}
		if err := f.Close(); err != nil {
			t.Fatal(err)
		}
	} else {
		if err := os.WriteFile(base+".dict", buf, 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return base + ".ifo", locs
}

// TestDict_Word tests that Word returns the decoded article for both
// tagged and sametypesequence storage.
func TestDict_Word(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		sts      string
		articles [][]*dict.Data
	}{
		{
			name: "tagged fields",
			sts:  "",
			articles: [][]*dict.Data{
				{
					{Type: dict.UTFTextType, Data: []byte("a small fruit")},
					{Type: dict.PhoneticType, Data: []byte("fruːt")},
				},
				{
					{Type: dict.UTFTextType, Data: []byte("a large animal")},
				},
			},
		},
		{
			name: "sametypesequence single text",
			sts:  "m",
			articles: [][]*dict.Data{
				{{Type: dict.UTFTextType, Data: []byte("a small fruit")}},
				{{Type: dict.UTFTextType, Data: []byte("a large animal")}},
			},
		},
		{
			name: "sametypesequence text then binary",
			sts:  "mW",
			articles: [][]*dict.Data{
				{
					{Type: dict.UTFTextType, Data: []byte("a small fruit")},
					{Type: dict.WavType, Data: []byte{0x52, 0x49, 0x46, 0x46}},
				},
			},
		},
		{
			name: "sametypesequence last field text",
			sts:  "Wm",
			articles: [][]*dict.Data{
				{
					{Type: dict.WavType, Data: []byte{0x52, 0x49, 0x46, 0x46}},
					{Type: dict.UTFTextType, Data: []byte("a small fruit")},
				},
			},
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			ifoPath, locs := writeDict(t, t.TempDir(), test.sts, test.articles, false)
			d, err := dict.New(ifoPath, test.sts, nil)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			defer d.Close()

			for i, loc := range locs {
				w, err := d.Word(loc.offset, loc.size)
				if err != nil {
					t.Fatalf("Word(%d): %v", i, err)
				}
				if diff := cmp.Diff(loc.data, w.Data); diff != "" {
					t.Fatalf("Word(%d) (-want, +got):\n%s", i, diff)
				}
			}
		})
	}
}

// TestDict_DictZip tests reading articles from a dictzip-compressed
// file at uncompressed offsets.
func TestDict_DictZip(t *testing.T) {
	t.Parallel()

	articles := [][]*dict.Data{
		{{Type: dict.UTFTextType, Data: []byte("a small fruit")}},
		{{Type: dict.UTFTextType, Data: []byte("a large animal")}},
	}
	ifoPath, locs := writeDict(t, t.TempDir(), "m", articles, true)
	d, err := dict.New(ifoPath, "m", nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close()

	for i := len(locs) - 1; i >= 0; i-- {
		w, err := d.Word(locs[i].offset, locs[i].size)
		if err != nil {
			t.Fatalf("Word(%d): %v", i, err)
		}
		if diff := cmp.Diff(locs[i].data, w.Data); diff != "" {
			t.Fatalf("Word(%d) (-want, +got):\n%s", i, diff)
		}
	}
}

// TestDict_Cache tests the round-robin article cache.
func TestDict_Cache(t *testing.T) {
	t.Parallel()

	articles := [][]*dict.Data{
		{{Type: dict.UTFTextType, Data: []byte("one")}},
		{{Type: dict.UTFTextType, Data: []byte("two")}},
		{{Type: dict.UTFTextType, Data: []byte("three")}},
	}
	ifoPath, locs := writeDict(t, t.TempDir(), "m", articles, false)
	d, err := dict.New(ifoPath, "m", &dict.Options{CacheSize: 2})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close()

	b1, err := d.GetWordData(locs[0].offset, locs[0].size)
	if err != nil {
		t.Fatalf("GetWordData: %v", err)
	}
	b2, err := d.GetWordData(locs[0].offset, locs[0].size)
	if err != nil {
		t.Fatalf("GetWordData: %v", err)
	}
	if &b1[0] != &b2[0] {
		t.Fatal("GetWordData; cached article not reused")
	}

	// Cycle through enough articles to recycle the slot.
	for _, loc := range locs[1:] {
		if _, err := d.GetWordData(loc.offset, loc.size); err != nil {
			t.Fatalf("GetWordData: %v", err)
		}
	}
	w, err := d.Word(locs[0].offset, locs[0].size)
	if err != nil {
		t.Fatalf("Word: %v", err)
	}
	if diff := cmp.Diff(articles[0], w.Data); diff != "" {
		t.Fatalf("Word (-want, +got):\n%s", diff)
	}
}

// TestDict_Searchable tests Searchable.
func TestDict_Searchable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		sts      string
		expected bool
	}{
		{sts: "", expected: true},
		{sts: "m", expected: true},
		{sts: "mW", expected: true},
		{sts: "W", expected: false},
		{sts: "WP", expected: false},
	}

	for _, test := range tests {
		test := test
		t.Run(test.sts, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, "test.dict"), nil, 0o600); err != nil {
				t.Fatal(err)
			}
			d, err := dict.New(filepath.Join(dir, "test.ifo"), test.sts, nil)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			defer d.Close()

			if got := d.Searchable(); got != test.expected {
				t.Fatalf("Searchable(%q); want: %v, got: %v", test.sts, test.expected, got)
			}
		})
	}
}

// TestDict_SearchData tests SearchData.
func TestDict_SearchData(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		sts     string
		data    []*dict.Data
		needles []string

		expected bool
	}{
		{
			name: "single needle found",
			sts:  "m",
			data: []*dict.Data{
				{Type: dict.UTFTextType, Data: []byte("a small round fruit")},
			},
			needles:  []string{"round"},
			expected: true,
		},
		{
			name: "all needles must match",
			sts:  "m",
			data: []*dict.Data{
				{Type: dict.UTFTextType, Data: []byte("a small round fruit")},
			},
			needles:  []string{"round", "sour"},
			expected: false,
		},
		{
			name: "needles in different fields",
			sts:  "",
			data: []*dict.Data{
				{Type: dict.UTFTextType, Data: []byte("a small fruit")},
				{Type: dict.PhoneticType, Data: []byte("fruːt")},
			},
			needles:  []string{"small", "fruːt"},
			expected: true,
		},
		{
			name: "binary fields are not searched",
			sts:  "mW",
			data: []*dict.Data{
				{Type: dict.UTFTextType, Data: []byte("a small fruit")},
				{Type: dict.WavType, Data: []byte("round")},
			},
			needles:  []string{"round"},
			expected: false,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			ifoPath, locs := writeDict(t, t.TempDir(), test.sts, [][]*dict.Data{test.data}, false)
			d, err := dict.New(ifoPath, test.sts, nil)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			defer d.Close()

			needles := make([][]byte, 0, len(test.needles))
			for _, n := range test.needles {
				needles = append(needles, []byte(n))
			}
			found, _, err := d.SearchData(needles, locs[0].offset, locs[0].size, nil)
			if err != nil {
				t.Fatalf("SearchData: %v", err)
			}
			if found != test.expected {
				t.Fatalf("SearchData; want: %v, got: %v", test.expected, found)
			}
		})
	}
}

// TestDict_Corrupt tests error reporting on malformed articles.
func TestDict_Corrupt(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	// A two-field schema needs a terminator for the first field; raw
	// bytes without one cannot be split.
	if err := os.WriteFile(filepath.Join(dir, "test.dict"), []byte("unterminated"), 0o600); err != nil {
		t.Fatal(err)
	}
	d, err := dict.New(filepath.Join(dir, "test.ifo"), "tm", nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close()

	if _, err := d.Word(0, uint32(len("unterminated"))); !errors.Is(err, dict.ErrCorruptArticle) {
		t.Fatalf("Word; want %v, got: %v", dict.ErrCorruptArticle, err)
	}
}

// TestFields_Corrupt tests Fields on malformed canonical data.
func TestFields_Corrupt(t *testing.T) {
	t.Parallel()

	if _, err := dict.Fields([]byte{0x01}); !errors.Is(err, dict.ErrCorruptArticle) {
		t.Fatalf("Fields; want %v, got: %v", dict.ErrCorruptArticle, err)
	}
}

// TestNew_BadSameTypeSequence tests that an invalid schema is rejected.
func TestNew_BadSameTypeSequence(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "test.dict"), nil, 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := dict.New(filepath.Join(dir, "test.ifo"), "m1", nil); err == nil {
		t.Fatal("New: expected failure")
	}
}
