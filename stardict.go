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

package stardict

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gobwas/glob"
	"github.com/sirupsen/logrus"

	"github.com/dictutil/sdquery/dict"
	"github.com/dictutil/sdquery/idx"
	"github.com/dictutil/sdquery/ifo"
	"github.com/dictutil/sdquery/syn"
)

// ErrMissingFile indicates that a file required by the dictionary
// metadata does not exist.
var ErrMissingFile = errors.New("missing dictionary file")

// Options are options for opening and querying dictionaries.
type Options struct {
	// EntriesPerPage is the number of index records per page of a
	// disk-backed index.
	EntriesPerPage int

	// CacheDir overrides the user cache directory used for index page
	// offset cache files.
	CacheDir string

	// ArticleCacheSize is the number of decoded articles each
	// dictionary keeps in memory.
	ArticleCacheSize int

	// MaxFuzzyDistance is the edit distance at which fuzzy matching
	// gives up on a headword.
	MaxFuzzyDistance int

	// MaxMatchItemPerLib bounds how many glob matches a single
	// dictionary contributes.
	MaxMatchItemPerLib int

	// Logger receives warnings about skipped dictionaries and failed
	// lookups. The standard logger is used when nil.
	Logger logrus.FieldLogger
}

// DefaultOptions is the default options for dictionaries.
var DefaultOptions = &Options{
	EntriesPerPage:     32,
	ArticleCacheSize:   2,
	MaxFuzzyDistance:   3,
	MaxMatchItemPerLib: 1024,
}

// Stardict is a single StarDict dictionary.
type Stardict struct {
	ifo  *ifo.Ifo
	idx  idx.Index
	syn  *syn.Syn
	dict *dict.Dict
}

// Open opens the dictionary described by the .ifo file at ifoPath.
func Open(ifoPath string, options *Options) (*Stardict, error) {
	if options == nil {
		options = DefaultOptions
	}

	meta, err := ifo.Load(ifoPath, false)
	if err != nil {
		return nil, err
	}

	switch meta.Version {
	case "2.4.2", "3.0.0":
	default:
		return nil, fmt.Errorf("%w: unsupported version %q", ifo.ErrMalformedIfo, meta.Version)
	}

	base := strings.TrimSuffix(ifoPath, filepath.Ext(ifoPath))
	if !fileExists(base+".idx.gz") && !fileExists(base+".idx") {
		return nil, fmt.Errorf("%w: %s.idx", ErrMissingFile, base)
	}
	if !fileExists(base+".dict.dz") && !fileExists(base+".dict") {
		return nil, fmt.Errorf("%w: %s.dict", ErrMissingFile, base)
	}

	s := &Stardict{ifo: meta}

	s.idx, err = idx.New(ifoPath, meta.WordCount, meta.IdxFileSize, &idx.Options{
		EntriesPerPage: options.EntriesPerPage,
		CacheDir:       options.CacheDir,
	})
	if err != nil {
		return nil, err
	}

	s.dict, err = dict.New(ifoPath, meta.SameTypeSequence, &dict.Options{
		CacheSize: options.ArticleCacheSize,
	})
	if err != nil {
		s.idx.Close()
		return nil, err
	}

	if meta.SynWordCount > 0 {
		synPath := base + ".syn"
		if !fileExists(synPath) {
			s.idx.Close()
			s.dict.Close()
			return nil, fmt.Errorf("%w: %s", ErrMissingFile, synPath)
		}
		s.syn, err = syn.Load(synPath, meta.SynWordCount)
		if err != nil {
			s.idx.Close()
			s.dict.Close()
			return nil, err
		}
	}

	return s, nil
}

// OpenAll opens all dictionaries under a directory. This function will
// return all successfully opened dictionaries along with any errors
// that occurred.
func OpenAll(path string, options *Options) ([]*Stardict, []error) {
	var dicts []*Stardict
	var errs []error
	if err := filepath.WalkDir(path, func(path string, info fs.DirEntry, err error) error {
		// Walk errors are recorded and the walk continues.
		if err != nil {
			errs = append(errs, err)
			return nil
		}
		ext := filepath.Ext(info.Name())
		if !info.IsDir() && (ext == ".ifo" || ext == ".IFO") {
			d, err := Open(path, options)
			if err != nil {
				errs = append(errs, err)
				return nil
			}
			dicts = append(dicts, d)
		}
		return nil
	}); err != nil {
		errs = append(errs, err)
		return nil, errs
	}
	return dicts, errs
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Bookname returns the dictionary name.
func (s *Stardict) Bookname() string {
	return s.ifo.Bookname
}

// Description returns the dictionary description.
func (s *Stardict) Description() string {
	return s.ifo.Description
}

// Author returns the dictionary author.
func (s *Stardict) Author() string {
	return s.ifo.Author
}

// Email returns the dictionary contact email.
func (s *Stardict) Email() string {
	return s.ifo.Email
}

// Website returns the dictionary website url.
func (s *Stardict) Website() string {
	return s.ifo.Website
}

// Version returns the dictionary format version.
func (s *Stardict) Version() string {
	return s.ifo.Version
}

// WordCount returns the number of headwords in the index.
func (s *Stardict) WordCount() int64 {
	return s.ifo.WordCount
}

// SynWordCount returns the number of synonym records.
func (s *Stardict) SynWordCount() int64 {
	return s.ifo.SynWordCount
}

// Path returns the path of the dictionary's .ifo file.
func (s *Stardict) Path() string {
	return s.ifo.Path
}

// Lookup returns the index positions of all entries whose headword or
// synonym compares equal to word. When nothing matches, next is the
// position word would be inserted at, or idx.InvalidIndex when it
// sorts after the whole index.
func (s *Stardict) Lookup(word string) (indices []int64, next int64, err error) {
	if s.syn != nil {
		indices = append(indices, s.syn.Lookup(word)...)
	}
	idxIndices, next, err := s.idx.Lookup(word)
	if err != nil {
		return nil, 0, err
	}
	indices = append(indices, idxIndices...)
	slices.Sort(indices)
	return slices.Compact(indices), next, nil
}

// LookupWithGlob returns the index positions of entries whose headword
// matches the pattern, scanning the index in order. At most limit-1
// positions are returned.
func (s *Stardict) LookupWithGlob(g glob.Glob, limit int64) ([]int64, error) {
	wordCount := s.idx.WordCount()
	var indices []int64
	for i := int64(0); i < wordCount && int64(len(indices)) < limit-1; i++ {
		key, err := s.idx.GetKey(i)
		if err != nil {
			return nil, err
		}
		if g.Match(key) {
			indices = append(indices, i)
		}
	}
	return indices, nil
}

// GetKey returns the headword at index position i.
func (s *Stardict) GetKey(i int64) (string, error) {
	return s.idx.GetKey(i)
}

// GetData returns the article offset and size at index position i.
func (s *Stardict) GetData(i int64) (offset, size uint32, err error) {
	return s.idx.GetData(i)
}

// GetKeyAndData returns the full index record at position i.
func (s *Stardict) GetKeyAndData(i int64) (*idx.Word, error) {
	return s.idx.GetKeyAndData(i)
}

// Word returns the full decoded article at index position i.
func (s *Stardict) Word(i int64) (*Entry, error) {
	w, err := s.idx.GetKeyAndData(i)
	if err != nil {
		return nil, err
	}
	a, err := s.dict.Word(w.Offset, w.Size)
	if err != nil {
		return nil, err
	}
	return &Entry{
		dict: s.ifo.Bookname,
		word: w.Word,
		data: a.Data,
	}, nil
}

// Searchable reports whether the dictionary's articles can be searched
// for text.
func (s *Stardict) Searchable() bool {
	return s.dict.Searchable()
}

// Close closes the dictionary's files.
func (s *Stardict) Close() error {
	errs := []error{s.idx.Close()}
	if s.syn != nil {
		errs = append(errs, s.syn.Close())
	}
	errs = append(errs, s.dict.Close())
	return errors.Join(errs...)
}
