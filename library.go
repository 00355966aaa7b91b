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
	"sort"

	"github.com/gobwas/glob"
	"github.com/sirupsen/logrus"

	"github.com/dictutil/sdquery/internal/distance"
	"github.com/dictutil/sdquery/internal/folding"
)

// Library is an ordered set of dictionaries queried together. Failures
// in a single dictionary are logged and the query continues with the
// remaining ones.
type Library struct {
	options  *Options
	log      logrus.FieldLogger
	dicts    []*Stardict
	progress func()
}

// NewLibrary returns an empty library.
func NewLibrary(options *Options) *Library {
	if options == nil {
		options = DefaultOptions
	}
	log := options.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Library{
		options: options,
		log:     log,
	}
}

// SetProgressFunc sets a function called once per dictionary during
// whole-index scans.
func (l *Library) SetProgressFunc(f func()) {
	l.progress = f
}

// Load opens all dictionaries found under the given directories.
// Dictionaries that fail to open are logged and skipped.
func (l *Library) Load(dirs ...string) {
	for _, dir := range dirs {
		dicts, errs := OpenAll(dir, l.options)
		for _, err := range errs {
			l.log.WithError(err).Warn("skipping dictionary")
		}
		l.dicts = append(l.dicts, dicts...)
	}
}

// Dicts returns the loaded dictionaries in load order.
func (l *Library) Dicts() []*Stardict {
	return l.dicts
}

// Close closes all loaded dictionaries.
func (l *Library) Close() error {
	var errs []error
	for _, d := range l.dicts {
		if err := d.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	l.dicts = nil
	return errors.Join(errs...)
}

// SimpleLookup returns the entries matching word in every dictionary.
// Surrounding whitespace is stripped and internal whitespace collapsed
// before the lookup. Dictionaries without an exact match fall back to
// case and inflection variants of the word.
func (l *Library) SimpleLookup(word string) []*Entry {
	word = folding.FoldWhitespace(word)

	var entries []*Entry
	for _, d := range l.dicts {
		indices, _, err := d.Lookup(word)
		if err != nil {
			l.warn(d, err)
			continue
		}
		if len(indices) == 0 {
			indices, err = d.lookupSimilar(word)
			if err != nil {
				l.warn(d, err)
				continue
			}
		}
		entries = append(entries, l.entries(d, indices)...)
	}
	return entries
}

// entries loads the articles at the given index positions of d.
func (l *Library) entries(d *Stardict, indices []int64) []*Entry {
	var entries []*Entry
	for _, i := range indices {
		e, err := d.Word(i)
		if err != nil {
			l.warn(d, err)
			continue
		}
		entries = append(entries, e)
	}
	return entries
}

func (l *Library) warn(d *Stardict, err error) {
	l.log.WithError(err).WithField("dict", d.Bookname()).Warn("lookup failed")
}

type fuzzySlot struct {
	word     string
	distance int
	ok       bool
}

// LookupWithFuzzy returns up to n headwords whose edit distance to
// word is smallest, scanning every headword of every dictionary. The
// distance ceiling starts at MaxFuzzyDistance and tightens as better
// matches fill the candidate list. Matches are sorted by distance,
// then in index order.
func (l *Library) LookupWithFuzzy(word string, n int) ([]string, bool) {
	if word == "" || n <= 0 {
		return nil, false
	}

	query := []rune(word)
	folding.LowerRunes(query)

	slots := make([]fuzzySlot, n)
	maxDistance := l.options.MaxFuzzyDistance
	for i := range slots {
		slots[i].distance = maxDistance
	}

	for _, d := range l.dicts {
		if l.progress != nil {
			l.progress()
		}
		wordCount := d.idx.WordCount()
		for i := int64(0); i < wordCount; i++ {
			key, err := d.idx.GetKey(i)
			if err != nil {
				l.warn(d, err)
				break
			}

			check := []rune(key)
			diff := len(check) - len(query)
			if diff >= maxDistance || -diff >= maxDistance {
				continue
			}
			if len(check) > len(query) {
				check = check[:len(query)]
			}
			folding.LowerRunes(check)

			dist := distance.Calc(check, query, maxDistance)
			if dist >= maxDistance || dist >= len(query) {
				continue
			}

			already := false
			maxAt := 0
			for j := range slots {
				if slots[j].ok && slots[j].word == key {
					already = true
					break
				}
				// The slot holding the current ceiling is always
				// found; the ceiling is the maximum over all slots.
				if slots[j].distance == maxDistance {
					maxAt = j
				}
			}
			if already {
				continue
			}

			slots[maxAt] = fuzzySlot{word: key, distance: dist, ok: true}
			maxDistance = dist
			for j := range slots {
				if slots[j].distance > maxDistance {
					maxDistance = slots[j].distance
				}
			}
		}
	}

	sort.SliceStable(slots, func(a, b int) bool {
		if slots[a].distance != slots[b].distance {
			return slots[a].distance < slots[b].distance
		}
		if slots[a].ok && slots[b].ok {
			return folding.Compare(slots[a].word, slots[b].word) < 0
		}
		return false
	})

	var words []string
	for _, s := range slots {
		if s.ok {
			words = append(words, s.word)
		}
	}
	return words, len(words) > 0
}

// LookupWithGlob returns the headwords matching the glob pattern in
// any dictionary, deduplicated and sorted in index order. Each
// dictionary contributes at most MaxMatchItemPerLib matches.
func (l *Library) LookupWithGlob(pattern string) ([]string, error) {
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compiling pattern %q: %w", pattern, err)
	}

	var words []string
	seen := map[string]bool{}
	for _, d := range l.dicts {
		if l.progress != nil {
			l.progress()
		}
		indices, err := d.LookupWithGlob(g, int64(l.options.MaxMatchItemPerLib))
		if err != nil {
			l.warn(d, err)
			continue
		}
		for _, i := range indices {
			key, err := d.idx.GetKey(i)
			if err != nil {
				l.warn(d, err)
				continue
			}
			if !seen[key] {
				seen[key] = true
				words = append(words, key)
			}
		}
	}

	sort.Slice(words, func(i, j int) bool {
		return folding.Compare(words[i], words[j]) < 0
	})
	return words, nil
}

// LookupData returns the entries whose article body contains every
// space-separated word of query. Backslash escapes protect spaces and
// literal backslashes and spell tabs and newlines. Dictionaries whose
// articles cannot contain text are skipped.
func (l *Library) LookupData(query string) []*Entry {
	needles := parseSearchWords(query)
	if len(needles) == 0 {
		return nil
	}

	var entries []*Entry
	var buf []byte
	for _, d := range l.dicts {
		if !d.dict.Searchable() {
			continue
		}
		if l.progress != nil {
			l.progress()
		}
		wordCount := d.idx.WordCount()
		for i := int64(0); i < wordCount; i++ {
			w, err := d.idx.GetKeyAndData(i)
			if err != nil {
				l.warn(d, err)
				break
			}
			var found bool
			found, buf, err = d.dict.SearchData(needles, w.Offset, w.Size, buf)
			if err != nil {
				l.warn(d, err)
				break
			}
			if !found {
				continue
			}
			e, err := d.Word(i)
			if err != nil {
				l.warn(d, err)
				continue
			}
			entries = append(entries, e)
		}
	}
	return entries
}

// parseSearchWords splits a full-text query into its search words.
func parseSearchWords(s string) [][]byte {
	var words [][]byte
	var cur []byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' {
			if i+1 == len(s) {
				break
			}
			i++
			switch s[i] {
			case ' ':
				cur = append(cur, ' ')
			case '\\':
				cur = append(cur, '\\')
			case 't':
				cur = append(cur, '\t')
			case 'n':
				cur = append(cur, '\n')
			default:
				cur = append(cur, s[i])
			}
			continue
		}
		if c == ' ' {
			if len(cur) > 0 {
				words = append(words, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, c)
	}
	if len(cur) > 0 {
		words = append(words, cur)
	}
	return words
}
