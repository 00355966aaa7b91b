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
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dictutil/sdquery/internal/folding"
)

// lookupSimilar finds entries for differently cased or inflected forms
// of word. It is the fallback when an exact lookup finds nothing. Case
// variants are tried first; the suffix rules only apply to pure-ASCII
// words. The first form with a hit wins.
func (s *Stardict) lookupSimilar(word string) ([]int64, error) {
	try := func(w string) ([]int64, bool, error) {
		indices, _, err := s.Lookup(w)
		return indices, len(indices) > 0, err
	}

	lower := cases.Lower(language.Und)
	if v := lower.String(word); v != word {
		if indices, ok, err := try(v); err != nil || ok {
			return indices, err
		}
	}
	if v := cases.Upper(language.Und).String(word); v != word {
		if indices, ok, err := try(v); err != nil || ok {
			return indices, err
		}
	}
	if r, size := utf8.DecodeRuneInString(word); size > 0 {
		if v := string(unicode.ToUpper(r)) + lower.String(word[size:]); v != word {
			if indices, ok, err := try(v); err != nil || ok {
				return indices, err
			}
		}
	}

	if !folding.IsPureASCII(word) {
		return nil, nil
	}

	// tryStripped attempts w and, when the suffix was uppercase or the
	// word itself starts with an uppercase letter, its ascii-lowered
	// form.
	tryStripped := func(w string, upcase bool) ([]int64, bool, error) {
		indices, ok, err := try(w)
		if err != nil || ok {
			return indices, ok, err
		}
		if upcase || folding.IsASCIIUpper(word[0]) {
			if lw := folding.ASCIILower(w); lw != w {
				return try(lw)
			}
		}
		return nil, false, nil
	}

	n := len(word)

	// Cut "s" or "d".
	if n > 1 {
		up := word[n-1] == 'S' || word[n-2:] == "ED"
		if up || word[n-1] == 's' || word[n-2:] == "ed" {
			if indices, ok, err := tryStripped(word[:n-1], up); err != nil || ok {
				return indices, err
			}
		}
	}

	// Cut "ly".
	if n > 2 {
		up := word[n-2:] == "LY"
		if up || word[n-2:] == "ly" {
			w := word[:n-2]
			if n > 5 && w[n-3] == w[n-4] && !folding.IsVowel(w[n-4]) && folding.IsVowel(w[n-5]) {
				// Doubled consonant before the suffix.
				if indices, ok, err := tryStripped(w[:n-3], up); err != nil || ok {
					return indices, err
				}
			}
			if indices, ok, err := tryStripped(w, up); err != nil || ok {
				return indices, err
			}
		}
	}

	// Cut "ing".
	if n > 3 {
		up := word[n-3:] == "ING"
		if up || word[n-3:] == "ing" {
			w := word[:n-3]
			if n > 6 && w[n-4] == w[n-5] && !folding.IsVowel(w[n-5]) && folding.IsVowel(w[n-6]) {
				if indices, ok, err := tryStripped(w[:n-4], up); err != nil || ok {
					return indices, err
				}
			}
			if indices, ok, err := tryStripped(w, up); err != nil || ok {
				return indices, err
			}
			// "writing" -> "write".
			e := w + "e"
			if up {
				e = w + "E"
			}
			if indices, ok, err := tryStripped(e, up); err != nil || ok {
				return indices, err
			}
		}
	}

	// Cut "es" after s, x, o, ch or sh.
	if n > 3 {
		up := word[n-2:] == "ES" &&
			(word[n-3] == 'S' || word[n-3] == 'X' || word[n-3] == 'O' ||
				(n > 4 && word[n-3] == 'H' && (word[n-4] == 'C' || word[n-4] == 'S')))
		if up || (word[n-2:] == "es" &&
			(word[n-3] == 's' || word[n-3] == 'x' || word[n-3] == 'o' ||
				(n > 4 && word[n-3] == 'h' && (word[n-4] == 'c' || word[n-4] == 's')))) {
			if indices, ok, err := tryStripped(word[:n-2], up); err != nil || ok {
				return indices, err
			}
		}
	}

	// Cut "ed".
	if n > 3 {
		up := word[n-2:] == "ED"
		if up || word[n-2:] == "ed" {
			w := word[:n-2]
			if n > 5 && w[n-3] == w[n-4] && !folding.IsVowel(w[n-4]) && folding.IsVowel(w[n-5]) {
				if indices, ok, err := tryStripped(w[:n-3], up); err != nil || ok {
					return indices, err
				}
			}
			if indices, ok, err := tryStripped(w, up); err != nil || ok {
				return indices, err
			}
		}
	}

	// Cut "ied", add "y" as in "studied" -> "study".
	if n > 3 {
		up := word[n-3:] == "IED"
		if up || word[n-3:] == "ied" {
			w := word[:n-3] + "y"
			if up {
				w = word[:n-3] + "Y"
			}
			if indices, ok, err := tryStripped(w, up); err != nil || ok {
				return indices, err
			}
		}
	}

	// Cut "ies", add "y" as in "studies" -> "study".
	if n > 3 {
		up := word[n-3:] == "IES"
		if up || word[n-3:] == "ies" {
			w := word[:n-3] + "y"
			if up {
				w = word[:n-3] + "Y"
			}
			if indices, ok, err := tryStripped(w, up); err != nil || ok {
				return indices, err
			}
		}
	}

	// Cut "er".
	if n > 2 {
		up := word[n-2:] == "ER"
		if up || word[n-2:] == "er" {
			if indices, ok, err := tryStripped(word[:n-2], up); err != nil || ok {
				return indices, err
			}
		}
	}

	// Cut "est".
	if n > 3 {
		up := word[n-3:] == "EST"
		if up || word[n-3:] == "est" {
			if indices, ok, err := tryStripped(word[:n-3], up); err != nil || ok {
				return indices, err
			}
		}
	}

	return nil, nil
}
