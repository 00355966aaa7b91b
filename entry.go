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
	"strings"

	"github.com/k3a/html2text"

	"github.com/dictutil/sdquery/dict"
)

// Entry is a dictionary entry.
type Entry struct {
	dict string
	word string
	data []*dict.Data
}

// Dict returns the bookname of the dictionary the entry came from.
func (e *Entry) Dict() string {
	return e.dict
}

// Title returns the entry's title.
func (e *Entry) Title() string {
	return e.word
}

// Data returns the entry's data fields.
func (e *Entry) Data() []*dict.Data {
	return e.data
}

// String returns a text representation of the entry. Fields of type m,
// l, g, t, x, y and k are printed as is, html fields are converted to
// text, and all other fields, including file-like ones, are skipped.
func (e *Entry) String() string {
	var b strings.Builder
	b.WriteString(e.word)
	b.WriteByte('\n')
	for _, d := range e.data {
		switch d.Type {
		case dict.UTFTextType,
			dict.LocaleTextType,
			dict.PangoTextType,
			dict.PhoneticType,
			dict.XDXFType,
			dict.YinBiaoOrKataType,
			dict.KingSoftType:
			b.Write(d.Data)
			b.WriteByte('\n')
		case dict.HTMLType:
			b.WriteString(html2text.HTML2Text(string(d.Data)))
			b.WriteByte('\n')
		}
	}
	return b.String()
}
