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

// Package stardict implements reading and querying StarDict
// dictionaries in pure Go.
//
// A dictionary is a set of files sharing a base name:
//
//  1. An .ifo file with metadata describing the other files.
//  2. An .idx file holding the sorted headword index with offsets into
//     the .dict file. It may be compressed using gzip (.idx.gz).
//  3. A .dict file holding the article data. It may be compressed
//     using the dictzip format (.dict.dz).
//  4. An optional .syn file holding synonyms that redirect to index
//     positions.
//
// Stardict binds the files of a single dictionary. Library queries a
// set of dictionaries at once and layers fuzzy, glob and full-text
// search over the exact headword lookup.
//
// More info on the dictionary format can be found at this URL:
// https://github.com/huzheng001/stardict-3/blob/master/dict/doc/StarDictFileFormat
package stardict
