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

// Package idx implements the two on-disk variants of the StarDict
// headword index.
//
// Each index record comes in three parts:
//  1. The headword: a utf-8 string terminated by a null byte ('\0').
//  2. The offset: a 32 bit integer offset of the article in the .dict
//     file in network byte order.
//  3. The size: a 32 bit integer size of the article in the .dict file
//     in network byte order.
//
// Records are sorted by an ASCII-case-insensitive comparison with ties
// broken by raw byte order.
//
// A plain .idx file is served by OffsetIndex, which pages the file and
// keeps a persistent page-offset sidecar next to it. A gzip-compressed
// .idx.gz file is served by WordListIndex, which holds the whole
// decompressed index in memory.
package idx
