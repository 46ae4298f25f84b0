// Copyright 2025 Poiesic Systems
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

package cache

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"

	"github.com/poiesic/notectx/core"
)

// DocumentMUS is the mus-format serializer for cached documents.
// Timestamps are stored as UnixMicro.
var DocumentMUS = documentMUS{}

type documentMUS struct{}

func (s documentMUS) Marshal(v core.FetchedDocument, bs []byte) (n int) {
	n = ord.String.Marshal(v.URL, bs)
	n += ord.String.Marshal(v.Title, bs[n:])
	n += ord.String.Marshal(v.Text, bs[n:])
	n += varint.Int64.Marshal(v.FetchedAt.UnixMicro(), bs[n:])
	n += varint.Int64.Marshal(int64(v.Status), bs[n:])
	return n
}

func (s documentMUS) Unmarshal(bs []byte) (v core.FetchedDocument, n int, err error) {
	var n1 int
	v.URL, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	v.Title, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Text, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var micros int64
	micros, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.FetchedAt = time.UnixMicro(micros).UTC()
	var status int64
	status, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Status = core.FetchStatus(status)
	return
}

func (s documentMUS) Size(v core.FetchedDocument) (size int) {
	size = ord.String.Size(v.URL)
	size += ord.String.Size(v.Title)
	size += ord.String.Size(v.Text)
	size += varint.Int64.Size(v.FetchedAt.UnixMicro())
	size += varint.Int64.Size(int64(v.Status))
	return size
}

func (s documentMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	n, err = ord.String.Skip(bs)
	if err != nil {
		return
	}
	for i := 0; i < 2; i++ {
		n1, err = ord.String.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	for i := 0; i < 2; i++ {
		n1, err = varint.Int64.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

// MarshalDocument serializes a document to bytes.
func MarshalDocument(document *core.FetchedDocument) []byte {
	buf := make([]byte, DocumentMUS.Size(*document))
	DocumentMUS.Marshal(*document, buf)
	return buf
}

// UnmarshalDocument deserializes a document from bytes.
func UnmarshalDocument(data []byte) (*core.FetchedDocument, error) {
	document, _, err := DocumentMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &document, nil
}
