// Copyright 2026 Poiesic Systems
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


package badger

import (
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/docingest/core"
)

// collectionMeta records per-collection settings.
type collectionMeta struct {
	Dimension int
}

var (
	vectorMUS         = ord.NewSliceSer[float32](raw.Float32)
	indexRecordMUS    = indexRecordSer{}
	collectionMetaMUS = collectionMetaSer{}
)

// indexRecordSer is the MUS serializer for core.IndexRecord. Field order is
// part of the stored format; do not reorder.
type indexRecordSer struct{}

func (indexRecordSer) Marshal(r core.IndexRecord, bs []byte) (n int) {
	n = ord.String.Marshal(r.Key, bs)
	n += ord.String.Marshal(r.DocumentID, bs[n:])
	n += ord.String.Marshal(r.RunID, bs[n:])
	n += varint.Int.Marshal(r.Ordinal, bs[n:])
	n += ord.String.Marshal(r.Text, bs[n:])
	n += vectorMUS.Marshal(r.Vector, bs[n:])
	return
}

func (indexRecordSer) Unmarshal(bs []byte) (r core.IndexRecord, n int, err error) {
	r.Key, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	r.DocumentID, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	r.RunID, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	r.Ordinal, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	r.Text, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	r.Vector, n1, err = vectorMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (indexRecordSer) Size(r core.IndexRecord) (size int) {
	size = ord.String.Size(r.Key)
	size += ord.String.Size(r.DocumentID)
	size += ord.String.Size(r.RunID)
	size += varint.Int.Size(r.Ordinal)
	size += ord.String.Size(r.Text)
	size += vectorMUS.Size(r.Vector)
	return
}

func (indexRecordSer) Skip(bs []byte) (n int, err error) {
	n, err = ord.String.Skip(bs)
	if err != nil {
		return
	}
	var n1 int
	for i := 0; i < 2; i++ {
		n1, err = ord.String.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	n1, err = varint.Int.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = vectorMUS.Skip(bs[n:])
	n += n1
	return
}

// collectionMetaSer is the MUS serializer for collectionMeta.
type collectionMetaSer struct{}

func (collectionMetaSer) Marshal(m collectionMeta, bs []byte) (n int) {
	return varint.Int.Marshal(m.Dimension, bs)
}

func (collectionMetaSer) Unmarshal(bs []byte) (m collectionMeta, n int, err error) {
	m.Dimension, n, err = varint.Int.Unmarshal(bs)
	return
}

func (collectionMetaSer) Size(m collectionMeta) (size int) {
	return varint.Int.Size(m.Dimension)
}

func (collectionMetaSer) Skip(bs []byte) (n int, err error) {
	return varint.Int.Skip(bs)
}

// marshalRecord serializes an IndexRecord to bytes.
func marshalRecord(record *core.IndexRecord) []byte {
	buf := make([]byte, indexRecordMUS.Size(*record))
	indexRecordMUS.Marshal(*record, buf)
	return buf
}

// unmarshalRecord deserializes an IndexRecord from bytes.
func unmarshalRecord(data []byte) (*core.IndexRecord, error) {
	record, _, err := indexRecordMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// marshalCollectionMeta serializes collection metadata to bytes.
func marshalCollectionMeta(meta *collectionMeta) []byte {
	buf := make([]byte, collectionMetaMUS.Size(*meta))
	collectionMetaMUS.Marshal(*meta, buf)
	return buf
}

// unmarshalCollectionMeta deserializes collection metadata from bytes.
func unmarshalCollectionMeta(data []byte) (*collectionMeta, error) {
	meta, _, err := collectionMetaMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &meta, nil
}
