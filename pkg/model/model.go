// Package model holds the data types shared across the store, index, and
// search components: record headers, index entries, and search results.
// Kept separate from any one component so none of pkg/store, pkg/searchindex,
// or pkg/search needs to import another's package for a shared type.
package model

import "time"

// Attachment is a named byte stream attached to a record at save time. A
// record may have zero or more; logical names must be unique within one
// save call.
type Attachment struct {
	LogicalName string
	ContentType string
	Bytes       []byte
}

// RecordHeader describes a record's identity and metadata, independent of
// its payload. Produced by the Index Provider and carried by every
// SearchResult.
type RecordHeader struct {
	ID        string            `json:"id"`
	CreatedAt time.Time         `json:"createdAt"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// IndexEntry is the persisted per-record row in the search index: the
// lowercased searchable text, metadata, and creation time for one
// identifier. One entry exists per indexed identifier; re-indexing replaces
// the prior entry wholesale.
type IndexEntry struct {
	ID                string            `json:"id"`
	NormalizedContent string            `json:"content"`
	Metadata          map[string]string `json:"metadata,omitempty"`
	CreatedAt         time.Time         `json:"created"`
}

// SearchResult is an untyped index hit: an identifier, its relevance score,
// and its header. Produced by the Index Provider's query; lifted into a
// TypedSearchResult by the Search Coordinator.
type SearchResult struct {
	ID     string
	Score  float64
	Header RecordHeader
}

// TypedSearchResult is a SearchResult plus the deserialized payload value
// the Search Coordinator materialized for it. When the underlying record is
// an aggregate (a sequence of values), one TypedSearchResult is emitted per
// element, all sharing ID, Score, and Header.
type TypedSearchResult[T any] struct {
	ID     string
	Score  float64
	Header RecordHeader
	Value  T
}
