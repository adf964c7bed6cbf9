// Package models defines core data structures for documents, labels, queries, and answers.
package models

// Document is a unit of retrievable text. It is immutable once created and is only
// evicted from the index by an explicit clear.
type Document struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// DocumentInput is the input for ingesting a document. ID is generated when empty.
type DocumentInput struct {
	ID       string            `json:"id,omitempty"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// IndexEntry pairs a document with its embedding. Entries are unique by Document.ID.
type IndexEntry struct {
	Document  Document
	Embedding []float32
}

// Metadata keys set on documents by the ingestion paths.
const (
	MetaSource   = "source"
	MetaDrugName = "drug_name"
	MetaLabelID  = "label_id"
	MetaPath     = "path"
	MetaParentID = "parent_id"
	MetaPart     = "part"
)
