package models

import "time"

// DocumentInfo is the metadata the object store reports for one stored document.
type DocumentInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// UnitMetadata carries provenance for a normalized text unit. Source is the
// storage key of the originating document and is the join key back to it for
// the lifetime of a pipeline run. Page is set only for paginated formats.
type UnitMetadata struct {
	Source       string    `json:"source"`
	LastModified time.Time `json:"last_modified"`
	Page         int       `json:"page,omitempty"`
}

// NormalizedUnit is one unit of decoded text produced by the loader. A text
// file yields a single unit; a PDF yields one per page, a workbook one per
// sheet.
type NormalizedUnit struct {
	Text     string       `json:"text"`
	Metadata UnitMetadata `json:"metadata"`
}
