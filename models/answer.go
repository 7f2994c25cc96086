package models

// Source identifies one cited document chunk backing an answer.
type Source struct {
	Title   string `json:"title"`
	Excerpt string `json:"excerpt"`
}

// AnswerRecord is the result of one query: the generated answer text plus the
// sources the answer cited, in citation order. Sources may be empty when the
// model produced no parseable citation, or when nothing relevant was retrieved.
type AnswerRecord struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// ReindexResult reports the outcome of an explicit reindex operation.
type ReindexResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// IndexStatus is the externally visible state of the vector index.
type IndexStatus struct {
	Ready       bool `json:"ready"`
	Placeholder bool `json:"placeholder"`
	Chunks      int  `json:"chunks"`
}
