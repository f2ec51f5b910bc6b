package models

import "github.com/ternarybob/scholia/internal/vector"

// AggregateSimilarity is the sentinel similarity attached to answers built
// from multiple documents, where no single stored vector is comparable
// against the aggregated context.
const AggregateSimilarity = 1.0

// Answer is the result of one question-answering invocation. It is returned
// to the caller and never persisted.
type Answer struct {
	// Text is the synthesized natural-language answer.
	Text string `json:"text"`

	// Similarity is the cosine similarity between the question and the
	// answering document, in [-1, 1]. For multi-document aggregate answers it
	// is the AggregateSimilarity sentinel.
	Similarity float64 `json:"similarity"`

	// Sources lists the documents that contributed context, with their
	// individual similarity to the question where one was computed.
	Sources []AnswerSource `json:"sources,omitempty"`
}

// AnswerSource describes one retrieved record that fed the answer context.
type AnswerSource struct {
	Collection CollectionKind `json:"collection"`
	Similarity float64        `json:"similarity"`
}

// QueryPlan is the ordered set of collections selected to answer one
// question, with the field mapping needed to read (text, vector) pairs
// uniformly from each. Built fresh per question, never persisted.
type QueryPlan struct {
	Targets []CollectionTarget
}

// CollectionTarget is one collection in a query plan.
type CollectionTarget struct {
	Kind    CollectionKind
	Mapping FieldMapping
}

// FieldMapping names the stored fields that hold the context text and the
// embedding for a collection. The three collections happen to share one
// storage schema today, but reads go through the mapping so a collection
// with divergent field names only needs new configuration.
type FieldMapping struct {
	TextField   string
	VectorField string
}

// RetrievedRecord is the uniform (text, vector, collection) shape produced
// by multi-collection retrieval. Ephemeral: lives only for the duration of
// one question-answering call.
type RetrievedRecord struct {
	Text       string
	Vector     vector.Vector
	Collection CollectionKind
}
