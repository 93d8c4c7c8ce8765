// Package retrieval implements hybrid retrieval over the versioned store.
//
// A request fans out to BM25 and vector search in parallel, merges the two
// candidate lists, applies the temporal filter for the routed window, reranks
// with a cross-encoder and an optional LLM judge, and fuses rank, time and
// authority into one monotone score. Capability failures drop the affected
// signal; a request is never aborted because a model is unreachable.
package retrieval
