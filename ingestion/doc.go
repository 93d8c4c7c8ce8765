// Package ingestion turns JSONL ledgers and free text into versioned chunks.
//
// A Service classifies each payload as structured (every non-blank line is a
// JSON object) or unstructured, derives windows, entities, units and
// authority, and writes the resulting chunks to the store in input order.
//
// Embeddings are prefetched in batches on a worker pool before the store
// writes begin. A batch that still fails after retries is left for the store
// to embed on its own. Freshness markers are written to the cache for chunks
// whose URI matches a configured trigger.
package ingestion
