package badger

// Key prefixes for different data types
const (
	snapshotPrefix    = "snap:"
	snapshotDocPrefix = "snap:doc:"
	snapshotChkPrefix = "snap:chunk:"
	snapshotExtPrefix = "snap:ext:"
	snapshotMetaKey   = "snap:meta"
	cachePrefix       = "cache:"
)

func makeDocKey(docID string) []byte {
	return []byte(snapshotDocPrefix + docID)
}

func makeChunkKey(chunkID string) []byte {
	return []byte(snapshotChkPrefix + chunkID)
}

func makeExtKey(externalID string) []byte {
	return []byte(snapshotExtPrefix + externalID)
}

func makeCacheKey(key string) []byte {
	return []byte(cachePrefix + key)
}
