package bridge

// maxChunkSize is the largest IN-list the bridge will send to the analysis
// store in one query, staying under common driver/host parameter limits.
const maxChunkSize = 500

// ChunkStrings splits ids into batches of at most maxChunkSize, preserving
// order, for building `WHERE id IN (...)` queries against the analysis
// store without tripping its parameter-count limit.
func ChunkStrings(ids []string) [][]string {
	if len(ids) == 0 {
		return nil
	}
	chunks := make([][]string, 0, (len(ids)+maxChunkSize-1)/maxChunkSize)
	for len(ids) > maxChunkSize {
		chunks = append(chunks, ids[:maxChunkSize:maxChunkSize])
		ids = ids[maxChunkSize:]
	}
	return append(chunks, ids)
}
