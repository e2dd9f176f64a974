package ingest

// chunkText splits text into fixed-size character chunks. UTF-8 sequences
// are not split mid-rune.
func chunkText(text string, maxChars int) []string {
	if maxChars <= 0 {
		maxChars = 1500
	}
	if text == "" {
		return nil
	}
	runes := []rune(text)
	chunks := make([]string, 0, (len(runes)+maxChars-1)/maxChars)
	for i := 0; i < len(runes); i += maxChars {
		end := i + maxChars
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks
}
