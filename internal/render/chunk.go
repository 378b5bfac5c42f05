package render

import "strings"

// DefaultChunkLimit is the per-message character budget used for batch
// summaries, leaving headroom under Discord's 2000-character cap.
const DefaultChunkLimit = 1900

// ChunkLines splits one logical block of newline-separated lines into chunks
// of at most limit characters. Lines are packed greedily and never reordered;
// a single line longer than the limit is hard-sliced into limit-sized pieces.
// Rejoining the chunks (by newline at line boundaries) reproduces every
// input line exactly once, in order.
func ChunkLines(block string, limit int) []string {
	if limit <= 0 {
		limit = DefaultChunkLimit
	}
	if len(block) <= limit {
		return []string{block}
	}

	var chunks []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
		}
	}

	for _, line := range strings.Split(block, "\n") {
		if len(line) > limit {
			flush()
			for len(line) > limit {
				chunks = append(chunks, line[:limit])
				line = line[limit:]
			}
			if len(line) > 0 {
				cur.WriteString(line)
			}
			continue
		}

		need := len(line)
		if cur.Len() > 0 {
			need++ // joining newline
		}
		if cur.Len()+need > limit {
			flush()
		}
		if cur.Len() > 0 {
			cur.WriteByte('\n')
		}
		cur.WriteString(line)
	}
	flush()
	return chunks
}
