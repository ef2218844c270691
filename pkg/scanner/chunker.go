package scanner

import "github.com/praetorian-inc/magus/pkg/prefilter"

// DefaultChunkSize is the window size for chunked candidate scans.
const DefaultChunkSize = 1 << 20

// ScanChunked finds candidate offsets below bound without handing the
// whole buffer to the engine at once. Each window extends past its chunk
// by MaxPatternLen-1 bytes, so a match starting inside one chunk is never
// split; every absolute offset lands in exactly one chunk, so the
// concatenated results stay ascending and duplicate-free. The output is
// identical to a single FindCandidates call over the full buffer.
func ScanChunked(set *prefilter.CompiledSet, buf []byte, bound, chunkSize int) ([]int64, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	limit := bound
	if limit > len(buf) {
		limit = len(buf)
	}
	if limit <= 0 {
		return nil, nil
	}

	overlap := set.MaxPatternLen() - 1
	if overlap < 0 {
		overlap = 0
	}

	var out []int64
	for start := 0; start < limit; start += chunkSize {
		chunkBound := limit - start
		if chunkBound > chunkSize {
			chunkBound = chunkSize
		}

		windowEnd := start + chunkBound + overlap
		if windowEnd > len(buf) {
			windowEnd = len(buf)
		}

		offsets, err := set.FindCandidates(buf[start:windowEnd], chunkBound)
		if err != nil {
			return nil, err
		}
		for _, off := range offsets {
			out = append(out, int64(start)+off)
		}
	}
	return out, nil
}
