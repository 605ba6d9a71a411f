// Package batch implements ARG_MAX-safe splitting of a job's file list
// (spec §4.8), so that long argument lists never overflow the host's
// command-line length limit when a step renders `{{.files}}` into its
// shell command.
package batch

// EstimateFilesStringSize estimates the byte size of the rendered
// `{{.files}}` template expansion for the given paths: a conservative
// worst-case shell-quoting overhead of 2x the path length, plus 2 bytes
// for quotes and 1 for the separating space.
func EstimateFilesStringSize(files []string) int {
	total := 0
	for _, f := range files {
		total += len(f)*2 + 2 + 1
	}
	return total
}

// SafeLimit returns half of argMax, leaving headroom for environment
// variables and the command itself.
func SafeLimit(argMax int) int {
	return argMax / 2
}

// Split partitions files into chunks whose estimated rendered size never
// exceeds safeLimit, via binary search for the largest prefix that fits
// and then chunking by that size. A single file that alone exceeds the
// limit is kept as its own one-file chunk rather than dropped.
func Split(files []string, safeLimit int) [][]string {
	if len(files) == 0 {
		return nil
	}
	if EstimateFilesStringSize(files) <= safeLimit || len(files) == 1 {
		return [][]string{files}
	}

	low, high := 1, len(files)
	batchSize := 1
	for low < high {
		mid := ceilDiv(low+high, 2)
		cut := mid
		if cut > len(files) {
			cut = len(files)
		}
		if EstimateFilesStringSize(files[:cut]) <= safeLimit {
			low = mid
			batchSize = mid
		} else {
			high = mid - 1
		}
	}
	if batchSize < 1 {
		batchSize = 1
	}

	var chunks [][]string
	for i := 0; i < len(files); i += batchSize {
		end := i + batchSize
		if end > len(files) {
			end = len(files)
		}
		chunks = append(chunks, files[i:end])
	}
	return chunks
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
