package pipeline

// RunStats tracks aggregate counters across a batch run.
type RunStats struct {
	Total      int // Files selected.
	Current    int // 1-based index of the file being processed.
	Processed  int // Folders completed.
	Skipped    int // Files left untouched after an interrupt.
	Failed     int // Per-file failures, including unreadable entries.
	Described  int // READMEs that carry generated text.
	TotalBytes int64
}

// OK reports whether every selected file was processed.
func (s *RunStats) OK() bool {
	return s.Failed == 0 && s.Skipped == 0
}
