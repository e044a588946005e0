// Package pipeline runs a folderize batch: select files, then for each one
// sanitize its name, allocate a folder, transfer the file, describe it, and
// write the README and metadata record.
//
// Processing is strictly sequential. Every per-file failure is logged as a
// warning and counted; the batch always continues with the next file.
//
// Split: runner.go (Run, processFile, logging helpers), mover.go (copy and
// move), stats.go (RunStats).
package pipeline
