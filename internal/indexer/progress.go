package indexer

// ProgressReporter provides callbacks for reporting indexing progress.
// Implementations can display progress bars, log messages, or remain silent.
// OnFileProcessed is called from worker goroutines and must be safe for
// concurrent use.
type ProgressReporter interface {
	// OnDiscoveryStart is called when file discovery begins.
	OnDiscoveryStart()

	// OnDiscoveryComplete is called when file discovery finishes.
	OnDiscoveryComplete(sourceFiles, skippedFiles int)

	// OnFileProcessingStart is called before processing files.
	OnFileProcessingStart(totalFiles int)

	// OnFileProcessed is called after each file is processed.
	OnFileProcessed(relPath string)

	// OnWriting is called when the index is about to be written.
	OnWriting(format string)

	// OnComplete is called when indexing completes successfully.
	OnComplete(stats *Stats)
}

// NoOpProgressReporter is a progress reporter that does nothing.
// Used when progress reporting is disabled (e.g., --quiet flag).
type NoOpProgressReporter struct{}

func (n *NoOpProgressReporter) OnDiscoveryStart()                                 {}
func (n *NoOpProgressReporter) OnDiscoveryComplete(sourceFiles, skippedFiles int) {}
func (n *NoOpProgressReporter) OnFileProcessingStart(totalFiles int)              {}
func (n *NoOpProgressReporter) OnFileProcessed(relPath string)                    {}
func (n *NoOpProgressReporter) OnWriting(format string)                           {}
func (n *NoOpProgressReporter) OnComplete(stats *Stats)                           {}
