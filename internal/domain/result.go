package domain

// JobResult is the outcome of one job.
type JobResult struct {
	Job Job

	// Output is the path of the file written (or planned, in dry run).
	Output string

	// Width and Height are the target dimensions. Zero when the source
	// could not be read.
	Width  int
	Height int

	// Err is nil on success.
	Err error
}

// OK reports whether the job succeeded.
func (r JobResult) OK() bool {
	return r.Err == nil
}

// SourceResult groups the job results of one source that existed on disk.
type SourceResult struct {
	Source Source
	Jobs   []JobResult
}

// Report is the result of a batch pass.
type Report struct {
	DryRun    bool
	OutputDir string

	// Sources lists the processed sources in configuration order.
	Sources []SourceResult

	// Missing lists sources skipped because they did not exist.
	Missing []Source

	// Manifest is the path of the manifest written, empty in dry run.
	Manifest string
}

// Succeeded returns the number of successful jobs.
func (r Report) Succeeded() int {
	n := 0
	for _, s := range r.Sources {
		for _, j := range s.Jobs {
			if j.OK() {
				n++
			}
		}
	}
	return n
}

// Failed returns the number of failed jobs.
func (r Report) Failed() int {
	n := 0
	for _, s := range r.Sources {
		for _, j := range s.Jobs {
			if !j.OK() {
				n++
			}
		}
	}
	return n
}
