package main

// RunSummary is written with -json.
type RunSummary struct {
	// RunID identifies the run.
	RunID string `json:"runID"`
	// Version stores alnpat version.
	Version string `json:"version"`
	// CommandLine is an array storing binary name and all command-line parameters.
	CommandLine []string `json:"commandLine"`
	// Command is the sub-command.
	Command string `json:"command"`
	// Seed is the seed used for random number generation initialization.
	Seed int64 `json:"seed"`
	// NThreads is the number of processes used.
	NThreads int `json:"nThreads"`
	// Time is the computations time in seconds.
	Time float64 `json:"time"`
	// Alignment is the summary of the input alignment.
	Alignment *AlignmentSummary `json:"alignment,omitempty"`
	// Cached is true if the alignment was read from the cache.
	Cached bool `json:"cached,omitempty"`
	// Models lists the models loaded by the model command.
	Models []string `json:"models,omitempty"`
}

// AlignmentSummary describes a compressed alignment.
type AlignmentSummary struct {
	Name            string    `json:"name"`
	SequenceType    string    `json:"sequenceType"`
	NumStates       int       `json:"numStates"`
	NSeq            int       `json:"nSeq"`
	NSite           int       `json:"nSite"`
	NPattern        int       `json:"nPattern"`
	ConstSites      int       `json:"constSites"`
	InformativeSite int       `json:"informativeSites"`
	InvariantSites  int       `json:"invariantSites"`
	GapOnlySites    int       `json:"gapOnlySites"`
	Identical       int       `json:"identicalSequences"`
	Gappy           int       `json:"gappySequences"`
	FailedComp      int       `json:"failedComposition"`
	StateFreq       []float64 `json:"stateFreq,omitempty"`
}
