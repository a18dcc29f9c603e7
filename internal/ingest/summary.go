package ingest

import "time"

// RunSummary aggregates the outcomes of one run. Only the driver goroutine
// writes to it while a run is in flight.
type RunSummary struct {
	RunID     string        `json:"run_id"`
	Source    string        `json:"source"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
	DryRun    bool          `json:"dry_run"`

	Candidates int `json:"candidates"`
	Existing   int `json:"existing"`
	Work       int `json:"work"`

	Success int   `json:"success"`
	Failure int   `json:"failure"`
	Partial int   `json:"partial"`
	Skipped int   `json:"skipped"`
	Bytes   int64 `json:"bytes"`

	CatalogDegraded  bool   `json:"catalog_degraded"`
	CatalogError     string `json:"catalog_error,omitempty"`
	ExistingDegraded bool   `json:"existing_degraded"`
	ExistingError    string `json:"existing_error,omitempty"`

	// Problems holds failure and partial outcomes in arrival order.
	Problems []Outcome `json:"problems"`
	Outcomes []Outcome `json:"-"`
}

// Add folds one outcome into the totals.
func (s *RunSummary) Add(o Outcome) {
	switch o.Kind {
	case KindSuccess:
		s.Success++
	case KindFailure:
		s.Failure++
	case KindPartial:
		s.Partial++
	case KindSkipped:
		s.Skipped++
	}
	if o.Landed() {
		s.Bytes += o.Bytes
	}
	if o.Problem() {
		s.Problems = append(s.Problems, o)
	}
	s.Outcomes = append(s.Outcomes, o)
}

// Total returns the number of outcomes recorded.
func (s RunSummary) Total() int {
	return s.Success + s.Failure + s.Partial + s.Skipped
}

// HasProblems reports whether any item failed or landed only partially.
func (s RunSummary) HasProblems() bool {
	return s.Failure > 0 || s.Partial > 0
}

// Degraded reports whether either input was incomplete.
func (s RunSummary) Degraded() bool {
	return s.CatalogDegraded || s.ExistingDegraded
}

func (s *RunSummary) merge(other RunSummary) {
	for _, o := range other.Outcomes {
		s.Add(o)
	}
}
