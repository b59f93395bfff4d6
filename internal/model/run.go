package model

// RunReport collects what a pipeline run skipped or dropped without aborting.
type RunReport struct {
	RqID               string
	FetchedTickers     []string
	UpToDateTickers    []string
	FailedTickers      map[string]string
	DroppedCurrencies  map[string]string
	PricesSaved        int
	SkippedPositions   []string
	DegenerateNames    map[string]string
	ValuedParticipants []string
	SummarizedNames    []string
	ReportLink         string
}

func NewRunReport(rqID string) *RunReport {
	return &RunReport{
		RqID:              rqID,
		FailedTickers:     make(map[string]string),
		DroppedCurrencies: make(map[string]string),
		DegenerateNames:   make(map[string]string),
	}
}
