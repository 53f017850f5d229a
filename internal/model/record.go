package model

import "time"

// AnalysisRecord is one persisted analysis. AlertSent is the only field
// changed after the record is saved.
type AnalysisRecord struct {
	ID             int64
	CreatedAt      time.Time
	InstID         string
	CurrentPrice   float64
	Recommendation Recommendation
	MarketDataJSON string
	RawResponse    string
	AlertSent      bool
}

// AlertRecord logs one notification attempt, successful or not.
type AlertRecord struct {
	ID         int64
	CreatedAt  time.Time
	InstID     string
	Action     Action
	Confidence float64
	Price      float64
	Message    string
	Success    bool
}

// Counters are the scheduler's process-lifetime statistics.
type Counters struct {
	TotalCycles  int
	FailedCycles int
	AlertsSent   int
	LastCycleAt  time.Time
}
