package models

import "time"

// Statistics is the rolling compliance summary of one category over one window.
// ComplianceRate is nil when the window holds no records.
type Statistics struct {
	Category       string    `json:"category"`
	Period         string    `json:"period"`
	PeriodStart    time.Time `json:"period_start"`
	PeriodEnd      time.Time `json:"period_end"`
	Total          int       `json:"total"`
	Met            int       `json:"met"`
	Violated       int       `json:"violated"`
	Active         int       `json:"active"`
	ComplianceRate *float64  `json:"compliance_rate"`
	ComputedAt     time.Time `json:"computed_at"`
}

// OutcomeCounts are per-status record counts for a category and window.
type OutcomeCounts struct {
	Total    int
	Met      int
	Violated int
	Active   int
}
