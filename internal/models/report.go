package models

import "time"

// BackfillReport summarizes one backfill run for the email digest.
type BackfillReport struct {
	Date      time.Time
	Scanned   int
	Succeeded int
	Failed    int
	Sessions  []BackfillItem
}

// BackfillItem is one session the backfill run touched.
type BackfillItem struct {
	SessionID string
	Title     string
	VideoURL  string
	Error     string
}
