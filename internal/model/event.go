package model

import "time"

// EarningsEvent describes one scheduled announcement to analyse.
type EarningsEvent struct {
	Symbol       string
	EarningsDate time.Time
	DaysToExpiry int
}
