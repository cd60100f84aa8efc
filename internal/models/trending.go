package models

import "time"

// TrendingCounter is the popularity tally of one normalized search query
type TrendingCounter struct {
	Query        string    `json:"query"`
	Count        int64     `json:"count"`
	LastSearched time.Time `json:"last_searched"`
}
