package model

import "time"

// State is the persisted dashboard document.
type State struct {
	Agents       []Agent        `json:"agents"`
	LastUpdated  *time.Time     `json:"lastUpdated"`
	PreviousData []Agent        `json:"previousData"`
	History      []HistoryEntry `json:"history"`
}

// EmptyState is what a fresh installation starts from.
func EmptyState() *State {
	return &State{
		Agents:  []Agent{},
		History: []HistoryEntry{},
	}
}
