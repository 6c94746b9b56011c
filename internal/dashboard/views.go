package dashboard

import (
	"time"

	"github.com/uzhanitsoft/qarzdorlik/internal/model"
)

// DataView is the payload of the main dashboard query.
type DataView struct {
	Agents       []model.Agent     `json:"agents"`
	PreviousData []model.Agent     `json:"previousData"`
	LastUpdated  *time.Time        `json:"lastUpdated"`
	Totals       model.Totals      `json:"totals"`
	Changes      *model.Comparison `json:"changes"`
	HistoryCount int               `json:"historyCount"`
}

// HistoryView lists snapshots newest first.
type HistoryView struct {
	Count   int                  `json:"count"`
	History []model.HistoryEntry `json:"history"`
}

// CompareView compares the live totals with one recorded day.
type CompareView struct {
	Current  model.Totals       `json:"current"`
	Compared model.HistoryEntry `json:"compared"`
	Changes  *model.Comparison  `json:"changes"`
}

// StatusView is returned by the service root.
type StatusView struct {
	Status       string     `json:"status"`
	Agents       int        `json:"agents"`
	LastUpdated  *time.Time `json:"lastUpdated"`
	HistoryCount int        `json:"historyCount"`
}
