package app

import "github.com/pscheid92/djmonitor/internal/domain"

// SetPublicationRequest carries the fields to change. Nil fields keep their value.
type SetPublicationRequest struct {
	Text      *string
	Color     *string
	BlinkMode *bool
}

func (r SetPublicationRequest) empty() bool {
	return r.Text == nil && r.Color == nil && r.BlinkMode == nil
}

// ClearPublicationRequest empties the text and optionally changes color and blink.
type ClearPublicationRequest struct {
	Color     *string
	BlinkMode *bool
}

// SetEndTimeRequest holds the raw countdown inputs from the control page.
// WarningMinutes is the decimal text of an integer.
type SetEndTimeRequest struct {
	Date           string
	Time           string
	WarningMinutes string
}

// State is the committed record plus the end time split for the control page.
// EndDate is YYYY-MM-DD and EndTime is HH:MM in the display timezone; both are
// empty when no countdown is set.
type State struct {
	domain.Publication
	EndDate string `json:"end_date"`
	EndTime string `json:"end_time"`
}
