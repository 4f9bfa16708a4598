package domain

import "time"

// Publication is the single configuration record shown on every display.
// EndTimestamp and WarningMinutes are nil when unset.
type Publication struct {
	Text           string `json:"text"`
	Color          string `json:"color"`
	BlinkMode      bool   `json:"blink_mode"`
	EndTimestamp   *int64 `json:"end_timestamp"`
	WarningMinutes *int   `json:"warning_minutes"`
}

// Clone returns a deep copy so callers never share the optional fields.
func (p Publication) Clone() Publication {
	out := p
	if p.EndTimestamp != nil {
		ts := *p.EndTimestamp
		out.EndTimestamp = &ts
	}
	if p.WarningMinutes != nil {
		m := *p.WarningMinutes
		out.WarningMinutes = &m
	}
	return out
}

// HasCountdown reports whether an end time is set.
func (p Publication) HasCountdown() bool {
	return p.EndTimestamp != nil
}

// EndTime returns the countdown end in loc, or the zero time when unset.
func (p Publication) EndTime(loc *time.Location) time.Time {
	if p.EndTimestamp == nil {
		return time.Time{}
	}
	return time.Unix(*p.EndTimestamp, 0).In(loc)
}

// Field names a single Publication field. Values match the persisted JSON keys.
type Field string

const (
	FieldText           Field = "text"
	FieldColor          Field = "color"
	FieldBlinkMode      Field = "blink_mode"
	FieldEndTimestamp   Field = "end_timestamp"
	FieldWarningMinutes Field = "warning_minutes"
)

// Fields lists every recognised field in persisted order.
var Fields = []Field{FieldText, FieldColor, FieldBlinkMode, FieldEndTimestamp, FieldWarningMinutes}

// Valid reports whether f is one of the recognised fields.
func (f Field) Valid() bool {
	for _, known := range Fields {
		if f == known {
			return true
		}
	}
	return false
}

// Int64Ptr and IntPtr build optional values.
func Int64Ptr(v int64) *int64 { return &v }

func IntPtr(v int) *int { return &v }
