// Package alert evaluates rule-based health alerts over a sample window.
package alert

import (
	"strings"
	"time"

	"github.com/vitalwatch/vitalwatch/internal/store"
)

// Severity is ordinal alert urgency: Low < Medium < High.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

func (s Severity) rank() int {
	switch s {
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	default:
		return 0
	}
}

// Max returns the highest severity present; SeverityLow for an empty list.
func Max(alerts []Alert) Severity {
	max := SeverityLow
	for _, a := range alerts {
		if a.Severity.rank() > max.rank() {
			max = a.Severity
		}
	}
	return max
}

// Alert kinds.
const (
	KindBloodPressureHigh  = "blood_pressure_high"
	KindMedicationReminder = "medication_reminder"
)

// Alert is one rule hit.
type Alert struct {
	Kind           string   `json:"kind"`
	Message        string   `json:"message"`
	Severity       Severity `json:"severity"`
	Recommendation string   `json:"recommendation,omitempty"`
	SampleID       int64    `json:"sample_id,omitempty"`
}

// Categories the rules key on. Category matching normalizes spaces to
// underscores, so "blood pressure" and "blood_pressure" are the same.
const (
	categoryBloodPressure = "blood_pressure"
	categoryMedication    = "medication"
)

func normalizeCategory(c string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(c)), " ", "_")
}

// Detect runs every rule over the window and returns the hits in rule order:
// blood-pressure results first, then the medication rule. It is a pure
// function of its inputs; now anchors the "today" comparison.
//
// Rules are additive and independent. Adding a rule must not reorder or
// change the evaluation of the existing ones.
func Detect(samples []store.Sample, now time.Time) []Alert {
	var alerts []Alert
	alerts = append(alerts, detectHighBloodPressure(samples)...)
	alerts = append(alerts, detectMissedMedication(samples, now)...)
	return alerts
}

// detectHighBloodPressure flags every blood-pressure sample whose value
// contains a concerning token. "180/110" trips both tokens but yields one
// alert for that sample.
func detectHighBloodPressure(samples []store.Sample) []Alert {
	var alerts []Alert
	for _, s := range samples {
		if normalizeCategory(s.Category) != categoryBloodPressure {
			continue
		}
		value := strings.ToLower(s.Value)
		if strings.Contains(value, "high") || strings.Contains(value, "180") || strings.Contains(value, "110") {
			alerts = append(alerts, Alert{
				Kind:           KindBloodPressureHigh,
				Message:        "High blood pressure reading detected",
				Severity:       SeverityHigh,
				Recommendation: "Consider consulting with a healthcare provider",
				SampleID:       s.ID,
			})
		}
	}
	return alerts
}

// detectMissedMedication emits exactly one alert when the window has samples
// but none of category medication recorded on now's calendar day. One alert
// per tick regardless of how many days are missing.
func detectMissedMedication(samples []store.Sample, now time.Time) []Alert {
	if len(samples) == 0 {
		return nil
	}
	y, m, d := now.Date()
	for _, s := range samples {
		if normalizeCategory(s.Category) != categoryMedication {
			continue
		}
		sy, sm, sd := s.RecordedAt.In(now.Location()).Date()
		if sy == y && sm == m && sd == d {
			return nil
		}
	}
	return []Alert{{
		Kind:           KindMedicationReminder,
		Message:        "No medication records found for today",
		Severity:       SeverityMedium,
		Recommendation: "Don't forget to log your medications",
	}}
}
