package types

import (
	"time"

	"github.com/harborops/quayplan/internal/domain/planning"
)

// Confidence grades how strongly a suggestion is recommended
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// ConfidenceForScore maps a 0-100 total score onto a confidence band
func ConfidenceForScore(score float64) Confidence {
	switch {
	case score >= 80:
		return ConfidenceHigh
	case score >= 60:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Impact labels a reasoning factor's direction
type Impact string

const (
	ImpactPositive Impact = "POSITIVE"
	ImpactNegative Impact = "NEGATIVE"
	ImpactNeutral  Impact = "NEUTRAL"
)

// ReasoningFactor explains one scored dimension of a suggestion
type ReasoningFactor struct {
	Factor  string  `json:"factor"`
	Impact  Impact  `json:"impact"`
	Weight  float64 `json:"weight"`
	Message string  `json:"message"`
}

// BerthSuggestionDTO is one ranked berth option for a vessel call
type BerthSuggestionDTO struct {
	BerthID        int                `json:"berthId"`
	BerthCode      string             `json:"berthCode"`
	BerthName      string             `json:"berthName"`
	TerminalID     int                `json:"terminalId"`
	Score          float64            `json:"score"`
	Confidence     Confidence         `json:"confidence"`
	SlotETA        time.Time          `json:"slotEta"`
	SlotETD        time.Time          `json:"slotEtd"`
	WaitingMinutes int                `json:"waitingMinutes"`
	Breakdown      planning.Breakdown `json:"breakdown"`
	Reasoning      []ReasoningFactor  `json:"reasoning"`
	Warnings       []string           `json:"warnings,omitempty"`
}
