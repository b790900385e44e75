package models

import "time"

// ParoleEligibilityThreshold is the point total at which an inmate becomes
// eligible for parole.
const ParoleEligibilityThreshold = 75

type BehaviorType string

const (
	BehaviorPositive BehaviorType = "positive"
	BehaviorNegative BehaviorType = "negative"
)

type BehaviorLog struct {
	Type        BehaviorType `json:"type"`
	Description string       `json:"description"`
	Points      int          `json:"points"`
	Date        time.Time    `json:"date"`
	RecordedBy  string       `json:"recordedBy,omitempty"`
}

// ParoleRecord tracks behaviour points for one inmate. It is not archived
// on delete.
type ParoleRecord struct {
	Base
	InmateID       string        `json:"inmateId"`
	InmateName     string        `json:"inmateName,omitempty"`
	BehaviorLogs   []BehaviorLog `json:"behaviorLogs"`
	TotalPoints    int           `json:"totalPoints"`
	ParoleEligible bool          `json:"paroleEligible"`
	Status         string        `json:"status,omitempty"`
}

func (ParoleRecord) Kind() Kind { return KindParoleRecord }

// Recompute derives TotalPoints and ParoleEligible from the logs.
func (p *ParoleRecord) Recompute() {
	total := 0
	for _, l := range p.BehaviorLogs {
		if l.Type == BehaviorNegative {
			total -= l.Points
		} else {
			total += l.Points
		}
	}
	p.TotalPoints = total
	p.ParoleEligible = total >= ParoleEligibilityThreshold
}
