package model

import "time"

// JobType is the category of construction work being bid.
type JobType string

const (
	JobRoofRepair        JobType = "roof_repair"
	JobBathroomRemodel   JobType = "bathroom_remodel"
	JobElectricalRewire  JobType = "electrical_rewire"
	JobGeneralRenovation JobType = "general_renovation"
	JobOther             JobType = "other"
)

// Valid reports whether the job type is one of the known categories.
func (j JobType) Valid() bool {
	switch j {
	case JobRoofRepair, JobBathroomRemodel, JobElectricalRewire, JobGeneralRenovation, JobOther:
		return true
	default:
		return false
	}
}

// Urgency affects the risk multiplier applied during pricing.
type Urgency string

const (
	UrgencyLow       Urgency = "low"
	UrgencyMedium    Urgency = "medium"
	UrgencyHigh      Urgency = "high"
	UrgencyEmergency Urgency = "emergency"
)

// BidRequest is the input to the bid pipeline.
type BidRequest struct {
	Address        string   `json:"address"`
	Region         string   `json:"region"`
	JobType        JobType  `json:"job_type"`
	JobDescription string   `json:"job_description"`
	ScopeOfWork    string   `json:"scope_of_work,omitempty"`
	KnownIssues    []string `json:"known_issues,omitempty"`
	Complications  []string `json:"complications,omitempty"`
	Urgency        Urgency  `json:"urgency,omitempty"`
	LeadChannel    string   `json:"lead_channel,omitempty"`
	Notes          string   `json:"notes,omitempty"`
	DesiredMargin  float64  `json:"desired_margin_percent"`
}

// EffectiveUrgency returns the request urgency, defaulting to medium.
func (r BidRequest) EffectiveUrgency() Urgency {
	if r.Urgency == "" {
		return UrgencyMedium
	}
	return r.Urgency
}

// FollowUpScripts are the post-visit sales messages.
type FollowUpScripts struct {
	EmailDay2            string `json:"email_d2"`
	EmailDay7            string `json:"email_d7"`
	PriceObjectionScript string `json:"price_objection_script"`
}

// LabourRateSource records where the labour rate used for pricing came from.
type LabourRateSource string

const (
	RateFromCache  LabourRateSource = "cache"
	RateFromSearch LabourRateSource = "search"
	RateFromRegion LabourRateSource = "regional_default"
)

// StageStatus is the outcome of one pipeline stage.
type StageStatus string

const (
	StageComplete StageStatus = "complete"
	StageDegraded StageStatus = "degraded" // fell back to a default
	StageFailed   StageStatus = "failed"
)

// StageOutcome records how a pipeline stage went.
type StageOutcome struct {
	Name       string      `json:"name"`
	Status     StageStatus `json:"status"`
	Detail     string      `json:"detail,omitempty"`
	DurationMs int64       `json:"duration_ms"`
}

// BidRecord is the assembled, persisted result of one pipeline run.
type BidRecord struct {
	ID                 string           `json:"bid_id"`
	CreatedAt          time.Time        `json:"created_at"`
	Request            BidRequest       `json:"request"`
	PropertyContext    *PropertyContext `json:"property_context"`
	Pricing            *PricingOutput   `json:"pricing"`
	Dossier            string           `json:"dossier_text"`
	PricingExplanation string           `json:"pricing_explanation"`
	ProposalDraft      string           `json:"proposal_draft"`
	FollowUp           FollowUpScripts  `json:"followup"`
	RawResearch        []SearchRecord   `json:"raw_research_results"`
	LabourRateSource   LabourRateSource `json:"labour_rate_source"`
	Stages             []StageOutcome   `json:"stages"`
}

// Degraded reports whether any stage fell back to a default.
func (b *BidRecord) Degraded() bool {
	for _, s := range b.Stages {
		if s.Status != StageComplete {
			return true
		}
	}
	return false
}
