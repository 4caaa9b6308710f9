// Package estimate produces job parameters (hours, materials, itemised
// breakdowns) for a bid, via a generator with validated defaults.
package estimate

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/bid-sniper/internal/llm"
	"github.com/sells-group/bid-sniper/internal/model"
)

// Sanity ceilings for generated estimates and their replacements.
const (
	MaxMaterialsCost         = 50000.0
	ReplacementMaterialsCost = 5000.0
	MaxBaseHours             = 500.0
	ReplacementBaseHours     = 40.0
)

// Used when the generator omits base hours or materials.
const (
	fallbackBaseHours     = 30.0
	fallbackMaterialsCost = 3000.0
)

type jobDefault struct {
	hours     float64
	materials float64
}

var jobDefaults = map[model.JobType]jobDefault{
	model.JobRoofRepair:        {40, 4000},
	model.JobBathroomRemodel:   {80, 6000},
	model.JobElectricalRewire:  {60, 3000},
	model.JobGeneralRenovation: {100, 8000},
	model.JobOther:             {30, 3000},
}

// Default returns the fixed estimate for a job type. Unknown types use the
// "other" defaults.
func Default(job model.JobType) model.JobEstimate {
	d, ok := jobDefaults[job]
	if !ok {
		d = jobDefaults[model.JobOther]
	}
	return model.JobEstimate{
		BaseHours:            d.hours,
		MaterialsCost:        d.materials,
		LabourTasks:          []model.LabourTask{},
		Materials:            []model.MaterialLineItem{},
		ComplexityMultiplier: 1.0,
		UrgencyMultiplier:    1.0,
	}
}

// Estimator asks a generator for job parameters.
type Estimator struct {
	gen llm.Generator
}

// New creates an Estimator. A nil generator always yields the defaults.
func New(gen llm.Generator) *Estimator {
	return &Estimator{gen: gen}
}

// Estimate returns job parameters for req. It never fails: generator or
// parse errors yield the per-job defaults marked as a fallback. Values above
// the sanity ceilings are replaced and the result is marked as a fallback.
func (e *Estimator) Estimate(ctx context.Context, req model.BidRequest, pc *model.PropertyContext) model.Result[model.JobEstimate] {
	if e.gen == nil {
		return model.Degraded(Default(req.JobType), llm.ErrUnavailable)
	}
	if pc == nil {
		pc = model.NewPropertyContext()
	}

	var out estimateJSON
	err := llm.CompleteJSON(ctx, e.gen, llm.Request{
		System:      systemPrompt,
		Prompt:      buildPrompt(req, pc),
		Temperature: llm.Temp(0.2),
		MaxTokens:   2048,
		Operation:   "estimate",
	}, &out)
	if err != nil {
		zap.L().Warn("estimate: generation failed, using job defaults",
			zap.String("job_type", string(req.JobType)),
			zap.Error(err),
		)
		return model.Degraded(Default(req.JobType), eris.Wrap(err, "estimate: generate"))
	}

	est, adjusted := out.validate()
	if len(adjusted) > 0 {
		zap.L().Warn("estimate: unrealistic values replaced",
			zap.String("job_type", string(req.JobType)),
			zap.Strings("fields", adjusted),
		)
		return model.Degraded(est, eris.Errorf("estimate: replaced out-of-range %s", strings.Join(adjusted, ", ")))
	}
	return model.OK(est)
}

type estimateJSON struct {
	LabourTasks          []model.LabourTask       `json:"labour_tasks"`
	Materials            []model.MaterialLineItem `json:"materials"`
	BaseHours            *float64                 `json:"base_hours"`
	MaterialsCost        *float64                 `json:"materials_cost"`
	ComplexityMultiplier *float64                 `json:"complexity_multiplier"`
	UrgencyMultiplier    *float64                 `json:"urgency_multiplier"`
}

// validate fills missing fields and replaces out-of-range values. It
// returns the names of replaced fields.
func (e estimateJSON) validate() (model.JobEstimate, []string) {
	var adjusted []string
	est := model.JobEstimate{
		BaseHours:            valueOr(e.BaseHours, fallbackBaseHours),
		MaterialsCost:        valueOr(e.MaterialsCost, fallbackMaterialsCost),
		ComplexityMultiplier: valueOr(e.ComplexityMultiplier, 1.0),
		UrgencyMultiplier:    valueOr(e.UrgencyMultiplier, 1.0),
		LabourTasks:          make([]model.LabourTask, 0, len(e.LabourTasks)),
		Materials:            make([]model.MaterialLineItem, 0, len(e.Materials)),
	}

	if est.MaterialsCost > MaxMaterialsCost {
		est.MaterialsCost = ReplacementMaterialsCost
		adjusted = append(adjusted, "materials_cost")
	}
	if est.BaseHours > MaxBaseHours {
		est.BaseHours = ReplacementBaseHours
		adjusted = append(adjusted, "base_hours")
	}
	if est.MaterialsCost < 0 {
		est.MaterialsCost = 0
	}
	if est.BaseHours < 0 {
		est.BaseHours = 0
	}

	for _, t := range e.LabourTasks {
		if t.Hours <= 0 {
			continue
		}
		if t.Workers < 1 {
			t.Workers = 1
		}
		est.LabourTasks = append(est.LabourTasks, t)
	}
	for _, m := range e.Materials {
		if m.Quantity < 0 || m.UnitCost < 0 || m.TotalCost < 0 {
			continue
		}
		est.Materials = append(est.Materials, m)
	}
	return est, adjusted
}

func valueOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

const systemPrompt = `You are an expert construction cost estimator specialising in UK repair and renovation work.
You are estimating the cost of a REPAIR JOB from the job description provided. Property values are context only and are never repair costs. Focus on the specific work described.`

const userPromptTemplate = `JOB DETAILS:
Type: %s
Description: %s
Scope of Work: %s
Known Issues: %s
Complications: %s
Urgency: %s

PROPERTY CONTEXT (for reference only):
- Property Type: %s
- Year Built: %s (%s)
- Size: %s sqm
- Bedrooms: %s
- Material Cost Band: %s
- Labour Rate Band: %s

Provide:
1. A labour breakdown, one entry per task with hours, workers and skill level.
2. A materials breakdown with quantity, unit, unit cost and total cost.

Rules:
- Add 20-30%% time for complications such as difficult access or asbestos.
- Urgency affects hours: emergency +30%%, high +15%%, medium 0%%, low -10%%.
- materials_cost above £50,000 or base_hours above 500 is an error.

Output only JSON:
{
  "labour_tasks": [{"task": "Task name", "hours": <float>, "workers": <int>, "skill_level": "<string>"}],
  "materials": [{"item": "Material name", "quantity": <float>, "unit": "<string>", "unit_cost": <float>, "total_cost": <float>}],
  "base_hours": <float>,
  "materials_cost": <float>,
  "complexity_multiplier": <float>,
  "urgency_multiplier": <float>
}`

func buildPrompt(req model.BidRequest, pc *model.PropertyContext) string {
	return fmt.Sprintf(userPromptTemplate,
		orDefault(string(req.JobType), "unknown"),
		orDefault(req.JobDescription, "Not specified"),
		orDefault(req.ScopeOfWork, "Not specified"),
		joinOr(req.KnownIssues, "None specified"),
		joinOr(req.Complications, "None"),
		req.EffectiveUrgency(),
		orDefault(string(pc.PropertyType), "unknown"),
		intOr(pc.YearBuilt), orDefault(pc.ArchitecturalPeriod, "unknown period"),
		floatOr(pc.SizeSqm),
		intOr(pc.Bedrooms),
		pc.MaterialCostBand,
		pc.LabourRateBand,
	)
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func joinOr(items []string, def string) string {
	if len(items) == 0 {
		return def
	}
	return strings.Join(items, ", ")
}

func intOr(v *int) string {
	if v == nil {
		return "unknown"
	}
	return fmt.Sprint(*v)
}

func floatOr(v *float64) string {
	if v == nil {
		return "unknown"
	}
	return fmt.Sprintf("%g", *v)
}
