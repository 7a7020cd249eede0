package ai

import (
	"context"
	"log"

	"lifeos/internal/models"
)

// Orchestrator selects a provider strategy per tier and executes the
// adapter chain with bounded failover. This is a fixed two-tier strategy
// table, not a generic retry policy: exactly zero or one failover attempt
// per call, so a degraded upstream never sees amplified load.
type Orchestrator struct {
	primary   Provider // fast adapter, speed tier first choice
	secondary Provider // higher-context adapter, flash + pro classes

	flashModel string
	proModel   string

	// OnFailover, when set, is called once per speed-tier failover.
	// Used to feed metrics without coupling this package to them.
	OnFailover func()
}

// NewOrchestrator wires the two adapters. The flash model of the secondary
// provider serves as the speed-tier fallback; its pro model serves the
// deep-reasoning tier exclusively.
func NewOrchestrator(primary Provider, secondary Provider, flashModel, proModel string) *Orchestrator {
	return &Orchestrator{
		primary:    primary,
		secondary:  secondary,
		flashModel: flashModel,
		proModel:   proModel,
	}
}

// Execute runs the request against the tier's adapter chain.
//
// Tier speed: primary first; on any provider error, one retry against the
// secondary's flash model with the same request. Tier deep_reason: the
// secondary's pro model only. High-context reasoning values consistency
// over availability, so that tier has no cross-provider failover.
func (o *Orchestrator) Execute(ctx context.Context, tier models.Tier, req models.AIRequest) (*models.AIResponse, error) {
	if tier == models.TierDeepReason {
		req.ModelOverride = o.proModel
		return o.secondary.Generate(ctx, req)
	}

	resp, err := o.primary.Generate(ctx, req)
	if err == nil {
		return resp, nil
	}

	log.Printf("⚠️ [AI] %s failed, failing over to %s (%s): %v", o.primary.Name(), o.secondary.Name(), o.flashModel, err)
	if o.OnFailover != nil {
		o.OnFailover()
	}

	fallbackReq := req
	fallbackReq.ModelOverride = o.flashModel
	return o.secondary.Generate(ctx, fallbackReq)
}
