package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/scivar-kg/backend/pkg/kg"
	"github.com/scivar-kg/backend/pkg/logger"
)

// BuildConceptMsg is the build-job payload published by the API server.
type BuildConceptMsg struct {
	Message       string `json:"message"`
	CorrelationID string `json:"correlation_id"`
	Term          string `json:"term"`
	Depth         int    `json:"depth"`
}

// BuildProcessor consumes build jobs: expand the concept into the graph,
// run inference, persist. The worker owns exactly one processor; jobs are
// handled one at a time.
type BuildProcessor struct {
	Store    *kg.Store
	Entities *kg.EntityIndex
	Builder  *kg.Builder

	GraphPath   string
	SynonymPath string
	IndexPath   string
}

// ProcessBuildMessage runs one build job. A malformed payload is a permanent
// failure; build and persistence errors are returned for retry.
func (p *BuildProcessor) ProcessBuildMessage(ctx context.Context, body string) error {
	var msg BuildConceptMsg
	if err := json.Unmarshal([]byte(body), &msg); err != nil {
		return fmt.Errorf("failed to unmarshal build message: %w", err)
	}
	if msg.Term == "" {
		return fmt.Errorf("build message %q has no term", msg.CorrelationID)
	}

	logger.Info("Building concept", "term", msg.Term, "depth", msg.Depth, "correlation_id", msg.CorrelationID)

	if err := p.Builder.AddConcept(ctx, msg.Term, msg.Depth); err != nil {
		return fmt.Errorf("failed to build concept %q: %w", msg.Term, err)
	}

	kg.Infer(p.Store, p.Entities)

	if err := p.Store.SaveGraph(p.GraphPath); err != nil {
		return fmt.Errorf("failed to save graph: %w", err)
	}
	if err := p.Store.SaveSynonyms(p.SynonymPath); err != nil {
		return fmt.Errorf("failed to save synonym index: %w", err)
	}
	if err := p.Entities.Save(p.IndexPath); err != nil {
		return fmt.Errorf("failed to save entity index: %w", err)
	}

	logger.Info("Concept built", "term", msg.Term, "nodes", p.Store.Len(), "correlation_id", msg.CorrelationID)
	return nil
}
