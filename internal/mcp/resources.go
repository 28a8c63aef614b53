// ABOUTME: MCP resource implementations for the vitals store.
// ABOUTME: Provides vitals://recent and vitals://summary resources.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/harperreed/vitals/internal/storage"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerResources() {
	// vitals://recent - last 10 recorded observations
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         "vitals://recent",
		Name:        "Recent Observations",
		Description: "Last 10 recorded observations across all subjects",
		MIMEType:    "application/json",
	}, s.handleRecentResource)

	// vitals://summary - latest value per active metric, per subject
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         "vitals://summary",
		Name:        "Vitals Summary Dashboard",
		Description: "Latest value for each active metric, grouped by subject",
		MIMEType:    "application/json",
	}, s.handleSummaryResource)
}

// Resource handlers

func (s *Server) handleRecentResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	data, err := s.repo.GetAllData()
	if err != nil {
		return nil, fmt.Errorf("failed to load data: %w", err)
	}

	observations := data.Observations
	if len(observations) > 10 {
		observations = observations[len(observations)-10:]
	}

	result := map[string]interface{}{
		"observations": observations,
		"count":        len(observations),
	}

	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      "vitals://recent",
			MIMEType: "application/json",
			Text:     string(payload),
		}},
	}, nil
}

func (s *Server) handleSummaryResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	subjects, err := s.repo.ListSubjects(storage.Page{})
	if err != nil {
		return nil, fmt.Errorf("failed to list subjects: %w", err)
	}

	metrics, err := s.repo.ListSelectableMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to list metrics: %w", err)
	}

	bySubject := make(map[string]interface{})
	for _, subject := range subjects {
		latest := make(map[string]interface{})
		for _, m := range metrics {
			o, err := s.repo.LatestObservation(subject.ID, m.ID)
			if err != nil {
				continue
			}
			latest[m.Code] = map[string]interface{}{
				"value":       o.Value.String(),
				"unit":        m.Unit,
				"observed_at": o.ObservedAt.Format(time.RFC3339),
			}
		}
		bySubject[fmt.Sprintf("subject_%d", subject.ID)] = latest
	}

	result := map[string]interface{}{
		"generated_at": time.Now().Format(time.RFC3339),
		"subjects":     bySubject,
		"summary": map[string]int{
			"subject_count":       len(subjects),
			"active_metric_count": len(metrics),
		},
	}

	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      "vitals://summary",
			MIMEType: "application/json",
			Text:     string(payload),
		}},
	}, nil
}
