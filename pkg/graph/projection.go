package graph

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// EdgeType is a relationship between a lost and a found report
type EdgeType string

const (
	EdgeCandidate EdgeType = "CANDIDATE"
	EdgeMatched   EdgeType = "MATCHED"
)

// writer is the subset of Client the projection needs
type writer interface {
	ExecuteWrite(ctx context.Context, work func(tx neo4j.ManagedTransaction) (any, error)) (any, error)
	ExecuteRead(ctx context.Context, work func(tx neo4j.ManagedTransaction) (any, error)) (any, error)
}

// MatchProjection mirrors matches as (:Report)-[:CANDIDATE|MATCHED]->(:Report)
type MatchProjection struct {
	client writer
	logger ectologger.Logger
}

func NewMatchProjection(client *Client, logger ectologger.Logger) *MatchProjection {
	return &MatchProjection{client: client, logger: logger}
}

// edgeCypher is closed over EdgeType so labels are never taken from input
func edgeCypher(edge EdgeType) string {
	return fmt.Sprintf(`
		MERGE (lost:Report {id: $lost_id})
		MERGE (found:Report {id: $found_id})
		MERGE (lost)-[r:%s {match_id: $match_id}]->(found)
		SET r.final_score = $final_score, r.status = $status
		RETURN r
	`, edge)
}

// RecordCandidate adds a CANDIDATE edge for a saved match
func (p *MatchProjection) RecordCandidate(ctx context.Context, match *models.Match) error {
	ctx, span := tracing.StartSpan(ctx, "graph.MatchProjection.RecordCandidate")
	defer span.End()

	return p.writeEdge(ctx, EdgeCandidate, match)
}

// RecordConfirmed adds a MATCHED edge for a confirmed match
func (p *MatchProjection) RecordConfirmed(ctx context.Context, match *models.Match) error {
	ctx, span := tracing.StartSpan(ctx, "graph.MatchProjection.RecordConfirmed")
	defer span.End()

	return p.writeEdge(ctx, EdgeMatched, match)
}

func (p *MatchProjection) writeEdge(ctx context.Context, edge EdgeType, match *models.Match) error {
	_, err := p.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, edgeCypher(edge), map[string]any{
			"lost_id":     match.LostReportID,
			"found_id":    match.FoundReportID,
			"match_id":    match.ID,
			"final_score": match.FinalScore,
			"status":      string(match.Status),
		})
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})
	if err != nil {
		p.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"match_id": match.ID,
			"edge":     string(edge),
		}).Error("Failed to project match into graph")
		return err
	}
	return nil
}

const relatedCypher = `
	MATCH (r:Report {id: $id})-[:CANDIDATE|MATCHED]-(other:Report)
	RETURN DISTINCT other.id AS id
	ORDER BY id
`

// Related returns the ids of reports linked to reportID by any match edge
func (p *MatchProjection) Related(ctx context.Context, reportID string) ([]string, error) {
	ctx, span := tracing.StartSpan(ctx, "graph.MatchProjection.Related")
	defer span.End()

	res, err := p.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, relatedCypher, map[string]any{"id": reportID})
		if err != nil {
			return nil, err
		}

		ids := []string{}
		for result.Next(ctx) {
			value, ok := result.Record().Get("id")
			if !ok {
				continue
			}
			if id, ok := value.(string); ok {
				ids = append(ids, id)
			}
		}
		return ids, result.Err()
	})
	if err != nil {
		p.logger.WithContext(ctx).WithError(err).WithField("report_id", reportID).Error("Failed to query related reports")
		return nil, err
	}
	return res.([]string), nil
}
