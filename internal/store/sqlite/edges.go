package sqlite

import (
	"context"
	"fmt"

	"campaignwiki/internal/store"
)

func (c *Client) ReplaceEdges(ctx context.Context, fromDocID string, edges []store.Edge) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM edges WHERE from_doc_id = ?`, fromDocID); err != nil {
		return fmt.Errorf("clearing edges: %w", err)
	}
	for i, edge := range edges {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO edges (from_doc_id, to_doc_id, link_text, position) VALUES (?, ?, ?, ?) ON CONFLICT DO NOTHING`,
			fromDocID, edge.ToDocID, edge.LinkText, i,
		)
		if err != nil {
			return fmt.Errorf("inserting edge: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing edges: %w", err)
	}
	return nil
}

func (c *Client) GetOutgoingEdges(ctx context.Context, id string) ([]store.Edge, error) {
	return c.queryEdges(ctx, `SELECT from_doc_id, to_doc_id, link_text FROM edges WHERE from_doc_id = ? ORDER BY position`, id)
}

func (c *Client) GetIncomingEdges(ctx context.Context, id string) ([]store.Edge, error) {
	return c.queryEdges(ctx, `SELECT from_doc_id, to_doc_id, link_text FROM edges WHERE to_doc_id = ? ORDER BY from_doc_id, position`, id)
}

func (c *Client) queryEdges(ctx context.Context, query string, id string) ([]store.Edge, error) {
	rows, err := c.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("query edges: %w", err)
	}
	defer rows.Close()

	edges := []store.Edge{}
	for rows.Next() {
		var edge store.Edge
		if err := rows.Scan(&edge.FromDocID, &edge.ToDocID, &edge.LinkText); err != nil {
			return nil, fmt.Errorf("scanning edge: %w", err)
		}
		edges = append(edges, edge)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating edges: %w", err)
	}
	return edges, nil
}
