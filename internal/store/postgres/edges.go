package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"campaignwiki/internal/store"
)

func (c *Client) ReplaceEdges(ctx context.Context, fromDocID string, edges []store.Edge) error {
	return pgx.BeginFunc(ctx, c.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM edges WHERE from_doc_id = $1`, fromDocID); err != nil {
			return fmt.Errorf("clearing edges: %w", err)
		}

		batch := &pgx.Batch{}
		for i, edge := range edges {
			batch.Queue(
				`INSERT INTO edges (from_doc_id, to_doc_id, link_text, position) VALUES ($1, $2, $3, $4) ON CONFLICT DO NOTHING`,
				fromDocID, edge.ToDocID, edge.LinkText, i,
			)
		}
		if batch.Len() == 0 {
			return nil
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("inserting edges: %w", err)
		}
		return nil
	})
}

func (c *Client) GetOutgoingEdges(ctx context.Context, id string) ([]store.Edge, error) {
	return c.queryEdges(ctx, `SELECT from_doc_id, to_doc_id, link_text FROM edges WHERE from_doc_id = $1 ORDER BY position`, id)
}

func (c *Client) GetIncomingEdges(ctx context.Context, id string) ([]store.Edge, error) {
	return c.queryEdges(ctx, `SELECT from_doc_id, to_doc_id, link_text FROM edges WHERE to_doc_id = $1 ORDER BY from_doc_id, position`, id)
}

func (c *Client) queryEdges(ctx context.Context, query, id string) ([]store.Edge, error) {
	rows, err := c.pool.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("query edges: %w", err)
	}
	edges, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (store.Edge, error) {
		var e store.Edge
		err := row.Scan(&e.FromDocID, &e.ToDocID, &e.LinkText)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning edges: %w", err)
	}
	if edges == nil {
		edges = []store.Edge{}
	}
	return edges, nil
}
