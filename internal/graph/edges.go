package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"campaignwiki/internal/store"
)

// ReplaceEdges drops links to documents that have not been written yet.
func (c *Client) ReplaceEdges(ctx context.Context, fromDocID string, edges []store.Edge) error {
	rows := make([]map[string]any, len(edges))
	for i, edge := range edges {
		rows[i] = map[string]any{
			"to":       edge.ToDocID,
			"text":     edge.LinkText,
			"position": int64(i),
		}
	}

	drop := statement{
		query:  `MATCH (:Document {id: $from})-[r:LINKS_TO]->() DELETE r`,
		params: map[string]any{"from": fromDocID},
	}
	create := statement{
		query: `
MATCH (from:Document {id: $from})
UNWIND $edges AS e
MATCH (to:Document {id: e.to})
MERGE (from)-[r:LINKS_TO {link_text: e.text}]->(to)
SET r.position = e.position
`,
		params: map[string]any{"from": fromDocID, "edges": rows},
	}

	if err := c.write(ctx, drop, create); err != nil {
		return fmt.Errorf("replacing edges: %w", err)
	}
	return nil
}

func (c *Client) GetOutgoingEdges(ctx context.Context, id string) ([]store.Edge, error) {
	edges, err := c.queryEdges(ctx, `
MATCH (from:Document {id: $id})-[r:LINKS_TO]->(to:Document)
RETURN from.id AS from, to.id AS to, r.link_text AS text
ORDER BY r.position`, id)
	if err != nil {
		return nil, fmt.Errorf("getting outgoing edges: %w", err)
	}
	return edges, nil
}

func (c *Client) GetIncomingEdges(ctx context.Context, id string) ([]store.Edge, error) {
	edges, err := c.queryEdges(ctx, `
MATCH (from:Document)-[r:LINKS_TO]->(to:Document {id: $id})
RETURN from.id AS from, to.id AS to, r.link_text AS text
ORDER BY from.id, r.position`, id)
	if err != nil {
		return nil, fmt.Errorf("getting incoming edges: %w", err)
	}
	return edges, nil
}

func (c *Client) queryEdges(ctx context.Context, query, id string) ([]store.Edge, error) {
	edges := []store.Edge{}
	err := c.read(ctx, query, map[string]any{"id": id}, func(record *neo4j.Record) error {
		from, _ := record.Get("from")
		to, _ := record.Get("to")
		text, _ := record.Get("text")
		edges = append(edges, store.Edge{FromDocID: toString(from), ToDocID: toString(to), LinkText: toString(text)})
		return nil
	})
	return edges, err
}
