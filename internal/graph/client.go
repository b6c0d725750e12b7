// Package graph stores the document graph in Neo4j. Documents and folders
// are nodes; wiki links are LINKS_TO relationships.
package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"campaignwiki/internal/store"
)

var (
	_ store.Store    = (*Client)(nil)
	_ store.Searcher = (*Client)(nil)
)

type Client struct {
	driver   neo4j.DriverWithContext
	database string
}

func NewClient(ctx context.Context, uri, username, password, database string) (*Client, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("creating neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verifying neo4j connectivity: %w", err)
	}

	return &Client{driver: driver, database: database}, nil
}

func (c *Client) Close(ctx context.Context) error {
	if c == nil || c.driver == nil {
		return nil
	}
	return c.driver.Close(ctx)
}

func (c *Client) EnsureSchema(ctx context.Context) error {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.database})
	defer session.Close(ctx)

	statements := []string{
		`CREATE CONSTRAINT document_id IF NOT EXISTS FOR (d:Document) REQUIRE d.id IS UNIQUE`,
		`CREATE CONSTRAINT folder_id IF NOT EXISTS FOR (f:Folder) REQUIRE f.id IS UNIQUE`,
		`CREATE FULLTEXT INDEX document_fulltext IF NOT EXISTS FOR (d:Document) ON EACH [d.title, d.body]`,
		`CREATE INDEX document_workspace IF NOT EXISTS FOR (d:Document) ON (d.workspace_id)`,
		`CREATE INDEX document_source_file IF NOT EXISTS FOR (d:Document) ON (d.source_file)`,
		`CREATE INDEX folder_workspace IF NOT EXISTS FOR (f:Folder) ON (f.workspace_id)`,
	}

	for _, stmt := range statements {
		if _, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			_, err := tx.Run(ctx, stmt, nil)
			return nil, err
		}); err != nil {
			return fmt.Errorf("ensuring indexes: %w", err)
		}
	}

	return nil
}

// write runs each statement in order inside one managed write transaction.
func (c *Client) write(ctx context.Context, statements ...statement) error {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.database})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, stmt := range statements {
			if _, err := tx.Run(ctx, stmt.query, stmt.params); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}

// read calls fn for every record returned by query.
func (c *Client) read(ctx context.Context, query string, params map[string]any, fn func(*neo4j.Record) error) error {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.database})
	defer session.Close(ctx)

	_, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		for res.Next(ctx) {
			if err := fn(res.Record()); err != nil {
				return nil, err
			}
		}
		return nil, res.Err()
	})
	return err
}

type statement struct {
	query  string
	params map[string]any
}
