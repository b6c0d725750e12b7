package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"campaignwiki/internal/store"
)

func (c *Client) UpsertFolder(ctx context.Context, f store.Folder) error {
	query := `
INSERT INTO folders (id, name, parent_id, workspace_id, sort_index)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET
    name = EXCLUDED.name,
    parent_id = EXCLUDED.parent_id,
    workspace_id = EXCLUDED.workspace_id,
    sort_index = EXCLUDED.sort_index
`
	if _, err := c.pool.Exec(ctx, query, f.ID, f.Name, f.ParentID, f.WorkspaceID, f.SortIndex); err != nil {
		return fmt.Errorf("upserting folder: %w", err)
	}
	return nil
}

func (c *Client) GetFolder(ctx context.Context, id string) (*store.Folder, error) {
	rows, err := c.pool.Query(ctx, `SELECT id, name, parent_id, workspace_id, sort_index FROM folders WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("getting folder: %w", err)
	}
	folder, err := pgx.CollectOneRow(rows, scanFolder)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning folder: %w", err)
	}
	return &folder, nil
}

func (c *Client) GetFoldersByWorkspace(ctx context.Context, workspaceID string) ([]store.Folder, error) {
	rows, err := c.pool.Query(ctx,
		`SELECT id, name, parent_id, workspace_id, sort_index FROM folders WHERE workspace_id = $1 ORDER BY sort_index, name`,
		workspaceID,
	)
	if err != nil {
		return nil, fmt.Errorf("query folders: %w", err)
	}
	folders, err := pgx.CollectRows(rows, scanFolder)
	if err != nil {
		return nil, fmt.Errorf("scanning folders: %w", err)
	}
	if folders == nil {
		folders = []store.Folder{}
	}
	return folders, nil
}

func scanFolder(row pgx.CollectableRow) (store.Folder, error) {
	var f store.Folder
	err := row.Scan(&f.ID, &f.Name, &f.ParentID, &f.WorkspaceID, &f.SortIndex)
	return f, err
}
