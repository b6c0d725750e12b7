// Package mcp exposes the prep generators to AI collaborators as MCP tools.
package mcp

import (
	"context"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"campaignwiki/internal/campaign"
)

type Server struct {
	svc *campaign.Service
	mcp *sdk.Server
}

func NewServer(svc *campaign.Service, version string) *Server {
	s := &Server{
		svc: svc,
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "campaignwiki",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}
