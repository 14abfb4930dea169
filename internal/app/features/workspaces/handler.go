// internal/app/features/workspaces/handler.go

// Package workspaces serves workspace listing, resolution, and rename.
package workspaces

import (
	membershipstore "github.com/dalemusser/quorum/internal/app/store/memberships"
	workspacestore "github.com/dalemusser/quorum/internal/app/store/workspaces"
	"github.com/dalemusser/quorum/internal/app/system/provision"
	"github.com/dalemusser/quorum/internal/app/system/workspace"
	"go.uber.org/zap"
)

// Handler provides workspace HTTP handlers.
type Handler struct {
	Resolver    *workspace.Resolver
	Provisioner *provision.Provisioner
	Workspaces  *workspacestore.Store
	Memberships *membershipstore.Store
	Log         *zap.Logger
}

// NewHandler creates a workspaces Handler.
func NewHandler(resolver *workspace.Resolver, p *provision.Provisioner, workspaces *workspacestore.Store, memberships *membershipstore.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Resolver:    resolver,
		Provisioner: p,
		Workspaces:  workspaces,
		Memberships: memberships,
		Log:         logger,
	}
}
