// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	actionsfeature "github.com/dalemusser/quorum/internal/app/features/actions"
	decisionsfeature "github.com/dalemusser/quorum/internal/app/features/decisions"
	healthfeature "github.com/dalemusser/quorum/internal/app/features/health"
	invitesfeature "github.com/dalemusser/quorum/internal/app/features/invites"
	meetingsfeature "github.com/dalemusser/quorum/internal/app/features/meetings"
	membersfeature "github.com/dalemusser/quorum/internal/app/features/members"
	onboardingfeature "github.com/dalemusser/quorum/internal/app/features/onboarding"
	workspacesfeature "github.com/dalemusser/quorum/internal/app/features/workspaces"
	"github.com/dalemusser/quorum/internal/app/policy/memberpolicy"
	actionstore "github.com/dalemusser/quorum/internal/app/store/actions"
	auditstore "github.com/dalemusser/quorum/internal/app/store/audit"
	decisionstore "github.com/dalemusser/quorum/internal/app/store/decisions"
	invitestore "github.com/dalemusser/quorum/internal/app/store/invites"
	meetingstore "github.com/dalemusser/quorum/internal/app/store/meetings"
	membershipstore "github.com/dalemusser/quorum/internal/app/store/memberships"
	profilestore "github.com/dalemusser/quorum/internal/app/store/profiles"
	slugstore "github.com/dalemusser/quorum/internal/app/store/slugs"
	workspacestore "github.com/dalemusser/quorum/internal/app/store/workspaces"
	"github.com/dalemusser/quorum/internal/app/system/auditlog"
	"github.com/dalemusser/quorum/internal/app/system/auth"
	"github.com/dalemusser/quorum/internal/app/system/guard"
	invitesvc "github.com/dalemusser/quorum/internal/app/system/invites"
	"github.com/dalemusser/quorum/internal/app/system/mailer"
	"github.com/dalemusser/quorum/internal/app/system/provision"
	"github.com/dalemusser/quorum/internal/app/system/ratelimit"
	"github.com/dalemusser/quorum/internal/app/system/workspace"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. At this point you have access to:
//   - coreCfg: WAFFLE core configuration (ports, env, timeouts, etc.)
//   - appCfg: app-specific configuration defined in AppConfig
//   - deps: any DB or backend clients bundled in DBDeps
//   - logger: the fully configured zap.Logger for this app
//
// Quorum wires the consistency plane (slug registry, provisioning, invite
// lifecycle, membership policy) and the guardrail plane (actor resolution,
// rate limiting, audit) once here, then hands the pieces to feature routers.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Create the session manager using app config.
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	db := deps.MongoDatabase
	client := deps.MongoClient

	// Stores.
	slugs := slugstore.New(db)
	workspaces := workspacestore.New(db)
	memberships := membershipstore.New(db)
	profiles := profilestore.New(db)
	invites := invitestore.New(db)
	meetings := meetingstore.New(db)
	decisions := decisionstore.New(db)
	actions := actionstore.New(db)
	audits := auditstore.New(db)

	// Guardrail plane: one limiter, one audit logger, one wrapper shared
	// by every guarded route.
	limiter := ratelimit.New(client, db, logger)
	auditLogger := auditlog.New(audits, logger)
	guards := guard.New(sessionMgr, limiter, auditLogger, logger)

	// Consistency plane.
	resolver := workspace.NewResolver(slugs, workspaces, memberships, logger)
	provisioner := provision.New(client, slugs, workspaces, memberships, profiles, logger)
	inviteSvc := invitesvc.New(client, invites, memberships, profiles, logger)
	memberGuard := memberpolicy.NewGuard(client, memberships, profiles, logger)

	// Outbound email; disabled when no SMTP host is configured.
	mail := mailer.New(appCfg.MailSMTPHost, appCfg.MailSMTPPort, appCfg.MailSMTPUser,
		appCfg.MailSMTPPass, appCfg.MailFrom, appCfg.MailFromName, logger)

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if logged in.
	// This makes the current user available to all handlers via auth.CurrentUser(r).
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(client, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Onboarding: workspace provisioning and status
	onboardingHandler := onboardingfeature.NewHandler(provisioner, profiles, logger)
	r.Mount("/onboarding", onboardingfeature.Routes(onboardingHandler, sessionMgr, guards))

	// Workspace-scoped features, nested under /workspaces/{slug}
	membersHandler := membersfeature.NewHandler(resolver, memberGuard, memberships, profiles, logger)
	invitesHandler := invitesfeature.NewHandler(resolver, inviteSvc, mail, appCfg.BaseURL, logger)
	meetingsHandler := meetingsfeature.NewHandler(resolver, meetings, logger)
	decisionsHandler := decisionsfeature.NewHandler(resolver, decisions, meetings, logger)
	actionsHandler := actionsfeature.NewHandler(resolver, actions, memberships, logger)

	workspacesHandler := workspacesfeature.NewHandler(resolver, provisioner, workspaces, memberships, logger)
	r.Mount("/workspaces", workspacesfeature.Routes(workspacesHandler, sessionMgr, guards, workspacesfeature.Subroutes{
		Members:   membersfeature.Routes(membersHandler, guards),
		Invites:   invitesfeature.WorkspaceRoutes(invitesHandler, guards),
		Meetings:  meetingsfeature.Routes(meetingsHandler, guards),
		Decisions: decisionsfeature.Routes(decisionsHandler, guards),
		Actions:   actionsfeature.Routes(actionsHandler, guards),
	}))

	// Public invite endpoints: token lookup plus signed-in accept/reject
	r.Mount("/invites", invitesfeature.PublicRoutes(invitesHandler, sessionMgr, guards))

	return r, nil
}
