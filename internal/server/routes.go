package server

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	v1 "github.com/tessera-labs/tessera/internal/api/v1"
	"github.com/tessera-labs/tessera/internal/api/ws"
	"github.com/tessera-labs/tessera/internal/auth"
	"github.com/tessera-labs/tessera/internal/nav"
	"github.com/tessera-labs/tessera/internal/server/middleware"
	"github.com/tessera-labs/tessera/internal/store/postgres"
)

func registerAuthRoutes(api huma.API, authSvc *auth.Service) {
	v1.RegisterAuthRoutes(api, authSvc)
}

func registerAPIRoutes(api huma.API, store *postgres.Store, hub *ws.Hub, sessions *nav.Manager) {
	v1.RegisterLogoutRoute(api, sessions)
	v1.RegisterTenantRoutes(api, store)
	v1.RegisterMembershipRoutes(api, store)
	v1.RegisterMenuRoutes(api, store, hub)
	v1.RegisterNavigationRoutes(api, store, sessions)
}

func registerAdminRoutes(api huma.API, store *postgres.Store) {
	v1.RegisterAdminRoutes(api, store)
}

func registerSuperAdminRoutes(api huma.API, store *postgres.Store) {
	v1.RegisterSuperAdminRoutes(api, store)
}

func registerWSRoutes(r chi.Router, hub *ws.Hub) {
	r.Get("/tenant", hub.ServeTenantSwitch)
	r.With(middleware.RequireTenant()).Get("/menus", hub.ServeMenuChanges)
}
