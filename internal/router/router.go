package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/meshaid/backend/api/handler"
)

type Handlers struct {
	Auth     *apiHandler.AuthHandler
	Identity *apiHandler.IdentityHandler
	Task     *apiHandler.TaskHandler
	Escrow   *apiHandler.EscrowHandler
	Mesh     *apiHandler.MeshHandler
	Health   *apiHandler.HealthHandler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	// Auth routes
	r.POST("/api/v1/auth/login", handlers.Auth.Login)
	r.POST("/api/v1/auth/refresh", handlers.Auth.Refresh)

	// Identity & trust registry
	r.POST("/api/v1/identity/register", authMiddleware(handlers.Identity.Register))
	r.GET("/api/v1/identity", authMiddleware(handlers.Identity.List))
	r.GET("/api/v1/identity/{address}", handlers.Identity.Get)
	r.GET("/api/v1/identity/{address}/trust", handlers.Identity.TrustLevel)
	r.POST("/api/v1/identity/{address}/verify", authMiddleware(handlers.Identity.Verify))
	r.POST("/api/v1/identity/reputation", authMiddleware(handlers.Identity.UpdateReputation))
	r.POST("/api/v1/identity/roles/grant", authMiddleware(handlers.Identity.GrantRole))
	r.POST("/api/v1/identity/roles/revoke", authMiddleware(handlers.Identity.RevokeRole))

	// Task lifecycle
	r.GET("/api/v1/tasks", handlers.Task.List)
	r.POST("/api/v1/tasks", authMiddleware(handlers.Task.Create))
	r.GET("/api/v1/tasks/{id}", handlers.Task.Get)
	r.GET("/api/v1/tasks/{id}/trust", handlers.Task.TrustInfo)
	r.POST("/api/v1/tasks/{id}/verify", authMiddleware(handlers.Task.Verify))
	r.POST("/api/v1/tasks/{id}/dispute", authMiddleware(handlers.Task.Dispute))
	r.POST("/api/v1/tasks/{id}/accept", authMiddleware(handlers.Task.Accept))
	r.POST("/api/v1/tasks/{id}/complete", authMiddleware(handlers.Task.Complete))
	r.POST("/api/v1/tasks/{id}/cancel", authMiddleware(handlers.Task.Cancel))

	// Donation escrow
	r.POST("/api/v1/escrow/deposit", authMiddleware(handlers.Escrow.Deposit))
	r.GET("/api/v1/escrow/balance/{address}", handlers.Escrow.Balance)
	r.POST("/api/v1/tasks/{id}/donate", authMiddleware(handlers.Escrow.Donate))
	r.POST("/api/v1/tasks/{id}/sign", authMiddleware(handlers.Escrow.SignRelease))
	r.POST("/api/v1/tasks/{id}/location-proof", authMiddleware(handlers.Escrow.SubmitLocationProof))
	r.POST("/api/v1/tasks/{id}/release", authMiddleware(handlers.Escrow.Release))
	r.POST("/api/v1/tasks/{id}/refund", authMiddleware(handlers.Escrow.Refund))
	r.GET("/api/v1/tasks/{id}/pool", handlers.Escrow.PoolStatus)
	r.GET("/api/v1/tasks/{id}/transfers", handlers.Escrow.Transfers)

	// Mesh incentive ledger
	r.POST("/api/v1/mesh/relay", authMiddleware(handlers.Mesh.RecordRelay))
	r.POST("/api/v1/mesh/uptime", authMiddleware(handlers.Mesh.RecordUptime))
	r.POST("/api/v1/mesh/delivery", authMiddleware(handlers.Mesh.RecordDelivery))
	r.POST("/api/v1/mesh/batch", authMiddleware(handlers.Mesh.RecordBatch))
	r.GET("/api/v1/mesh/nodes/{address}", handlers.Mesh.NodeStats)
	r.GET("/api/v1/mesh/supply", handlers.Mesh.Supply)

	return r
}
