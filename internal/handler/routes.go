package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/peer-match-api/internal/middleware"
	"github.com/noah-isme/peer-match-api/internal/models"
)

// Router bundles the API handlers mounted under the API prefix.
type Router struct {
	Sessions    *SessionHandler
	Students    *StudentHandler
	Peers       *PeerHandler
	Auth        *AuthHandler
	Tokens      middleware.TokenValidator
	AuthEnabled bool
}

// Register mounts every API route on group.
func (rt Router) Register(group gin.IRouter) {
	authenticate := middleware.Authenticate(rt.Tokens, rt.AuthEnabled)
	adminOnly := middleware.RequireRoles(rt.AuthEnabled, models.RoleAdmin)

	auth := group.Group("/auth")
	auth.POST("/peer-token", rt.Auth.PeerToken)
	auth.GET("/me", middleware.JWT(rt.Tokens), rt.Auth.Me)

	sessions := group.Group("/sessions")
	sessions.GET("", rt.Sessions.List)
	sessions.POST("", rt.Sessions.Create)
	sessions.GET("/score", rt.Sessions.Score)
	sessions.GET("/export", rt.Sessions.Export)
	sessions.POST("/match", rt.Sessions.Match)
	sessions.POST("/match/bulk", authenticate, adminOnly, rt.Sessions.Bulk)
	sessions.PATCH("/:id", authenticate, rt.Sessions.Update)

	students := group.Group("/students")
	students.GET("", rt.Students.List)
	students.POST("", rt.Students.Create)
	students.GET("/:id", rt.Students.Get)
	students.PUT("/:id", rt.Students.Update)
	students.DELETE("/:id", authenticate, adminOnly, rt.Students.Delete)

	peers := group.Group("/peers")
	peers.GET("", rt.Peers.List)
	peers.POST("", rt.Peers.Create)
	peers.GET("/:id", rt.Peers.Get)
	peers.PUT("/:id", authenticate, rt.Peers.Update)
	peers.DELETE("/:id", authenticate, adminOnly, rt.Peers.Delete)
}
