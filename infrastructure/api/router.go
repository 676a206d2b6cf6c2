package api

import (
	"converse/contract"

	"github.com/gin-gonic/gin"
)

// NewRouter wires all routes. Account endpoints are public; everything
// else, the websocket upgrade included, sits behind the bearer-token
// middleware.
func NewRouter(handlers *Handlers, resolver contract.IdentityResolver) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	accounts := router.Group("/accounts")
	{
		accounts.POST("/register", handlers.Register)
		accounts.POST("/login", handlers.Login)
	}

	authorized := router.Group("/", RequireAuth(resolver))
	{
		authorized.POST("/messages/direct", handlers.StartDirect)
		authorized.POST("/messages/group", handlers.CreateGroup)
		authorized.GET("/messages/list", handlers.List)
		authorized.GET("/messages/:id/chats", handlers.History)
		authorized.GET("/messages/:id/search", handlers.Search)
		authorized.GET("/ws/:id", handlers.ServeWS)
	}

	router.GET("/debug/stats", handlers.Stats)

	return router
}
