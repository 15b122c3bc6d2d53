package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"notisub/internal/api"
)

type Router struct {
	Engine *gin.Engine
}

func NewRouter(
	subscriptionHandler *api.SubscriptionHandler,
	typesHandler *api.TypesHandler,
	eventHandler *api.EventHandler,
	feedHandler *api.FeedHandler,
	adminHandler *api.AdminHandler,
) *Router {
	r := gin.Default()

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/readyz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/notification-types", typesHandler.List)
	r.POST("/events", eventHandler.Fire)

	users := r.Group("/users/:user_id")
	{
		users.PUT("/subscriptions", subscriptionHandler.Subscribe)
		users.GET("/subscriptions", subscriptionHandler.List)
		users.DELETE("/subscriptions", subscriptionHandler.UnsubscribeFromAll)
		users.GET("/subscriptions/:type", subscriptionHandler.ListByType)
		users.DELETE("/subscriptions/:type", subscriptionHandler.UnsubscribeFromType)
		users.GET("/subscribed-channels/:type", subscriptionHandler.Channels)
		users.GET("/subscriptions/:type/:channel", subscriptionHandler.Details)
		users.DELETE("/subscriptions/:type/:channel", subscriptionHandler.Unsubscribe)

		users.GET("/notifications", feedHandler.List)
	}

	r.POST("/notifications/:id/read", feedHandler.MarkRead)
	r.POST("/admin/outbox/:id/replay", adminHandler.ReplayOutboxEvent)

	return &Router{Engine: r}
}

func (r *Router) Run(port string) error {
	return r.Engine.Run(port)
}
