package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/titipin/backend/api/handler"
)

type Handlers struct {
	Session      *apiHandler.SessionHandler
	Order        *apiHandler.OrderHandler
	Payment      *apiHandler.PaymentHandler
	Disbursement *apiHandler.DisbursementHandler
	Stream       *apiHandler.StreamHandler
	Health       *apiHandler.HealthHandler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	// Gateway webhooks; authenticated by signature, not by JWT.
	r.POST("/api/v1/payments/notify", handlers.Payment.Notify)
	r.POST("/api/v1/disbursements/notify", handlers.Disbursement.Notify)

	// Protected routes
	r.POST("/api/v1/sessions", authMiddleware(handlers.Session.Create))
	r.GET("/api/v1/sessions", authMiddleware(handlers.Session.List))
	r.GET("/api/v1/sessions/{id}", authMiddleware(handlers.Session.Get))
	r.POST("/api/v1/sessions/{id}/revision", authMiddleware(handlers.Session.ToggleRevision))
	r.POST("/api/v1/sessions/{id}/finish", authMiddleware(handlers.Session.Finish))
	r.GET("/api/v1/sessions/{id}/events", authMiddleware(handlers.Session.Events))
	r.GET("/api/v1/sessions/{id}/stream", authMiddleware(handlers.Stream.Subscribe))

	r.POST("/api/v1/sessions/{id}/orders", authMiddleware(handlers.Order.Create))
	r.PATCH("/api/v1/sessions/{id}/orders/{orderID}", authMiddleware(handlers.Order.UpdateStatus))

	r.POST("/api/v1/sessions/{id}/payments", authMiddleware(handlers.Payment.RequestToken))
	r.POST("/api/v1/sessions/{id}/disbursements", authMiddleware(handlers.Disbursement.Request))

	return r
}
