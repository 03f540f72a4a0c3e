// Package rest exposes the use cases over HTTP with gin.
package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/simaogato/fraxion-backend/internal/usecase/asset"
	"github.com/simaogato/fraxion-backend/internal/usecase/health"
	"github.com/simaogato/fraxion-backend/internal/usecase/offer"
	"github.com/simaogato/fraxion-backend/internal/usecase/portfolio"
	"github.com/simaogato/fraxion-backend/internal/usecase/trading"
	"github.com/simaogato/fraxion-backend/internal/usecase/transaction"
	"github.com/simaogato/fraxion-backend/internal/usecase/user"
)

// EventStream upgrades a request into a live event subscription
type EventStream interface {
	ServeWS(w http.ResponseWriter, r *http.Request)
}

// Handler holds the use cases served by the router
type Handler struct {
	Offers       *offer.OfferService
	Trading      *trading.TradingService
	Assets       *asset.AssetService
	Portfolio    *portfolio.PortfolioService
	Users        *user.UserService
	Transactions *transaction.TransactionService
	Health       *health.HealthService
	Events       EventStream
	Logger       *zap.Logger
}

// NewRouter wires every route. Routes under /api/v1 require the bearer token.
func NewRouter(h *Handler, apiToken string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(h.Logger))

	router.GET("/health", h.basicHealth)
	router.GET("/health/db", h.databaseHealth)
	if h.Events != nil {
		router.GET("/ws/events", func(c *gin.Context) {
			h.Events.ServeWS(c.Writer, c.Request)
		})
	}

	api := router.Group("/api/v1", BearerAuth(apiToken))
	{
		api.POST("/offers", h.createOffer)
		api.GET("/offers", h.listOffers)
		api.GET("/offers/filter", h.filterOffers)
		api.GET("/offers/statistics", h.priceStatistics)
		api.GET("/offers/:id", h.getOffer)
		api.PATCH("/offers/:id", h.updateOffer)
		api.DELETE("/offers/:id", h.deleteOffer)

		api.POST("/trades", h.executeTrade)

		api.POST("/assets/with-initial-fraction", h.createAsset)
		api.GET("/assets", h.listAssets)
		api.GET("/assets/:id", h.getAsset)
		api.GET("/assets/:id/fractions", h.listAssetFractions)
		api.GET("/assets/:id/values", h.listValues)
		api.GET("/assets/:id/values/latest", h.latestValue)
		api.POST("/assets/:id/values/adjust", h.adjustValue)
		api.GET("/assets/:id/offers", h.assetOffers)
		api.GET("/assets/:id/offers/buy", h.buyOffers)
		api.GET("/assets/:id/offers/sell", h.sellOffers)
		api.GET("/assets/:id/orderbook", h.orderBook)
		api.GET("/assets/:id/transactions", h.assetTransactions)

		api.GET("/fractions/:id", h.getFraction)
		api.GET("/fractions/:id/transactions", h.fractionTransactions)

		api.GET("/transactions/:id", h.getTransaction)

		api.POST("/users", h.createUser)
		api.GET("/users", h.listUsers)
		api.GET("/users/managers", h.listManagers)
		api.GET("/users/:id", h.getUser)
		api.PATCH("/users/:id", h.updateUser)
		api.DELETE("/users/:id", h.deleteUser)
		api.GET("/users/:id/offers", h.userOffers)
		api.GET("/users/:id/fractions", h.userFractions)
		api.GET("/users/:id/transactions", h.userTransactions)

		api.GET("/portfolio/:user_id/holdings", h.holdings)
		api.GET("/portfolio/:user_id/transactions", h.transactions)
	}

	return router
}

func (h *Handler) basicHealth(c *gin.Context) {
	c.JSON(http.StatusOK, h.Health.Basic())
}

func (h *Handler) databaseHealth(c *gin.Context) {
	report := h.Health.Database(c.Request.Context())
	if !report.Healthy() {
		c.JSON(http.StatusServiceUnavailable, report)
		return
	}
	c.JSON(http.StatusOK, report)
}
