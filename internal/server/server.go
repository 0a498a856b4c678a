package server

import (
	"errors"
	"net/http"
	"path"
	"path/filepath"
	"urban-threads-api/internal/apperr"
	"urban-threads-api/internal/config"
	"urban-threads-api/internal/dto"
	"urban-threads-api/internal/handler"
	"urban-threads-api/internal/middleware"
	"urban-threads-api/internal/realtime"
	"urban-threads-api/internal/repository"
	"urban-threads-api/internal/service"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

type Server struct {
	echo                *echo.Echo
	cfg                 *config.Config
	hub                 *realtime.Hub
	orderHandler        *handler.OrderHandler
	productHandler      *handler.ProductHandler
	refundHandler       *handler.RefundHandler
	notificationHandler *handler.NotificationHandler
	wishlistHandler     *handler.WishlistHandler
	chatHandler         *handler.ChatHandler
}

func NewServer(
	cfg *config.Config,
	log *logrus.Logger,
	hub *realtime.Hub,
	orderService service.OrderService,
	pricingService service.PricingService,
	refundService service.RefundService,
	notificationService service.NotificationService,
	wishlistService service.WishlistService,
	chatService service.ChatService,
	productRepo repository.ProductRepository,
) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.RequestLogger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())

	e.HTTPErrorHandler = errorHandler(log)

	s := &Server{
		echo:                e,
		cfg:                 cfg,
		hub:                 hub,
		orderHandler:        handler.NewOrderHandler(orderService),
		productHandler:      handler.NewProductHandler(pricingService, productRepo),
		refundHandler:       handler.NewRefundHandler(refundService),
		notificationHandler: handler.NewNotificationHandler(notificationService),
		wishlistHandler:     handler.NewWishlistHandler(wishlistService),
		chatHandler:         handler.NewChatHandler(chatService, cfg.Upload),
	}

	s.setupRoutes()
	return s
}

// errorHandler translates the domain error taxonomy into status codes and
// the JSON envelope; anything unrecognized is logged and masked as a 500.
func errorHandler(log *logrus.Logger) echo.HTTPErrorHandler {
	statusFor := map[apperr.Kind]int{
		apperr.Validation:   http.StatusBadRequest,
		apperr.Unauthorized: http.StatusUnauthorized,
		apperr.Forbidden:    http.StatusForbidden,
		apperr.NotFound:     http.StatusNotFound,
		apperr.Conflict:     http.StatusConflict,
	}

	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			status, ok := statusFor[appErr.Kind]
			if !ok {
				status = http.StatusInternalServerError
			}
			_ = c.JSON(status, dto.Response{Success: false, Error: appErr.Message})
			return
		}

		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			message, _ := httpErr.Message.(string)
			if message == "" {
				message = http.StatusText(httpErr.Code)
			}
			_ = c.JSON(httpErr.Code, dto.Response{Success: false, Error: message})
			return
		}

		log.WithError(err).WithField("path", c.Path()).Error("unhandled error")
		_ = c.JSON(http.StatusInternalServerError, dto.Response{Success: false, Error: "Server error"})
	}
}

func (s *Server) setupRoutes() {
	secret := s.cfg.JWT.Secret

	auth := middleware.Auth(secret)
	optionalAuth := middleware.OptionalAuth(secret)
	salesManager := middleware.RequireRole(middleware.RoleSalesManager)
	productManager := middleware.RequireRole(middleware.RoleProductManager, middleware.RoleSalesManager)

	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// -------- products / pricing --------
	products := api.Group("/products")
	products.GET("", s.productHandler.List)
	products.GET("/:id", s.productHandler.Get)
	products.PUT("/:id/price", s.productHandler.UpdatePrice, auth, salesManager)
	products.PUT("/:id/discount", s.productHandler.ApplyDiscount, auth, salesManager)
	products.PATCH("/:id/stock", s.productHandler.UpdateStock, auth, productManager)

	// -------- orders --------
	orders := api.Group("/orders", auth)
	orders.POST("", s.orderHandler.Create)
	orders.GET("", s.orderHandler.List)
	orders.GET("/:id", s.orderHandler.Get)
	orders.PUT("/:id/status", s.orderHandler.UpdateStatus, productManager)
	orders.PATCH("/:id/status", s.orderHandler.UpdateStatus, productManager)
	orders.POST("/:id/cancel", s.orderHandler.Cancel)

	// -------- refunds --------
	refunds := api.Group("/refunds", auth)
	refunds.POST("", s.refundHandler.Create)
	refunds.GET("/my", s.refundHandler.ListMine)
	refunds.GET("", s.refundHandler.ListAll, salesManager)
	refunds.PATCH("/:id", s.refundHandler.UpdateStatus, salesManager)

	// -------- wishlist --------
	wishlist := api.Group("/wishlist", auth)
	wishlist.GET("", s.wishlistHandler.Get)
	wishlist.POST("", s.wishlistHandler.Add)
	wishlist.DELETE("/:productId", s.wishlistHandler.Remove)
	wishlist.GET("/count", s.wishlistHandler.Count)

	// -------- notifications --------
	notifications := api.Group("/notifications", auth)
	notifications.GET("", s.notificationHandler.ListMine)
	notifications.GET("/unread-count", s.notificationHandler.UnreadCount)
	notifications.PATCH("/:id/read", s.notificationHandler.MarkRead)
	notifications.PATCH("/read-all", s.notificationHandler.MarkAllRead)

	// -------- chat --------
	chat := api.Group("/chat")
	chat.POST("/conversations", s.chatHandler.StartConversation, optionalAuth)
	chat.GET("/conversations/waiting", s.chatHandler.Waiting, auth)
	chat.GET("/conversations/mine", s.chatHandler.Mine, auth)
	chat.GET("/conversations/:id", s.chatHandler.Get, optionalAuth)
	chat.GET("/conversations/:id/messages", s.chatHandler.Messages, optionalAuth)
	chat.POST("/conversations/:id/claim", s.chatHandler.Claim, auth)
	chat.POST("/conversations/:id/close", s.chatHandler.Close, optionalAuth)
	chat.POST("/messages", s.chatHandler.SendMessage, optionalAuth)
	chat.POST("/messages/with-attachments", s.chatHandler.SendMessageWithAttachments, optionalAuth)

	// -------- realtime --------
	s.echo.GET("/ws", func(c echo.Context) error {
		return s.hub.ServeWS(c, middleware.UserID(c), middleware.Role(c))
	}, optionalAuth)

	// Serve stored attachments from the same directory the chat handler
	// writes to, so the file URLs it hands out always resolve.
	s.echo.Static(path.Join("/", filepath.ToSlash(s.cfg.Upload.Dir)), s.cfg.Upload.Dir)
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown() error {
	return s.echo.Close()
}
