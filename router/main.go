package router

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/sahilchouksey/coursecheckout-api/config"
	"github.com/sahilchouksey/coursecheckout-api/database"
	"github.com/sahilchouksey/coursecheckout-api/handlers"
	admin_handlers "github.com/sahilchouksey/coursecheckout-api/handlers/admin"
	cart_handlers "github.com/sahilchouksey/coursecheckout-api/handlers/cart"
	course_handlers "github.com/sahilchouksey/coursecheckout-api/handlers/course"
	enrollment_handlers "github.com/sahilchouksey/coursecheckout-api/handlers/enrollment"
	instructor_handlers "github.com/sahilchouksey/coursecheckout-api/handlers/instructor"
	order_handlers "github.com/sahilchouksey/coursecheckout-api/handlers/order"
	payment_handlers "github.com/sahilchouksey/coursecheckout-api/handlers/payment"
	"github.com/sahilchouksey/coursecheckout-api/services"
	"github.com/sahilchouksey/coursecheckout-api/services/razorpay"
	"github.com/sahilchouksey/coursecheckout-api/utils"
	"github.com/sahilchouksey/coursecheckout-api/utils/auth"
	"github.com/sahilchouksey/coursecheckout-api/utils/cache"
	"github.com/sahilchouksey/coursecheckout-api/utils/middleware"
	"gorm.io/gorm"
)

// Services holds the checkout services shared by the HTTP routes and the cron jobs
type Services struct {
	Enrollments *services.EnrollmentService
	Carts       *services.CartService
	Orders      *services.OrderService
	Payments    *services.PaymentService
	Instructors *services.InstructorService
}

// NewServices wires the checkout services onto db and the given gateway
func NewServices(db *gorm.DB, gateway services.PaymentGateway, currency string) *Services {
	catalog := services.NewGormCatalogStore(db)
	enrollments := services.NewEnrollmentService(db)
	carts := services.NewCartService(db, catalog, enrollments)

	return &Services{
		Enrollments: enrollments,
		Carts:       carts,
		Orders:      services.NewOrderService(db, catalog, carts, enrollments, currency),
		Payments:    services.NewPaymentService(db, gateway, enrollments),
		Instructors: services.NewInstructorService(db),
	}
}

// NewRazorpayGateway builds the live gateway from the environment
func NewRazorpayGateway(env *config.EnviornmentVariable) services.PaymentGateway {
	if env.RAZORPAY_KEY_ID == "" || env.RAZORPAY_KEY_SECRET == "" {
		log.Warn().Msg("[ROUTER] RAZORPAY_KEY_ID or RAZORPAY_KEY_SECRET not set, payment intents will fail")
	}
	client := razorpay.NewClient(razorpay.Config{
		KeyID:     env.RAZORPAY_KEY_ID,
		KeySecret: env.RAZORPAY_KEY_SECRET,
		BaseURL:   env.RAZORPAY_BASE_URL,
		Timeout:   15 * time.Second,
	})
	return services.NewRazorpayGateway(client)
}

// SetupRoutes mounts every route on app. The returned cleanup closes the
// redis connection when one was opened.
func SetupRoutes(app *fiber.App, store database.Storage, svc *Services, env *config.EnviornmentVariable) (func(), error) {
	if env.JWT_SECRET == "" {
		return nil, errors.New("JWT_SECRET environment variable is not set")
	}

	jwtManager := auth.NewJWTManager(auth.JWTConfig{
		Secret: env.JWT_SECRET,
		Expiry: 24 * time.Hour,
		Issuer: env.JWT_ISSUER,
	})

	db := store.DB()
	cleanup := func() {}

	// Redis backs the payment verification guard. Without it the guard is off.
	var verifyGuard *middleware.VerifyAttemptGuard
	if env.REDIS_URL != "" {
		redisCache, err := cache.NewRedisCache(env.REDIS_URL)
		if err != nil {
			log.Warn().Err(err).Msg("[ROUTER] failed to connect to Redis, payment verification guard disabled")
		} else {
			verifyGuard = middleware.NewVerifyAttemptGuard(redisCache)
			cleanup = func() { _ = redisCache.Close() }
		}
	}

	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)

	courseHandler := course_handlers.NewCourseHandler(db)
	cartHandler := cart_handlers.NewCartHandler(svc.Carts, svc.Orders)
	orderHandler := order_handlers.NewOrderHandler(svc.Orders, svc.Payments)
	paymentHandler := payment_handlers.NewPaymentHandler(svc.Payments, verifyGuard)
	enrollmentHandler := enrollment_handlers.NewEnrollmentHandler(svc.Enrollments)
	earningsHandler := instructor_handlers.NewEarningsHandler(svc.Instructors)
	adminHandler := admin_handlers.NewAdminHandler(svc.Payments, svc.Instructors, env.STALE_PAYMENT_AFTER)

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    env.ALLOWED_ORIGINS,
		RateLimitRequests: 100,             // 100 requests
		RateLimitWindow:   1 * time.Minute, // per minute
	})
	app.Use(middleware.Tracing("coursecheckout-api"))

	// Health check and metrics (public)
	app.Get("/ping", utils.MakeHTTPHandleFunc(handlers.HandleCheckHealth, store))
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api/v1")

	// Catalog (public)
	courses := api.Group("/courses")
	courses.Get("/", courseHandler.ListCourses)
	courses.Get("/:id", courseHandler.GetCourse)

	canPurchase := authMiddleware.RequirePermission(func(p auth.Permissions) bool { return p.CanPurchase })

	// Cart
	cart := api.Group("/cart", authMiddleware.Required(), canPurchase)
	cart.Get("/", cartHandler.GetCart)
	cart.Post("/items", cartHandler.AddItem)
	cart.Delete("/items/:course_id", cartHandler.RemoveItem)
	cart.Post("/checkout", cartHandler.Checkout)

	// Orders
	orders := api.Group("/orders", authMiddleware.Required(), canPurchase)
	orders.Post("/", orderHandler.CreateOrder)
	orders.Get("/", orderHandler.ListOrders)
	orders.Get("/:id", orderHandler.GetOrder)
	orders.Post("/:id/payment-intents", orderHandler.CreatePaymentIntent)

	// Payment confirmation, rate limited per user on signature failures
	payments := api.Group("/payments", authMiddleware.Required(), canPurchase)
	payments.Post("/verify", verifyGuard.Check(), paymentHandler.VerifyPayment)

	api.Get("/enrollments", authMiddleware.Required(), enrollmentHandler.ListEnrollments)

	// Instructor revenue
	api.Get("/teacher/earnings",
		authMiddleware.Required(),
		authMiddleware.RequirePermission(func(p auth.Permissions) bool { return p.CanViewEarnings }),
		earningsHandler.GetEarnings,
	)

	// Back office
	admin := api.Group("/admin", authMiddleware.Required())
	admin.Put("/courses/:id/instructors/:instructor_id",
		authMiddleware.RequirePermission(func(p auth.Permissions) bool { return p.CanManageShares }),
		adminHandler.SetInstructorShare,
	)
	adminPayments := admin.Group("/payments",
		authMiddleware.RequirePermission(func(p auth.Permissions) bool { return p.CanViewAllPayments }))
	adminPayments.Get("/", adminHandler.ListPayments)
	adminPayments.Get("/stale", adminHandler.ListStalePayments)

	return cleanup, nil
}
