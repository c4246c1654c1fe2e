package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imam0321/bistro-boss-server/controllers"
	"github.com/imam0321/bistro-boss-server/middleware"
)

// Handlers groups the controllers mounted by RegisterRoutes.
type Handlers struct {
	Auth     *controllers.AuthController
	Users    *controllers.UserController
	Menu     *controllers.MenuController
	Carts    *controllers.CartController
	Payments *controllers.PaymentController
	Stats    *controllers.StatsController
}

// RegisterRoutes mounts the API. Guards run in order: token first, then
// the role or ownership check.
func RegisterRoutes(r *gin.Engine, h Handlers, tokens middleware.TokenVerifier, users middleware.RoleLookup) {
	token := middleware.RequireToken(tokens)
	admin := middleware.RequireAdmin(users)

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "boss is sitting")
	})

	r.POST("/jwt", h.Auth.IssueToken)

	r.GET("/users", token, admin, h.Users.ListUsers)
	r.POST("/users", h.Users.CreateUser)
	r.GET("/users/admin/:email", token, h.Users.AdminStatus)
	// Unguarded: the web client promotes users from its admin dashboard
	// without sending a token.
	r.PATCH("/users/admin/:id", h.Users.MakeAdmin)

	r.GET("/menu", h.Menu.ListMenu)
	r.POST("/menu", token, admin, h.Menu.CreateMenuItem)
	r.DELETE("/menu/:id", token, admin, h.Menu.DeleteMenuItem)

	r.GET("/reviews", h.Menu.ListReviews)

	r.GET("/carts", token, middleware.RequireOwner(middleware.FromQuery("email")), h.Carts.ListCart)
	r.POST("/carts", h.Carts.AddToCart)
	r.DELETE("/carts/:id", h.Carts.RemoveFromCart)

	r.POST("/create-payment-intent", token, h.Payments.CreatePaymentIntent)
	r.POST("/payments", token, h.Payments.RecordPayment)
	r.GET("/payments/:email", token, middleware.RequireOwner(middleware.FromParam("email")), h.Payments.ListPayments)

	r.GET("/admin-stats", token, admin, h.Stats.AdminStats)
	r.GET("/order-stats", token, admin, h.Stats.OrderStats)
}
