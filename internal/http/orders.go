package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"canokart/internal/domain"
	"canokart/internal/service"
)

type orderCreatedResp struct {
	OrderID string        `json:"orderId"`
	Total   float64       `json:"total"`
	Order   *domain.Order `json:"order"`
}

func created(o *domain.Order) orderCreatedResp {
	return orderCreatedResp{OrderID: o.ID, Total: o.Total, Order: o}
}

// @Summary Place an order from the stored cart
// @Tags orders
// @Accept json
// @Produce json
// @Param input body service.CheckoutRequest true "Address, coupon and payment"
// @Success 201 {object} orderCreatedResp
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /checkout [post]
func (s *Server) checkoutCart(c *gin.Context) {
	var req service.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	o, err := s.orders.Checkout(c, identity(c).UserID, req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created(o))
}

// @Summary Place an order without an account
// @Tags orders
// @Accept json
// @Produce json
// @Param input body service.GuestCheckoutRequest true "Items, contact and payment"
// @Success 201 {object} orderCreatedResp
// @Failure 400 {object} map[string]string
// @Router /guest-checkout [post]
func (s *Server) guestCheckout(c *gin.Context) {
	var req service.GuestCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	o, err := s.orders.GuestCheckout(c, req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created(o))
}

// @Summary List my orders
// @Tags orders
// @Produce json
// @Success 200 {array} domain.Order
// @Failure 401 {object} map[string]string
// @Router /orders [get]
func (s *Server) listMyOrders(c *gin.Context) {
	list, err := s.orders.ListForUser(c, identity(c).UserID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Get order by id
// @Tags orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} domain.Order
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /orders/{id} [get]
func (s *Server) getOrder(c *gin.Context) {
	o, err := s.orders.GetOrder(c, identity(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// @Summary Cancel order
// @Tags orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} domain.Order
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /orders/{id}/cancel [post]
func (s *Server) cancelOrder(c *gin.Context) {
	o, err := s.orders.Cancel(c, identity(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// @Summary List all orders
// @Tags admin
// @Produce json
// @Success 200 {array} domain.Order
// @Router /admin/orders [get]
func (s *Server) listAllOrders(c *gin.Context) {
	list, err := s.orders.ListAll(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

type orderStatusReq struct {
	Status domain.OrderStatus `json:"status"`
}

// @Summary Update order status
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param input body orderStatusReq true "New status"
// @Success 200 {object} domain.Order
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /admin/orders/{id} [put]
func (s *Server) updateOrderStatus(c *gin.Context) {
	var req orderStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	o, err := s.orders.UpdateStatus(c, c.Param("id"), req.Status)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// @Summary List coupons
// @Tags admin
// @Produce json
// @Success 200 {array} domain.Coupon
// @Router /admin/coupons [get]
func (s *Server) listCoupons(c *gin.Context) {
	list, err := s.coupons.List(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

type couponReq struct {
	Code       string            `json:"code"`
	Type       domain.CouponType `json:"type"`
	Value      float64           `json:"value"`
	MinOrder   float64           `json:"minOrder"`
	MaxUses    *int64            `json:"maxUses"`
	Active     *bool             `json:"active"`
	ExpiryDate *string           `json:"expiryDate"`
}

// @Summary Create coupon
// @Tags admin
// @Accept json
// @Produce json
// @Param input body couponReq true "Coupon; active defaults to true, expiryDate is RFC 3339"
// @Success 201 {object} domain.Coupon
// @Failure 400 {object} map[string]string
// @Router /admin/coupons [post]
func (s *Server) createCoupon(c *gin.Context) {
	var req couponReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	coupon := domain.Coupon{
		Code:     req.Code,
		Type:     req.Type,
		Value:    req.Value,
		MinOrder: req.MinOrder,
		MaxUses:  req.MaxUses,
		Active:   req.Active == nil || *req.Active,
	}
	if req.ExpiryDate != nil && *req.ExpiryDate != "" {
		t, err := parseExpiry(*req.ExpiryDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid expiryDate"})
			return
		}
		coupon.ExpiryDate = &t
	}
	out, err := s.coupons.Create(c, coupon)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}
