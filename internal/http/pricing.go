package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"canokart/internal/domain"
	"canokart/internal/payment"
	"canokart/internal/pricing"
)

type validateCouponReq struct {
	Code       string  `json:"code"`
	OrderTotal float64 `json:"orderTotal"`
}

// @Summary Validate coupon
// @Tags pricing
// @Accept json
// @Produce json
// @Param input body validateCouponReq true "Coupon and order total"
// @Success 200 {object} service.CouponResult
// @Failure 400 {object} map[string]string
// @Router /validate-coupon [post]
func (s *Server) validateCoupon(c *gin.Context) {
	var req validateCouponReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	res, err := s.coupons.Validate(c, req.Code, req.OrderTotal)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type shippingReq struct {
	Weight   float64                `json:"weight"`
	Distance float64                `json:"distance"`
	Method   pricing.ShippingMethod `json:"method"`
}

// @Summary Calculate shipping by weight and distance
// @Tags pricing
// @Accept json
// @Produce json
// @Param input body shippingReq true "Parcel"
// @Success 200 {object} map[string]number
// @Failure 400 {object} map[string]string
// @Router /calculate-shipping [post]
func (s *Server) calculateShipping(c *gin.Context) {
	var req shippingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	if req.Method == "" {
		req.Method = pricing.ShippingStandard
	}
	cost, err := pricing.ShippingQuote(req.Weight, req.Distance, req.Method)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"shipping": cost})
}

type taxReq struct {
	Subtotal float64 `json:"subtotal"`
	State    string  `json:"state"`
}

// @Summary Calculate tax for a destination state
// @Tags pricing
// @Accept json
// @Produce json
// @Param input body taxReq true "Amount and state"
// @Success 200 {object} map[string]number
// @Failure 400 {object} map[string]string
// @Router /calculate-tax [post]
func (s *Server) calculateTax(c *gin.Context) {
	var req taxReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	tax, err := s.pricing.Tax(req.Subtotal, req.State)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tax": tax, "rate": s.pricing.TaxRate(req.State)})
}

type paymentReq struct {
	Amount float64              `json:"amount"`
	Method domain.PaymentMethod `json:"paymentMethod"`
}

// @Summary Charge the mock payment gateway
// @Tags pricing
// @Accept json
// @Produce json
// @Param input body paymentReq true "Charge"
// @Success 200 {object} payment.Receipt
// @Failure 402 {object} map[string]string
// @Router /process-payment [post]
func (s *Server) processPayment(c *gin.Context) {
	var req paymentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	receipt, err := s.payments.Charge(c, payment.Charge{Amount: req.Amount, Method: req.Method})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}
