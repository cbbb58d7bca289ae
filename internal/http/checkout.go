package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"canokart/internal/checkout"
	"canokart/internal/domain"
)

type startCheckoutReq struct {
	Items []domain.OrderItem `json:"items"`
}

// bindPatch allows an empty body
func bindPatch(c *gin.Context) (checkout.Patch, bool) {
	var p checkout.Patch
	if c.Request.ContentLength == 0 {
		return p, true
	}
	if err := c.ShouldBindJSON(&p); err != nil {
		badJSON(c)
		return p, false
	}
	return p, true
}

// @Summary Start a checkout session
// @Description Signed-in buyers without items start from their stored cart.
// @Tags checkout
// @Accept json
// @Produce json
// @Param input body startCheckoutReq false "Items"
// @Success 201 {object} checkout.State
// @Failure 400 {object} map[string]string
// @Router /checkout/sessions [post]
func (s *Server) startCheckout(c *gin.Context) {
	var req startCheckoutReq
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badJSON(c)
			return
		}
	}
	st, err := s.checkout.Start(c, identity(c), req.Items)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, st)
}

// @Summary Get a checkout session
// @Tags checkout
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} checkout.State
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /checkout/sessions/{id} [get]
func (s *Server) getCheckout(c *gin.Context) {
	st, err := s.checkout.Get(c, identity(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary Merge data into a checkout session
// @Tags checkout
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param input body checkout.Patch true "Fields to replace"
// @Success 200 {object} checkout.State
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /checkout/sessions/{id} [patch]
func (s *Server) updateCheckout(c *gin.Context) {
	p, ok := bindPatch(c)
	if !ok {
		return
	}
	st, err := s.checkout.Update(c, identity(c), c.Param("id"), p)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary Advance a checkout session
// @Description Leaving payment selection places the order.
// @Tags checkout
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param input body checkout.Patch false "Fields to replace before moving"
// @Success 200 {object} checkout.State
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /checkout/sessions/{id}/next [post]
func (s *Server) nextCheckout(c *gin.Context) {
	p, ok := bindPatch(c)
	if !ok {
		return
	}
	st, err := s.checkout.Next(c, identity(c), c.Param("id"), p)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary Step a checkout session back
// @Tags checkout
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} checkout.State
// @Router /checkout/sessions/{id}/prev [post]
func (s *Server) prevCheckout(c *gin.Context) {
	st, err := s.checkout.Prev(c, identity(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}
