package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"canokart/internal/service"
)

type stockAlertReq struct {
	ProductID string `json:"productId"`
	Email     string `json:"email"`
}

// @Summary List saved addresses
// @Tags account
// @Produce json
// @Success 200 {array} domain.SavedAddress
// @Failure 401 {object} map[string]string
// @Router /user/addresses [get]
func (s *Server) listAddresses(c *gin.Context) {
	list, err := s.addresses.List(c, identity(c).UserID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Save an address
// @Description The first address, or one sent with isDefault, becomes the default.
// @Tags account
// @Accept json
// @Produce json
// @Param input body service.AddressInput true "Address"
// @Success 201 {array} domain.SavedAddress
// @Failure 400 {object} map[string]string
// @Router /user/addresses [post]
func (s *Server) addAddress(c *gin.Context) {
	var req service.AddressInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	list, err := s.addresses.Add(c, identity(c).UserID, req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, list)
}

// @Summary Replace a saved address
// @Tags account
// @Accept json
// @Produce json
// @Param addressId path string true "Address ID"
// @Param input body service.AddressInput true "Address"
// @Success 200 {array} domain.SavedAddress
// @Failure 404 {object} map[string]string
// @Router /user/addresses/{addressId} [put]
func (s *Server) updateAddress(c *gin.Context) {
	var req service.AddressInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	list, err := s.addresses.Update(c, identity(c).UserID, c.Param("addressId"), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Delete a saved address
// @Tags account
// @Produce json
// @Param addressId path string true "Address ID"
// @Success 200 {array} domain.SavedAddress
// @Failure 404 {object} map[string]string
// @Router /user/addresses/{addressId} [delete]
func (s *Server) deleteAddress(c *gin.Context) {
	list, err := s.addresses.Delete(c, identity(c).UserID, c.Param("addressId"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Account counters
// @Tags account
// @Produce json
// @Success 200 {object} service.UserStats
// @Router /user/stats [get]
func (s *Server) userStats(c *gin.Context) {
	st, err := s.analytics.UserStats(c, identity(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary Recently viewed products
// @Tags account
// @Produce json
// @Success 200 {array} domain.Product
// @Router /recently-viewed [get]
func (s *Server) recentlyViewed(c *gin.Context) {
	list, err := s.recent.List(c, identity(c).UserID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Ask to be told when a product is back in stock
// @Tags account
// @Accept json
// @Produce json
// @Param input body stockAlertReq true "Product and optional e-mail"
// @Success 201 {object} domain.StockNotification
// @Failure 409 {object} map[string]string "Product is in stock"
// @Router /stock-notifications [post]
func (s *Server) subscribeStock(c *gin.Context) {
	var req stockAlertReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	n, err := s.alerts.Subscribe(c, identity(c), req.ProductID, req.Email)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, n)
}

// @Summary Store dashboard
// @Tags admin
// @Produce json
// @Success 200 {object} service.Dashboard
// @Failure 403 {object} map[string]string
// @Router /admin/analytics [get]
func (s *Server) analyticsDashboard(c *gin.Context) {
	d, err := s.analytics.Dashboard(c, identity(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}
