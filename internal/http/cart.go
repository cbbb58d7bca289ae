package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"canokart/internal/domain"
)

type cartItemReq struct {
	ProductID string `json:"productId"`
	Quantity  int64  `json:"quantity"`
}

type quantityReq struct {
	Quantity int64 `json:"quantity"`
}

type mergeCartReq struct {
	Items []domain.CartItem `json:"items"`
}

type wishlistReq struct {
	ProductID string `json:"productId"`
}

// @Summary Get cart with product details
// @Tags cart
// @Produce json
// @Success 200 {object} service.CartView
// @Failure 401 {object} map[string]string
// @Router /cart [get]
func (s *Server) getCart(c *gin.Context) {
	view, err := s.carts.View(c, identity(c).UserID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// @Summary Add to cart
// @Tags cart
// @Accept json
// @Produce json
// @Param input body cartItemReq true "Product and quantity"
// @Success 200 {object} domain.Cart
// @Failure 404 {object} map[string]string
// @Router /cart [post]
func (s *Server) addToCart(c *gin.Context) {
	var req cartItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	cart, err := s.carts.Add(c, identity(c).UserID, req.ProductID, req.Quantity)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// @Summary Set cart quantity
// @Tags cart
// @Accept json
// @Produce json
// @Param productId path string true "Product ID"
// @Param input body quantityReq true "Quantity, clamped to 1"
// @Success 200 {object} domain.Cart
// @Failure 404 {object} map[string]string
// @Router /cart/{productId} [put]
func (s *Server) setCartQuantity(c *gin.Context) {
	var req quantityReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	cart, err := s.carts.SetQuantity(c, identity(c).UserID, c.Param("productId"), req.Quantity)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// @Summary Remove from cart
// @Tags cart
// @Produce json
// @Param productId path string true "Product ID"
// @Success 200 {object} domain.Cart
// @Failure 404 {object} map[string]string
// @Router /cart/{productId} [delete]
func (s *Server) removeFromCart(c *gin.Context) {
	cart, err := s.carts.Remove(c, identity(c).UserID, c.Param("productId"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// @Summary Merge an offline guest cart after sign-in
// @Tags cart
// @Accept json
// @Produce json
// @Param input body mergeCartReq true "Offline items"
// @Success 200 {object} domain.Cart
// @Router /cart/merge [post]
func (s *Server) mergeCart(c *gin.Context) {
	var req mergeCartReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	cart, err := s.carts.Merge(c, identity(c).UserID, req.Items)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// @Summary Get wishlist
// @Tags wishlist
// @Produce json
// @Success 200 {array} domain.Product
// @Router /wishlist [get]
func (s *Server) getWishlist(c *gin.Context) {
	list, err := s.wishlist.Get(c, identity(c).UserID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Add to wishlist
// @Tags wishlist
// @Accept json
// @Produce json
// @Param input body wishlistReq true "Product"
// @Success 200 {object} domain.Wishlist
// @Failure 404 {object} map[string]string
// @Router /wishlist [post]
func (s *Server) addToWishlist(c *gin.Context) {
	var req wishlistReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	w, err := s.wishlist.Add(c, identity(c).UserID, req.ProductID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// @Summary Remove from wishlist
// @Tags wishlist
// @Produce json
// @Param productId path string true "Product ID"
// @Success 200 {object} domain.Wishlist
// @Router /wishlist/{productId} [delete]
func (s *Server) removeFromWishlist(c *gin.Context) {
	w, err := s.wishlist.Remove(c, identity(c).UserID, c.Param("productId"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}
