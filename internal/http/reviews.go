package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"canokart/internal/service"
)

// @Summary Reviews of a product, newest first
// @Tags reviews
// @Produce json
// @Param productId path string true "Product ID"
// @Success 200 {array} domain.Review
// @Router /reviews/{productId} [get]
func (s *Server) listReviews(c *gin.Context) {
	list, err := s.reviews.List(c, c.Param("productId"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Review a product
// @Description Updates the product's mean rating.
// @Tags reviews
// @Accept json
// @Produce json
// @Param input body service.ReviewInput true "Rating 1-5 and comment"
// @Success 201 {object} domain.Review
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /reviews [post]
func (s *Server) createReview(c *gin.Context) {
	var req service.ReviewInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	r, err := s.reviews.Create(c, identity(c).UserID, req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

// @Summary Best-rated products
// @Tags products
// @Produce json
// @Success 200 {array} domain.Product
// @Router /featured-products [get]
func (s *Server) featuredProducts(c *gin.Context) {
	list, err := s.products.Featured(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Curated collection
// @Tags products
// @Produce json
// @Success 200 {array} domain.Product
// @Router /our-collection [get]
func (s *Server) ourCollection(c *gin.Context) {
	list, err := s.products.Collection(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
