package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"canokart/internal/repository"
	"canokart/internal/service"
)

// @Summary Search products
// @Tags search
// @Produce json
// @Param q query string true "Query"
// @Param category query string false "Category contains"
// @Param brand query string false "Brand contains"
// @Param minPrice query number false "Min price"
// @Param maxPrice query number false "Max price"
// @Param inStock query bool false "Only available products"
// @Param sortBy query string false "relevance, price_asc, price_desc, newest, rating"
// @Param page query int false "Page, from 1"
// @Param limit query int false "Page size"
// @Success 200 {object} service.SearchResult
// @Failure 400 {object} map[string]string "Blank query or malformed number"
// @Router /search [get]
func (s *Server) searchProducts(c *gin.Context) {
	q := queryParser{c: c}
	query := service.SearchQuery{
		Query:     c.Query("q"),
		Category:  c.Query("category"),
		Brand:     c.Query("brand"),
		MinPrice:  q.number("minPrice"),
		MaxPrice:  q.number("maxPrice"),
		InStock:   c.Query("inStock") == "true",
		SortBy:    repository.SortMode(c.Query("sortBy")),
		Page:      q.integer("page"),
		Limit:     q.integer("limit"),
		UserID:    identity(c).UserID,
		SessionID: c.ClientIP(),
	}
	if q.err != nil {
		s.fail(c, q.err)
		return
	}
	res, err := s.search.Search(c, query)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// @Summary Search suggestions
// @Tags search
// @Produce json
// @Param q query string true "At least two characters"
// @Success 200 {object} map[string][]string
// @Router /search/suggestions [get]
func (s *Server) suggestions(c *gin.Context) {
	list, err := s.search.Suggestions(c, c.Query("q"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": list})
}
