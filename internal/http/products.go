package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"canokart/internal/domain"
	"canokart/internal/repository"
)

type productReq struct {
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Subcategory string   `json:"subcategory"`
	Brand       string   `json:"brand"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Stock       int64    `json:"stock"`
	Images      []string `json:"images"`
}

func (r productReq) product(id string) domain.Product {
	return domain.Product{
		ID:          id,
		Name:        r.Name,
		Category:    r.Category,
		Subcategory: r.Subcategory,
		Brand:       r.Brand,
		Description: r.Description,
		Price:       r.Price,
		Stock:       r.Stock,
		Images:      r.Images,
	}
}

func productFilter(c *gin.Context) (repository.ProductFilter, error) {
	q := queryParser{c: c}
	f := repository.ProductFilter{
		Search:      c.Query("search"),
		Category:    c.Query("category"),
		Subcategory: c.Query("subcategory"),
		Brand:       c.Query("brand"),
		MinPrice:    q.number("minPrice"),
		MaxPrice:    q.number("maxPrice"),
		InStock:     c.Query("inStock") == "true",
		Sort:        repository.SortMode(c.Query("sort")),
		Exact:       true,
	}
	return f, q.err
}

// @Summary List products
// @Tags products
// @Produce json
// @Param search query string false "Matches name, description, category or brand"
// @Param category query string false "Category"
// @Param subcategory query string false "Subcategory"
// @Param brand query string false "Brand"
// @Param minPrice query number false "Min price"
// @Param maxPrice query number false "Max price"
// @Param inStock query bool false "Only available products"
// @Param sort query string false "relevance, price_asc, price_desc, newest, rating"
// @Success 200 {array} domain.Product
// @Failure 400 {object} map[string]string
// @Router /products [get]
func (s *Server) listProducts(c *gin.Context) {
	f, err := productFilter(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	list, err := s.products.List(c, f)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Get product by id
// @Tags products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} domain.Product
// @Failure 404 {object} map[string]string
// @Router /products/{id} [get]
func (s *Server) getProduct(c *gin.Context) {
	p, err := s.products.GetByID(c, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if who := identity(c); who.Authenticated() {
		if err := s.recent.Record(c, who.UserID, p.ID); err != nil {
			s.log.Warn("recently viewed not recorded", zap.String("userId", who.UserID), zap.Error(err))
		}
	}
	c.JSON(http.StatusOK, p)
}

// @Summary Products bought together with this one
// @Tags products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {array} domain.Product
// @Failure 404 {object} map[string]string
// @Router /products/{id}/recommendations [get]
func (s *Server) recommendations(c *gin.Context) {
	list, err := s.products.Recommendations(c, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary List categories
// @Tags catalog
// @Produce json
// @Success 200 {array} string
// @Router /categories [get]
func (s *Server) categories(c *gin.Context) {
	list, err := s.products.Categories(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary List subcategories of a category
// @Tags catalog
// @Produce json
// @Param category path string true "Category"
// @Success 200 {array} string
// @Router /subcategories/{category} [get]
func (s *Server) subcategories(c *gin.Context) {
	list, err := s.products.Subcategories(c, c.Param("category"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary List brands
// @Tags catalog
// @Produce json
// @Success 200 {array} string
// @Router /brands [get]
func (s *Server) brands(c *gin.Context) {
	list, err := s.products.Brands(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Create product
// @Tags seller
// @Accept json
// @Produce json
// @Param input body productReq true "Product"
// @Success 201 {object} domain.Product
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /seller/products [post]
func (s *Server) createProduct(c *gin.Context) {
	var req productReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	p, err := s.products.Create(c, identity(c), req.product(""))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// @Summary List own products
// @Tags seller
// @Produce json
// @Success 200 {array} domain.Product
// @Router /seller/products [get]
func (s *Server) listSellerProducts(c *gin.Context) {
	list, err := s.products.List(c, repository.ProductFilter{SellerID: identity(c).UserID})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Update product
// @Tags seller
// @Accept json
// @Produce json
// @Param id path string true "Product ID"
// @Param input body productReq true "Product"
// @Success 200 {object} domain.Product
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /seller/products/{id} [put]
func (s *Server) updateProduct(c *gin.Context) {
	var req productReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	p, err := s.products.Update(c, identity(c), req.product(c.Param("id")))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary Delete product
// @Tags seller
// @Param id path string true "Product ID"
// @Success 204
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /seller/products/{id} [delete]
func (s *Server) deleteProduct(c *gin.Context) {
	if err := s.products.Delete(c, identity(c), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
