package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"canokart/internal/service"
)

type returnReq struct {
	OrderID string `json:"orderId"`
	Reason  string `json:"reason"`
}

// @Summary Request a return
// @Tags returns
// @Accept json
// @Produce json
// @Param input body returnReq true "Order and reason"
// @Success 201 {object} domain.ReturnRequest
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /return-request [post]
func (s *Server) requestReturn(c *gin.Context) {
	var req returnReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	r, err := s.returns.Request(c, identity(c).UserID, req.OrderID, req.Reason)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

// @Summary List my return requests
// @Tags returns
// @Produce json
// @Success 200 {array} domain.ReturnRequest
// @Router /return-requests [get]
func (s *Server) listMyReturns(c *gin.Context) {
	list, err := s.returns.ListForUser(c, identity(c).UserID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary List all return requests
// @Tags admin
// @Produce json
// @Success 200 {array} domain.ReturnRequest
// @Router /admin/return-requests [get]
func (s *Server) listAllReturns(c *gin.Context) {
	list, err := s.returns.ListAll(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Review a return request
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "Return request ID"
// @Param input body service.ReturnReview true "Decision"
// @Success 200 {object} domain.ReturnRequest
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /admin/return-requests/{id} [put]
func (s *Server) reviewReturn(c *gin.Context) {
	var req service.ReturnReview
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	r, err := s.returns.Review(c, c.Param("id"), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}
