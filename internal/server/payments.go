package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	paymentdomain "github.com/smallbiznis/hirehub/internal/payment/domain"
)

func (s *Server) CreateTransaction(c *gin.Context) {
	var req paymentdomain.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.paymentSvc.CreateTransaction(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) GetPayment(c *gin.Context) {
	orderID := strings.TrimSpace(c.Param("orderId"))
	resp, err := s.paymentSvc.GetByOrderID(c.Request.Context(), orderID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) GetReceipt(c *gin.Context) {
	orderID := strings.TrimSpace(c.Param("orderId"))
	doc, err := s.paymentSvc.RenderReceipt(c.Request.Context(), orderID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="receipt-%s.pdf"`, orderID))
	c.Data(http.StatusOK, "application/pdf", doc)
}
