package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	onboardingdomain "github.com/smallbiznis/hirehub/internal/onboarding/domain"
)

func (s *Server) CreateEmployer(c *gin.Context) {
	var req onboardingdomain.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.onboardingSvc.CreateAccount(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) GetEmployer(c *gin.Context) {
	resp, err := s.onboardingSvc.GetEmployer(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) UpsertProfile(c *gin.Context) {
	var req onboardingdomain.ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.onboardingSvc.UpsertProfile(c.Request.Context(), c.Param("id"), req); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) ChoosePlan(c *gin.Context) {
	var req onboardingdomain.ChoosePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.onboardingSvc.ChoosePlan(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) CreateDraftJob(c *gin.Context) {
	var req onboardingdomain.DraftJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.onboardingSvc.CreateDraftJob(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) SubmitVerification(c *gin.Context) {
	var req onboardingdomain.VerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.onboardingSvc.SubmitVerification(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}
