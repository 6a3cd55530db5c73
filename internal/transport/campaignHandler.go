package transport

import (
	"net/http"

	"github.com/gilson954/sistema-rifa-sub001/internal/service"
	"github.com/gilson954/sistema-rifa-sub001/internal/transport/middleware"

	"github.com/gin-gonic/gin"
)

type CampaignHandler struct {
	campaigns    service.CampaignService
	reservations service.ReservationService
}

func NewCampaignHandler(campaigns service.CampaignService, reservations service.ReservationService) *CampaignHandler {
	return &CampaignHandler{
		campaigns:    campaigns,
		reservations: reservations,
	}
}

func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	var req service.CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	campaign, err := h.campaigns.CreateCampaign(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, campaign)
}

func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	campaign, err := h.campaigns.GetCampaign(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, campaign)
}

func (h *CampaignHandler) PublishCampaign(c *gin.Context) {
	campaign, err := h.campaigns.PublishCampaign(c.Request.Context(), c.Param("id"), c.GetString(middleware.OrganizerIDKey))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, campaign)
}

// Reserve бронирует билеты для покупателя
func (h *CampaignHandler) Reserve(c *gin.Context) {
	var req service.ReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	req.CampaignID = c.Param("id")

	order, err := h.reservations.Reserve(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}
