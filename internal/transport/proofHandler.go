package transport

import (
	"errors"
	"net/http"

	"github.com/gilson954/sistema-rifa-sub001/internal/entity"
	"github.com/gilson954/sistema-rifa-sub001/internal/service"
	"github.com/gilson954/sistema-rifa-sub001/internal/transport/middleware"

	"github.com/gin-gonic/gin"
)

type ProofHandler struct {
	review         service.ReviewService
	maxUploadBytes int64
}

func NewProofHandler(review service.ReviewService, maxUploadMB int64) *ProofHandler {
	if maxUploadMB <= 0 {
		maxUploadMB = 10
	}
	return &ProofHandler{
		review:         review,
		maxUploadBytes: maxUploadMB << 20,
	}
}

// UploadProof принимает multipart форму с изображением чека
func (h *ProofHandler) UploadProof(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	var upload entity.ProofUpload
	if err := c.ShouldBind(&upload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "upload too large"})
			return
		}
		badRequest(c, err.Error())
		return
	}

	header, err := c.FormFile("image")
	if err != nil {
		badRequest(c, "no image file provided")
		return
	}
	upload.Filename = header.Filename

	file, err := header.Open()
	if err != nil {
		badRequest(c, "failed to read image")
		return
	}
	defer file.Close()

	proof, err := h.review.UploadProof(c.Request.Context(), &upload, file)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, proof)
}

func (h *ProofHandler) Approve(c *gin.Context) {
	var req service.ApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	req.ProofID = c.Param("id")
	req.OrganizerID = c.GetString(middleware.OrganizerIDKey)

	result, err := h.review.Approve(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *ProofHandler) Reject(c *gin.Context) {
	proof, err := h.review.Reject(c.Request.Context(), c.Param("id"), c.GetString(middleware.OrganizerIDKey))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, proof)
}
