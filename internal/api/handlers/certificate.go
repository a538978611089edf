package handlers

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/MK-codes365/greenwipe/internal/api/middleware"
	"github.com/MK-codes365/greenwipe/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CertificateReader looks certificates up
type CertificateReader interface {
	Verify(ctx context.Context, id string) (*service.VerificationResult, error)
	DownloadReport(ctx context.Context, id string) (*service.ReportDownload, error)
}

// CertificateHandler handles certificate operations
type CertificateHandler struct {
	reader    CertificateReader
	creator   service.CertificateCreator
	anchorer  service.Anchorer
	scheduler service.AnchorScheduler
	logger    *zap.Logger
}

// NewCertificateHandler creates a new certificate handler. scheduler may be nil,
// in which case asynchronous anchoring requests are served inline.
func NewCertificateHandler(
	reader CertificateReader,
	creator service.CertificateCreator,
	anchorer service.Anchorer,
	scheduler service.AnchorScheduler,
	logger *zap.Logger,
) *CertificateHandler {
	return &CertificateHandler{
		reader:    reader,
		creator:   creator,
		anchorer:  anchorer,
		scheduler: scheduler,
		logger:    logger,
	}
}

// CreateCertificateRequest represents a request to create a certificate
type CreateCertificateRequest struct {
	ItemName   string `json:"itemName"`
	ItemSize   string `json:"itemSize"`
	ClientName string `json:"clientName"`
	WipeMethod string `json:"wipeMethod"`
}

// CreateCertificate issues a certificate for a completed wipe
// @Summary Create certificate
// @Description Create an unanchored wipe certificate. The caller's user id is recorded when a token is sent.
// @Accept json
// @Produce json
// @Param request body CreateCertificateRequest true "Wipe details"
// @Success 201 {object} service.CreateCertificateResult
// @Router /api/v1/certificates [post]
func (h *CertificateHandler) CreateCertificate(c *gin.Context) {
	var req CreateCertificateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.creator.Create(c.Request.Context(), &service.CreateCertificateRequest{
		ItemName:   req.ItemName,
		ItemSize:   req.ItemSize,
		ClientName: req.ClientName,
		WipeMethod: req.WipeMethod,
		UserID:     middleware.UserID(c),
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidRequest) {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("Certificate creation failed", zap.String("item", req.ItemName), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "certificate creation failed")
		return
	}

	respondOK(c, http.StatusCreated, result)
}

// VerifyCertificate looks a certificate up by id
// @Summary Verify certificate
// @Description Return the certificate with its audit trail and anchoring state
// @Produce json
// @Param id path string true "Certificate ID"
// @Success 200 {object} service.CertificatePayload
// @Failure 404 {object} Response
// @Router /api/v1/certificates/{id}/verify [get]
func (h *CertificateHandler) VerifyCertificate(c *gin.Context) {
	id := c.Param("id")

	result, err := h.reader.Verify(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Verification failed", zap.String("id", id), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "verification failed")
		return
	}
	if !result.Found {
		respondError(c, http.StatusNotFound, result.Message)
		return
	}

	respondOK(c, http.StatusOK, result.Certificate)
}

// AnchorCertificate records a certificate on the simulated ledger
// @Summary Anchor certificate
// @Description Anchor a certificate. With async=true the work is queued and 202 is returned.
// @Produce json
// @Param id path string true "Certificate ID"
// @Param async query bool false "Queue instead of waiting"
// @Success 200 {object} service.AnchorResult
// @Success 202 {object} Response
// @Router /api/v1/certificates/{id}/anchor [post]
func (h *CertificateHandler) AnchorCertificate(c *gin.Context) {
	id := c.Param("id")

	async, _ := strconv.ParseBool(c.Query("async"))
	if async && h.scheduler != nil {
		if !h.scheduler.Enqueue(id) {
			c.Header("Retry-After", "5")
			respondError(c, http.StatusServiceUnavailable, "anchoring queue is full")
			return
		}
		respondOK(c, http.StatusAccepted, gin.H{"queued": true})
		return
	}

	result, err := h.anchorer.Anchor(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Anchoring failed", zap.String("id", id), zap.Error(err))
		if errors.Is(err, context.DeadlineExceeded) {
			respondError(c, http.StatusGatewayTimeout, "anchoring failed")
			return
		}
		respondError(c, http.StatusInternalServerError, "anchoring failed")
		return
	}
	if !result.Success {
		c.JSON(http.StatusNotFound, Response{Success: false, Data: result, Error: service.MessageNotFound})
		return
	}

	respondOK(c, http.StatusOK, result)
}

// DownloadReport serves the JSON report of a certificate as an attachment
// @Summary Download report
// @Produce application/json
// @Param id path string true "Certificate ID"
// @Success 200 {file} binary
// @Router /api/v1/certificates/{id}/report [get]
func (h *CertificateHandler) DownloadReport(c *gin.Context) {
	id := c.Param("id")

	report, err := h.reader.DownloadReport(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrCertificateNotFound) {
			respondError(c, http.StatusNotFound, service.MessageNotFound)
			return
		}
		h.logger.Error("Report download failed", zap.String("id", id), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "report download failed")
		return
	}

	filename := sanitizeFilename(report.CertificateID) + ".json"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/json", report.Content)
}

var invalidFilenameChars = regexp.MustCompile(`[/\\:*?"<>|\x00-\x1f]`)

// sanitizeFilename makes a certificate id safe for a Content-Disposition filename
func sanitizeFilename(name string) string {
	sanitized := invalidFilenameChars.ReplaceAllString(name, "_")
	sanitized = strings.ReplaceAll(sanitized, " ", "_")
	sanitized = strings.Trim(sanitized, ". ")

	if len(sanitized) > 200 {
		sanitized = sanitized[:200]
	}
	if sanitized == "" {
		sanitized = "certificate"
	}
	return sanitized
}
