package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/sireview/internal/domain/dto"
	"github.com/guttosm/sireview/internal/exemption"
	"github.com/guttosm/sireview/internal/ingestion"
	"github.com/guttosm/sireview/internal/middleware"
	"github.com/guttosm/sireview/internal/review"
	"github.com/guttosm/sireview/internal/service"
)

// Handler provides HTTP handlers for the SI review endpoints.
//
// Responsibilities:
//   - Validate path parameters
//   - Delegate to the review service
//   - Translate results into response DTOs and errors into dto.ErrorResponse
type Handler struct {
	svc service.ReviewService
}

// NewHandler constructs a new Handler instance.
//
// Parameters:
//   - svc (service.ReviewService): runs reviews and serves the latest results.
//
// Returns:
//   - *Handler: A handler ready to be registered with the router.
func NewHandler(svc service.ReviewService) *Handler {
	return &Handler{svc: svc}
}

// RunReview godoc
// @Summary      Run a review
// @Description  Loads the configured feeds, evaluates every instrument and issuer, writes the workbook and summary and returns the run record
// @Tags         reviews
// @Produce      json
// @Success      201  {object}  dto.RunResponse    "Created"
// @Failure      422  {object}  dto.ErrorResponse  "Input files missing or malformed"
// @Failure      500  {object}  dto.ErrorResponse  "Internal Error"
// @Router       /api/v1/reviews [post]
func (h *Handler) RunReview(c *gin.Context) {
	run, err := h.svc.Run(c.Request.Context())
	if err != nil {
		var (
			missing *ingestion.MissingFilesError
			schema  *ingestion.SchemaError
		)
		if errors.As(err, &missing) || errors.As(err, &schema) {
			middleware.AbortWithError(c, http.StatusUnprocessableEntity, "invalid review inputs", err)
			return
		}
		middleware.AbortWithError(c, http.StatusInternalServerError, "review run failed", err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewRunResponse(run))
}

// GetLatest godoc
// @Summary      Latest review run
// @Description  Returns the most recent completed run
// @Tags         reviews
// @Produce      json
// @Success      200  {object}  dto.RunResponse    "Success"
// @Failure      404  {object}  dto.ErrorResponse  "No run yet"
// @Failure      500  {object}  dto.ErrorResponse  "Internal Error"
// @Router       /api/v1/reviews/latest [get]
func (h *Handler) GetLatest(c *gin.Context) {
	run, err := h.svc.Latest(c.Request.Context())
	if err != nil {
		h.queryError(c, "no review run available", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewRunResponse(run))
}

// GetIssuer godoc
// @Summary      Issuer review
// @Description  Returns the issuer-level rollup of the latest run; one entry per issuer full name
// @Tags         reviews
// @Produce      json
// @Param        code  path      string  true  "Issuer code" example(TRESORIT)
// @Success      200   {array}   dto.IssuerResponse  "Success"
// @Failure      400   {object}  dto.ErrorResponse   "Bad Request"
// @Failure      404   {object}  dto.ErrorResponse   "Not Found"
// @Failure      500   {object}  dto.ErrorResponse   "Internal Error"
// @Router       /api/v1/reviews/latest/issuers/{code} [get]
func (h *Handler) GetIssuer(c *gin.Context) {
	code := exemption.Normalize(c.Param("code"))
	if code == "" {
		middleware.AbortWithError(c, http.StatusBadRequest, "issuer code is required", nil)
		return
	}
	reviews, err := h.svc.Issuer(c.Request.Context(), code)
	if err != nil {
		h.queryError(c, "issuer not found", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewIssuerResponses(reviews))
}

// GetInstrument godoc
// @Summary      Instrument review
// @Description  Returns the per-period trade count, scaled ESMA threshold, auction count and SI flag of an ISIN in the latest run
// @Tags         reviews
// @Produce      json
// @Param        isin  path      string  true  "ISIN" example(IT0005090318)
// @Success      200   {object}  dto.InstrumentResponse  "Success"
// @Failure      400   {object}  dto.ErrorResponse       "Bad Request"
// @Failure      404   {object}  dto.ErrorResponse       "Not Found"
// @Failure      500   {object}  dto.ErrorResponse       "Internal Error"
// @Router       /api/v1/reviews/latest/instruments/{isin} [get]
func (h *Handler) GetInstrument(c *gin.Context) {
	isin := review.NormalizeInstrument(c.Param("isin"))
	if isin == "" {
		middleware.AbortWithError(c, http.StatusBadRequest, "isin is required", nil)
		return
	}
	inst, err := h.svc.Instrument(c.Request.Context(), isin)
	if err != nil {
		h.queryError(c, "instrument not found", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewInstrumentResponse(inst))
}

func (h *Handler) queryError(c *gin.Context, notFoundMsg string, err error) {
	if service.IsNotFound(err) {
		middleware.AbortWithError(c, http.StatusNotFound, notFoundMsg, nil)
		return
	}
	middleware.AbortWithError(c, http.StatusInternalServerError, "failed to fetch review", err)
}
