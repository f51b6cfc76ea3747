package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"inkworks/redpen/internal/auth"
	"inkworks/redpen/internal/common"
	"inkworks/redpen/internal/db/repositories"
	"inkworks/redpen/internal/models/dtos"
	"inkworks/redpen/internal/services"

	"github.com/go-chi/chi/v5"
)

// CreateBatchHandler handles POST /api/v1/batches
//
// @Summary      Create a batch polish job
// @Description  Imports a student roster and opens a draft polishing job.
// @Tags         Batches
// @Accept       json
// @Produce      json
// @Param        input  body  dtos.CreateBatchReq  true  "Roster payload"
// @Success      200  {object}  dtos.APIResponse
// @Failure      400  {object}  dtos.APIResponse
// @Router       /api/v1/batches [post]
func CreateBatchHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		claims := auth.GetUserClaims(r.Context())
		if claims == nil {
			common.RespondError(w, initTime, nil, "Unauthorized: missing claims", http.StatusUnauthorized)
			return
		}

		var req dtos.CreateBatchReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			common.RespondError(w, initTime, err, "Invalid roster payload", http.StatusBadRequest)
			return
		}

		job, err := deps.Services.BatchPolish.CreateBatch(r.Context(), claims.UserID(), &req)
		if err != nil {
			if errors.Is(err, services.ErrEmptyRoster) {
				common.RespondError(w, initTime, err, "Roster needs at least one student", http.StatusBadRequest)
				return
			}
			common.RespondError(w, initTime, err, "Failed to create batch", http.StatusInternalServerError)
			return
		}

		common.RespondSuccess(w, initTime, "Batch created", job)
	}
}

// GetBatchHandler handles GET /api/v1/batches/{job_id}
func GetBatchHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		claims := auth.GetUserClaims(r.Context())
		if claims == nil {
			common.RespondError(w, initTime, nil, "Unauthorized: missing claims", http.StatusUnauthorized)
			return
		}

		job, err := deps.Services.BatchPolish.GetBatch(r.Context(), chi.URLParam(r, "job_id"), claims.UserID())
		if err != nil {
			respondBatchError(w, initTime, err)
			return
		}

		common.RespondSuccess(w, initTime, "Batch fetched", job)
	}
}

// SubmitOCRHandler handles POST /api/v1/batches/{job_id}/ocr
//
// @Summary      Run OCR on a student's assignment image
// @Description  Recognizes the uploaded image, retrying once before marking the student failed.
// @Tags         Batches
// @Accept       json
// @Produce      json
// @Param        input  body  dtos.SubmitOCRReq  true  "Image payload"
// @Success      200  {object}  dtos.APIResponse
// @Failure      502  {object}  dtos.APIResponse  "OCR failed after retry"
// @Router       /api/v1/batches/{job_id}/ocr [post]
func SubmitOCRHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		claims := auth.GetUserClaims(r.Context())
		if claims == nil {
			common.RespondError(w, initTime, nil, "Unauthorized: missing claims", http.StatusUnauthorized)
			return
		}

		var req dtos.SubmitOCRReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.StudentID == "" || req.ImageURL == "" {
			common.RespondError(w, initTime, err, "Invalid OCR payload", http.StatusBadRequest)
			return
		}

		student, err := deps.Services.BatchPolish.SubmitOCR(r.Context(), chi.URLParam(r, "job_id"), claims.UserID(), req.StudentID, req.ImageURL)
		if err != nil {
			if errors.Is(err, repositories.ErrBatchNotFound) {
				respondBatchError(w, initTime, err)
				return
			}
			common.RespondError(w, initTime, err, "OCR failed", http.StatusBadGateway)
			return
		}

		common.RespondSuccess(w, initTime, "OCR completed", student)
	}
}

// ConfirmOCRHandler handles POST /api/v1/batches/{job_id}/ocr/confirm
// The teacher can correct the recognized text before sentence extraction.
func ConfirmOCRHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		claims := auth.GetUserClaims(r.Context())
		if claims == nil {
			common.RespondError(w, initTime, nil, "Unauthorized: missing claims", http.StatusUnauthorized)
			return
		}

		var req dtos.ConfirmOCRReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.StudentID == "" || req.Text == "" {
			common.RespondError(w, initTime, err, "Invalid confirmation payload", http.StatusBadRequest)
			return
		}

		if err := deps.Services.BatchPolish.ConfirmOCR(r.Context(), chi.URLParam(r, "job_id"), claims.UserID(), req.StudentID, req.Text); err != nil {
			respondBatchError(w, initTime, err)
			return
		}

		common.RespondSuccess(w, initTime, "OCR text confirmed", nil)
	}
}

// ExtractSentencesHandler handles POST /api/v1/batches/{job_id}/students/{student_id}/sentences
func ExtractSentencesHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		claims := auth.GetUserClaims(r.Context())
		if claims == nil {
			common.RespondError(w, initTime, nil, "Unauthorized: missing claims", http.StatusUnauthorized)
			return
		}

		sentences, err := deps.Services.BatchPolish.ExtractSentences(r.Context(), chi.URLParam(r, "job_id"), claims.UserID(), chi.URLParam(r, "student_id"))
		if err != nil {
			if errors.Is(err, services.ErrNoOCRText) {
				common.RespondError(w, initTime, err, "Student has no OCR text yet", http.StatusBadRequest)
				return
			}
			respondBatchError(w, initTime, err)
			return
		}

		common.RespondSuccess(w, initTime, "Sentences extracted", sentences)
	}
}

// MatchNamesHandler handles POST /api/v1/batches/{job_id}/match
func MatchNamesHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		claims := auth.GetUserClaims(r.Context())
		if claims == nil {
			common.RespondError(w, initTime, nil, "Unauthorized: missing claims", http.StatusUnauthorized)
			return
		}

		result, err := deps.Services.BatchPolish.MatchNames(r.Context(), chi.URLParam(r, "job_id"), claims.UserID())
		if err != nil {
			respondBatchError(w, initTime, err)
			return
		}

		common.RespondSuccess(w, initTime, "Names matched", result)
	}
}

// OverrideMatchHandler handles POST /api/v1/batches/{job_id}/match/override
func OverrideMatchHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		claims := auth.GetUserClaims(r.Context())
		if claims == nil {
			common.RespondError(w, initTime, nil, "Unauthorized: missing claims", http.StatusUnauthorized)
			return
		}

		var req dtos.OverrideMatchReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.StudentID == "" {
			common.RespondError(w, initTime, err, "Invalid override payload", http.StatusBadRequest)
			return
		}

		if err := deps.Services.BatchPolish.OverrideMatch(r.Context(), chi.URLParam(r, "job_id"), claims.UserID(), req.StudentID, req.Name); err != nil {
			respondBatchError(w, initTime, err)
			return
		}

		common.RespondSuccess(w, initTime, "Match overridden", nil)
	}
}

// StartPolishHandler handles POST /api/v1/batches/{job_id}/polish
//
// @Summary      Start polishing
// @Description  Charges the per-student cost and queues every pending sentence of the matched students.
// @Tags         Batches
// @Produce      json
// @Success      200  {object}  dtos.APIResponse
// @Failure      402  {object}  dtos.APIResponse  "Insufficient points"
// @Router       /api/v1/batches/{job_id}/polish [post]
func StartPolishHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		claims := auth.GetUserClaims(r.Context())
		if claims == nil {
			common.RespondError(w, initTime, nil, "Unauthorized: missing claims", http.StatusUnauthorized)
			return
		}

		job, err := deps.Services.BatchPolish.StartPolish(r.Context(), chi.URLParam(r, "job_id"), claims.UserID())
		if err != nil {
			switch {
			case errors.Is(err, services.ErrNoMatchedStudents):
				common.RespondError(w, initTime, err, "No matched students to polish", http.StatusBadRequest)
			case errors.Is(err, services.ErrPolishAlreadyStarted):
				common.RespondError(w, initTime, err, "Polish already started", http.StatusConflict)
			case errors.Is(err, repositories.ErrInsufficientPoints):
				common.RespondError(w, initTime, err, "Insufficient points", http.StatusPaymentRequired)
			default:
				respondBatchError(w, initTime, err)
			}
			return
		}

		common.RespondSuccess(w, initTime, "Polishing started", job)
	}
}

// RetryFailedHandler handles POST /api/v1/batches/{job_id}/retry
func RetryFailedHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		claims := auth.GetUserClaims(r.Context())
		if claims == nil {
			common.RespondError(w, initTime, nil, "Unauthorized: missing claims", http.StatusUnauthorized)
			return
		}

		if err := deps.Services.BatchPolish.RetryFailed(r.Context(), chi.URLParam(r, "job_id"), claims.UserID()); err != nil {
			if errors.Is(err, services.ErrNoFailedSentences) {
				common.RespondError(w, initTime, err, "No failed sentences to retry", http.StatusBadRequest)
				return
			}
			respondBatchError(w, initTime, err)
			return
		}

		common.RespondSuccess(w, initTime, "Retry queued", nil)
	}
}

// BatchResultsHandler handles GET /api/v1/batches/{job_id}/results
func BatchResultsHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		claims := auth.GetUserClaims(r.Context())
		if claims == nil {
			common.RespondError(w, initTime, nil, "Unauthorized: missing claims", http.StatusUnauthorized)
			return
		}

		summary, err := deps.Services.BatchPolish.Results(r.Context(), chi.URLParam(r, "job_id"), claims.UserID())
		if err != nil {
			respondBatchError(w, initTime, err)
			return
		}

		common.RespondSuccess(w, initTime, "Results fetched", summary)
	}
}

func respondBatchError(w http.ResponseWriter, initTime time.Time, err error) {
	if errors.Is(err, repositories.ErrBatchNotFound) {
		common.RespondError(w, initTime, err, "Batch not found", http.StatusNotFound)
		return
	}
	common.RespondError(w, initTime, err, "Batch operation failed", http.StatusInternalServerError)
}

func (h *Handlers) CreateBatch() http.HandlerFunc      { return CreateBatchHandler(h.deps) }
func (h *Handlers) GetBatch() http.HandlerFunc         { return GetBatchHandler(h.deps) }
func (h *Handlers) SubmitOCR() http.HandlerFunc        { return SubmitOCRHandler(h.deps) }
func (h *Handlers) ConfirmOCR() http.HandlerFunc       { return ConfirmOCRHandler(h.deps) }
func (h *Handlers) ExtractSentences() http.HandlerFunc { return ExtractSentencesHandler(h.deps) }
func (h *Handlers) MatchNames() http.HandlerFunc       { return MatchNamesHandler(h.deps) }
func (h *Handlers) OverrideMatch() http.HandlerFunc    { return OverrideMatchHandler(h.deps) }
func (h *Handlers) StartPolish() http.HandlerFunc      { return StartPolishHandler(h.deps) }
func (h *Handlers) RetryFailed() http.HandlerFunc      { return RetryFailedHandler(h.deps) }
func (h *Handlers) BatchResults() http.HandlerFunc     { return BatchResultsHandler(h.deps) }
