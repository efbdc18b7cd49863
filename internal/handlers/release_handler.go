package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/medledger/consent-ledger-api/internal/models"
	"github.com/medledger/consent-ledger-api/internal/service"
	"github.com/medledger/consent-ledger-api/internal/utils"
)

// ReleaseHandler handles record release and the granted file relay
type ReleaseHandler struct {
	releaseService *service.ReleaseService
	relayService   *service.GrantRelayService
}

// NewReleaseHandler creates a new release handler instance
func NewReleaseHandler(releaseService *service.ReleaseService, relayService *service.GrantRelayService) *ReleaseHandler {
	return &ReleaseHandler{
		releaseService: releaseService,
		relayService:   relayService,
	}
}

// Release handles POST /access/release
func (h *ReleaseHandler) Release(c *gin.Context) {
	var request models.ReleaseRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.SendBadRequestError(c, "Invalid request body", err.Error())
		return
	}

	response, err := h.releaseService.Release(c.Request.Context(), request.RequestID, request.RequesterID)
	if err != nil {
		if verr, ok := service.AsVerificationError(err); ok {
			utils.SendVerificationFailedError(c, verr.Reason)
			return
		}
		switch {
		case errors.Is(err, service.ErrNotFound):
			utils.SendNotFoundError(c, "Access request not found")
		case errors.Is(err, service.ErrForbidden):
			utils.SendForbiddenError(c, "Request is not approved for this requester")
		default:
			utils.SendInternalServerError(c, "Failed to release record", err.Error())
		}
		return
	}

	utils.SendOKResponse(c, response)
}

// GrantFile handles POST /access/grant-file
func (h *ReleaseHandler) GrantFile(c *gin.Context) {
	var request models.GrantFileRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.SendBadRequestError(c, "Invalid request body", err.Error())
		return
	}

	response, err := h.relayService.GrantFile(c.Request.Context(), &request)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrUnauthorized):
			utils.SendNotFoundError(c, "Access request not found")
		case errors.Is(err, service.ErrInvalidTransition):
			utils.SendInvalidTransitionError(c, "Request is not approved")
		default:
			utils.SendInternalServerError(c, "Failed to store granted file", err.Error())
		}
		return
	}

	utils.SendOKResponse(c, response)
}

// ViewGrantedFile handles GET /access/view-granted-file
func (h *ReleaseHandler) ViewGrantedFile(c *gin.Context) {
	requestID := c.Query("requestId")
	fileRef := c.Query("fileRef")
	requesterID := c.Query("requesterId")
	if requestID == "" || fileRef == "" || requesterID == "" {
		utils.SendBadRequestError(c, "Invalid request", "requestId, fileRef and requesterId query parameters are required")
		return
	}

	response, err := h.relayService.ViewGrantedFile(c.Request.Context(), requestID, fileRef, requesterID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			utils.SendNotFoundError(c, "Granted file not found")
		case errors.Is(err, service.ErrForbidden):
			utils.SendForbiddenError(c, "Request is not approved for this requester")
		default:
			utils.SendInternalServerError(c, "Failed to retrieve granted file", err.Error())
		}
		return
	}

	utils.SendOKResponse(c, response)
}
