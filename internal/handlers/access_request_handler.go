package handlers

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/medledger/consent-ledger-api/internal/models"
	"github.com/medledger/consent-ledger-api/internal/service"
	"github.com/medledger/consent-ledger-api/internal/utils"
)

// AccessRequestHandler handles the access request lifecycle endpoints
type AccessRequestHandler struct {
	requestService  *service.AccessRequestService
	approvalService *service.ApprovalService
}

// NewAccessRequestHandler creates a new access request handler instance
func NewAccessRequestHandler(requestService *service.AccessRequestService, approvalService *service.ApprovalService) *AccessRequestHandler {
	return &AccessRequestHandler{
		requestService:  requestService,
		approvalService: approvalService,
	}
}

// CreateRequest handles POST /access/request
func (h *AccessRequestHandler) CreateRequest(c *gin.Context) {
	var request models.AccessRequestCreateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.SendBadRequestError(c, "Invalid request body", err.Error())
		return
	}

	response, err := h.requestService.CreateRequest(c.Request.Context(), &request)
	if err != nil {
		if errors.Is(err, service.ErrDuplicatePending) {
			utils.SendConflictError(c, "A pending request already exists for this requester and owner")
			return
		}
		if isValidationError(err) {
			utils.SendValidationError(c, err.Error())
			return
		}
		utils.SendInternalServerError(c, "Failed to create access request", err.Error())
		return
	}

	utils.SendOKResponse(c, response)
}

// ListPending handles GET /access/pending
func (h *AccessRequestHandler) ListPending(c *gin.Context) {
	ownerID := c.Query("owner")
	if ownerID == "" {
		utils.SendBadRequestError(c, "Invalid request", "owner query parameter is required")
		return
	}

	requests, err := h.requestService.ListPending(c.Request.Context(), ownerID)
	if err != nil {
		if isValidationError(err) {
			utils.SendValidationError(c, err.Error())
			return
		}
		utils.SendInternalServerError(c, "Failed to list pending requests", err.Error())
		return
	}

	utils.SendOKResponse(c, models.PendingRequestsResponse{Requests: requests})
}

// GetRequest handles GET /access/requests/:requestId
func (h *AccessRequestHandler) GetRequest(c *gin.Context) {
	requestID := c.Param("requestId")
	actorID := c.Query("actor")
	if actorID == "" {
		utils.SendBadRequestError(c, "Invalid request", "actor query parameter is required")
		return
	}

	request, err := h.requestService.GetRequest(c.Request.Context(), requestID, actorID)
	if err != nil {
		// An unauthorized actor learns nothing about the request's
		// existence.
		if errors.Is(err, service.ErrNotFound) || errors.Is(err, service.ErrUnauthorized) {
			utils.SendNotFoundError(c, "Access request not found")
			return
		}
		if isValidationError(err) {
			utils.SendValidationError(c, err.Error())
			return
		}
		utils.SendInternalServerError(c, "Failed to retrieve access request", err.Error())
		return
	}

	utils.SendOKResponse(c, request)
}

// Approve handles POST /access/approve
func (h *AccessRequestHandler) Approve(c *gin.Context) {
	var request models.AccessDecisionRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.SendBadRequestError(c, "Invalid request body", err.Error())
		return
	}

	response, err := h.approvalService.Approve(c.Request.Context(), request.RequestID, request.OwnerID)
	if err != nil {
		h.sendDecisionError(c, err, "approve")
		return
	}

	utils.SendOKResponse(c, response)
}

// Reject handles POST /access/reject
func (h *AccessRequestHandler) Reject(c *gin.Context) {
	var request models.AccessDecisionRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.SendBadRequestError(c, "Invalid request body", err.Error())
		return
	}

	response, err := h.requestService.Reject(c.Request.Context(), request.RequestID, request.OwnerID)
	if err != nil {
		h.sendDecisionError(c, err, "reject")
		return
	}

	utils.SendOKResponse(c, response)
}

// DeleteRequest handles DELETE /access/requests/:requestId
func (h *AccessRequestHandler) DeleteRequest(c *gin.Context) {
	requestID := c.Param("requestId")
	ownerID := c.Query("owner")
	if ownerID == "" {
		utils.SendBadRequestError(c, "Invalid request", "owner query parameter is required")
		return
	}

	if err := h.requestService.DeleteRequest(c.Request.Context(), requestID, ownerID); err != nil {
		h.sendDecisionError(c, err, "delete")
		return
	}

	utils.SendNoContentResponse(c)
}

// sendDecisionError maps service errors for owner decisions. A wrong
// owner gets the same 404 as a missing request.
func (h *AccessRequestHandler) sendDecisionError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrUnauthorized):
		utils.SendNotFoundError(c, "Access request not found")
	case errors.Is(err, service.ErrInvalidTransition):
		utils.SendInvalidTransitionError(c, "Request is not pending")
	default:
		utils.SendInternalServerError(c, "Failed to "+action+" access request", err.Error())
	}
}

// isValidationError matches the plain validation errors produced by
// pkg/utils validators.
func isValidationError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "required") ||
		strings.Contains(msg, "cannot be empty") ||
		strings.Contains(msg, "too long") ||
		strings.Contains(msg, "invalid") ||
		strings.Contains(msg, "exceeds maximum") ||
		strings.Contains(msg, "must not contain")
}
