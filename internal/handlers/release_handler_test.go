package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/medledger/consent-ledger-api/internal/crypto"
	"github.com/medledger/consent-ledger-api/internal/models"
	"github.com/medledger/consent-ledger-api/internal/service"
	"github.com/medledger/consent-ledger-api/internal/service/mocks"
)

func newGrantedFileRouter(t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	sealKey := bytes.Repeat([]byte{0x2a}, 32)
	sealed, err := crypto.Encrypt([]byte("relayed file contents"), sealKey)
	require.NoError(t, err)

	approvedTime := int64(1700000100000)
	digest := "digest-abc"
	request := &models.AccessRequest{
		RequestID:          "REQ-1",
		RequesterID:        "clinic-42",
		OwnerID:            "patient-7",
		Categories:         models.StringSlice{"lab-results"},
		Status:             models.StatusApproved,
		CreatedTime:        1700000000000,
		ApprovedTime:       &approvedTime,
		PrivateProofDigest: &digest,
	}

	store := &mocks.MockAccessRequestStore{}
	store.On("GetByID", mock.Anything, "REQ-1").Return(request, nil)

	payloads := &mocks.MockGrantedPayloadStore{}
	payloads.On("Get", mock.Anything, "REQ-1", "labs.pdf").Return(&models.GrantedPayload{
		RequestID: "REQ-1",
		FileRef:   "labs.pdf",
		Payload:   sealed,
	}, nil)

	relayService := service.NewGrantRelayService(store, payloads, sealKey, logger)
	handler := NewReleaseHandler(nil, relayService)

	router := gin.New()
	router.GET("/access/view-granted-file", handler.ViewGrantedFile)
	return router
}

// TestViewGrantedFile_RequesterIdQueryParam tests that the pull
// endpoint accepts its documented requesterId query parameter
func TestViewGrantedFile_RequesterIdQueryParam(t *testing.T) {
	router := newGrantedFileRouter(t)

	query := url.Values{
		"requestId":   {"REQ-1"},
		"fileRef":     {"labs.pdf"},
		"requesterId": {"clinic-42"},
	}
	req := httptest.NewRequest(http.MethodGet, "/access/view-granted-file?"+query.Encode(), nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	var resp models.GrantedFileResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.Equal(t, "relayed file contents", resp.Payload)
}

// TestViewGrantedFile_MissingRequesterIdIsBadRequest tests that the
// handler names the missing parameter
func TestViewGrantedFile_MissingRequesterIdIsBadRequest(t *testing.T) {
	router := newGrantedFileRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/access/view-granted-file?requestId=REQ-1&fileRef=labs.pdf", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "requesterId")
}
