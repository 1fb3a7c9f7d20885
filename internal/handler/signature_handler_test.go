package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signetflow/signet-api/internal/dto"
	"github.com/signetflow/signet-api/internal/middleware"
	"github.com/signetflow/signet-api/internal/models"
	appErrors "github.com/signetflow/signet-api/pkg/errors"
	"github.com/signetflow/signet-api/pkg/pdfkit"
)

type responseEnvelope struct {
	Data  map[string]interface{} `json:"data"`
	Error map[string]interface{} `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

type fakePlacementSrv struct {
	result     *dto.PlacementResult
	err        error
	lastSigner string
	lastIP     string
}

func (f *fakePlacementSrv) Place(_ context.Context, _ dto.PlaceSignatureRequest, signerID, ipAddress string) (*dto.PlacementResult, error) {
	f.lastSigner = signerID
	f.lastIP = ipAddress
	return f.result, f.err
}

type fakeFinalizeSrv struct {
	result *dto.FinalizeResult
	err    error
	fileID string
}

func (f *fakeFinalizeSrv) Finalize(_ context.Context, fileID string) (*dto.FinalizeResult, error) {
	f.fileID = fileID
	return f.result, f.err
}

type fakeLifecycleSrv struct {
	sig       *models.Signature
	err       error
	removed   string
	requester string
	cleared   int64
	entries   []models.AuditEntry
	pending   []models.Signature
}

func (f *fakeLifecycleSrv) Accept(context.Context, string) (*models.Signature, error) {
	return f.sig, f.err
}

func (f *fakeLifecycleSrv) Reject(context.Context, string, string) (*models.Signature, error) {
	return f.sig, f.err
}

func (f *fakeLifecycleSrv) Remove(_ context.Context, signatureID, requesterID string) error {
	f.removed = signatureID
	f.requester = requesterID
	return f.err
}

func (f *fakeLifecycleSrv) ClearAll(context.Context, string, string) (int64, error) {
	return f.cleared, f.err
}

func (f *fakeLifecycleSrv) PendingForFile(context.Context, string) ([]models.Signature, error) {
	return f.pending, f.err
}

func (f *fakeLifecycleSrv) AuditTrail(context.Context, string) ([]models.AuditEntry, error) {
	return f.entries, f.err
}

func authedContext(t *testing.T, method, target, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
		c.Request = httptest.NewRequest(method, target, reader)
		c.Request.Header.Set("Content-Type", "application/json")
	} else {
		c.Request = httptest.NewRequest(method, target, nil)
	}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "signer-1"})
	return c, rec
}

func TestPlaceReturnsPlacementResult(t *testing.T) {
	placement := &fakePlacementSrv{result: &dto.PlacementResult{
		SignatureID:    "sig-1",
		PDFCoordinates: dto.Coordinates{X: 75, Y: 79.5},
	}}
	h := NewSignatureHandler(placement, &fakeFinalizeSrv{}, &fakeLifecycleSrv{})

	body := `{"fileId":"doc-1","pageNumber":1,"xCoordinate":100,"yCoordinate":950,"signature":"Jane Doe","renderedPageHeight":1056,"renderedPageWidth":816}`
	c, rec := authedContext(t, http.MethodPost, "/signature/place", body)

	h.Place(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "signer-1", placement.lastSigner)

	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "sig-1", envelope.Data["signatureId"])
}

func TestPlaceRejectsMalformedJSON(t *testing.T) {
	h := NewSignatureHandler(&fakePlacementSrv{}, &fakeFinalizeSrv{}, &fakeLifecycleSrv{})

	c, rec := authedContext(t, http.MethodPost, "/signature/place", "{not json")
	h.Place(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlaceWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewSignatureHandler(&fakePlacementSrv{}, &fakeFinalizeSrv{}, &fakeLifecycleSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/signature/place", strings.NewReader(`{"fileId":"doc-1"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Place(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPlaceSurfacesOutOfBounds(t *testing.T) {
	placement := &fakePlacementSrv{err: pdfkit.NewBoundsError(900, 50, pdfkit.PageSpace{Width: 612, Height: 792})}
	h := NewSignatureHandler(placement, &fakeFinalizeSrv{}, &fakeLifecycleSrv{})

	body := `{"fileId":"doc-1","pageNumber":1,"xCoordinate":1200,"yCoordinate":50,"signature":"Jane Doe","renderedPageHeight":1056}`
	c, rec := authedContext(t, http.MethodPost, "/signature/place", body)

	h.Place(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "OUT_OF_BOUNDS", envelope.Error["code"])

	bounds, ok := envelope.Meta["bounds"].(map[string]interface{})
	require.True(t, ok, "bounds detail travels in meta")
	assert.Equal(t, float64(900), bounds["x"])
	assert.Equal(t, float64(612), bounds["pageWidth"])
	assert.Equal(t, float64(792), bounds["pageHeight"])
}

func TestFinalizeRequiresFileID(t *testing.T) {
	h := NewSignatureHandler(&fakePlacementSrv{}, &fakeFinalizeSrv{}, &fakeLifecycleSrv{})

	c, rec := authedContext(t, http.MethodPost, "/signature/finalize", `{}`)
	h.Finalize(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFinalizeReturnsArtifact(t *testing.T) {
	finalize := &fakeFinalizeSrv{result: &dto.FinalizeResult{SignedFile: "signed/signed-1700000000000.pdf", Baked: 2}}
	h := NewSignatureHandler(&fakePlacementSrv{}, finalize, &fakeLifecycleSrv{})

	c, rec := authedContext(t, http.MethodPost, "/signature/finalize", `{"fileId":"doc-1"}`)
	h.Finalize(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "doc-1", finalize.fileID)

	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "signed/signed-1700000000000.pdf", envelope.Data["signedFile"])
	assert.Equal(t, float64(2), envelope.Data["baked"])
}

func TestRemovePassesRequester(t *testing.T) {
	lifecycle := &fakeLifecycleSrv{}
	h := NewSignatureHandler(&fakePlacementSrv{}, &fakeFinalizeSrv{}, lifecycle)

	c, rec := authedContext(t, http.MethodDelete, "/signature/remove/sig-9", "")
	c.Params = gin.Params{{Key: "signatureId", Value: "sig-9"}}
	h.Remove(c)

	// c.Status alone does not reach the recorder outside a full request
	// cycle, so flush the deferred header before asserting on rec.
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "sig-9", lifecycle.removed)
	assert.Equal(t, "signer-1", lifecycle.requester)
}

func TestRemoveForbidden(t *testing.T) {
	lifecycle := &fakeLifecycleSrv{err: appErrors.Clone(appErrors.ErrForbidden, "signature belongs to another signer")}
	h := NewSignatureHandler(&fakePlacementSrv{}, &fakeFinalizeSrv{}, lifecycle)

	c, rec := authedContext(t, http.MethodDelete, "/signature/remove/sig-9", "")
	c.Params = gin.Params{{Key: "signatureId", Value: "sig-9"}}
	h.Remove(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestClearReturnsCount(t *testing.T) {
	lifecycle := &fakeLifecycleSrv{cleared: 4}
	h := NewSignatureHandler(&fakePlacementSrv{}, &fakeFinalizeSrv{}, lifecycle)

	c, rec := authedContext(t, http.MethodDelete, "/signature/clear-signatures", `{"fileId":"doc-1"}`)
	h.Clear(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, float64(4), envelope.Data["removed"])
}

func TestAuditServesPDFWhenRequested(t *testing.T) {
	lifecycle := &fakeLifecycleSrv{entries: []models.AuditEntry{{SignatureID: "sig-1", SignerID: "signer-1", Status: models.SignatureStatusSigned}}}
	h := NewSignatureHandler(&fakePlacementSrv{}, &fakeFinalizeSrv{}, lifecycle)

	c, rec := authedContext(t, http.MethodGet, "/signature/audit/doc-1?format=pdf", "")
	c.Params = gin.Params{{Key: "fileId", Value: "doc-1"}}
	h.Audit(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))
}

func TestAuditDefaultsToJSON(t *testing.T) {
	lifecycle := &fakeLifecycleSrv{entries: []models.AuditEntry{{SignatureID: "sig-1"}}}
	h := NewSignatureHandler(&fakePlacementSrv{}, &fakeFinalizeSrv{}, lifecycle)

	c, rec := authedContext(t, http.MethodGet, "/signature/audit/doc-1", "")
	c.Params = gin.Params{{Key: "fileId", Value: "doc-1"}}
	h.Audit(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
}
