package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signetflow/signet-api/internal/models"
	appErrors "github.com/signetflow/signet-api/pkg/errors"
	"github.com/signetflow/signet-api/pkg/pdfkit"
)

type fakeFinalizeSignatureStore struct {
	sigs       []models.Signature
	listErr    error
	marked     bool
	signedFile string
}

func (f *fakeFinalizeSignatureStore) ListByFileAndStatuses(context.Context, string, ...models.SignatureStatus) ([]models.Signature, error) {
	return f.sigs, f.listErr
}

func (f *fakeFinalizeSignatureStore) MarkSignedAndFlagDocument(_ context.Context, _, signedFile string, _ time.Time) error {
	f.marked = true
	f.signedFile = signedFile
	return nil
}

type fakeFileReader struct {
	data []byte
	err  error
}

func (f *fakeFileReader) Read(string) ([]byte, error) { return f.data, f.err }

type fakeArtifactWriter struct {
	saved []byte
	name  string
	err   error
}

func (f *fakeArtifactWriter) SaveUnique(filename string, data []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.name = filename
	f.saved = data
	return filename, nil
}

func TestFinalizeUnknownDocument(t *testing.T) {
	svc := NewFinalizeService(&fakeDocumentStore{err: sql.ErrNoRows},
		&fakeFinalizeSignatureStore{}, &fakeFileReader{}, &fakeArtifactWriter{}, nil, nil, 20, nil)

	_, err := svc.Finalize(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestFinalizeUnreadableSourceLeavesStateUntouched(t *testing.T) {
	sigs := &fakeFinalizeSignatureStore{}
	svc := NewFinalizeService(&fakeDocumentStore{doc: &models.Document{ID: "doc-1", FilePath: "abc.pdf"}},
		sigs, &fakeFileReader{err: errors.New("disk gone")}, &fakeArtifactWriter{}, nil, nil, 20, nil)

	_, err := svc.Finalize(context.Background(), "doc-1")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrIO))
	assert.False(t, sigs.marked, "no state transition on IO failure")
}

func TestFinalizeArtifactWriteFailureLeavesStateUntouched(t *testing.T) {
	sigs := &fakeFinalizeSignatureStore{}
	artifacts := &fakeArtifactWriter{err: errors.New("disk full")}
	svc := NewFinalizeService(&fakeDocumentStore{doc: &models.Document{ID: "doc-1", FilePath: "abc.pdf"}},
		sigs, &fakeFileReader{data: pdfFixture(t, 1)}, artifacts, nil, nil, 20, nil)

	_, err := svc.Finalize(context.Background(), "doc-1")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrIO))
	assert.False(t, sigs.marked, "no state transition when the artifact cannot be written")
}

func TestFinalizeWritesArtifactBeforeStateChange(t *testing.T) {
	sigs := &fakeFinalizeSignatureStore{}
	artifacts := &fakeArtifactWriter{}
	metrics := &fakeMetrics{}
	svc := NewFinalizeService(&fakeDocumentStore{doc: &models.Document{ID: "doc-1", FilePath: "abc.pdf"}},
		sigs, &fakeFileReader{data: pdfFixture(t, 2)}, artifacts, nil, metrics, 20, nil)

	result, err := svc.Finalize(context.Background(), "doc-1")
	require.NoError(t, err)

	assert.Regexp(t, `^signed-\d+\.pdf$`, artifacts.name)
	assert.NotEmpty(t, artifacts.saved)
	assert.True(t, sigs.marked)
	assert.Equal(t, "signed/"+artifacts.name, sigs.signedFile)
	assert.Equal(t, sigs.signedFile, result.SignedFile)
	assert.Equal(t, 0, result.Baked)
	assert.Equal(t, 0, result.Skipped)
}

// signatureFontLibrary builds a Library whose default font is backed by the
// committed test font, so bake tests need no external font assets.
func signatureFontLibrary(t *testing.T) *pdfkit.Library {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "DejaVuSansMono.ttf"))
	require.NoError(t, err)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "GreatVibes-Regular.ttf"), data, 0o644))
	lib, err := pdfkit.NewLibrary(dir, "Great Vibes", nil)
	require.NoError(t, err)
	return lib
}

func TestFinalizeBakesSignaturesIdempotently(t *testing.T) {
	lib := signatureFontLibrary(t)
	rw := 816.0
	sigs := &fakeFinalizeSignatureStore{sigs: []models.Signature{
		{
			ID: "sig-1", FileID: "doc-1", PageNumber: 1,
			XCoordinate: 100, YCoordinate: 950,
			RenderedPageWidth: &rw, RenderedPageHeight: 1056,
			SignatureText: "Jane Doe", Font: "Great Vibes",
			Status: models.SignatureStatusPending,
		},
		{
			// Page 3 of a one-page document.
			ID: "sig-2", FileID: "doc-1", PageNumber: 3,
			XCoordinate: 100, YCoordinate: 50, RenderedPageHeight: 1056,
			SignatureText: "Gone", Status: models.SignatureStatusPending,
		},
		{
			// Stored unity-scale placement past the right edge of a letter page.
			ID: "sig-3", FileID: "doc-1", PageNumber: 1,
			XCoordinate: 700, YCoordinate: 50, WidthScale: 1, HeightScale: 1,
			SignatureText: "Wide", Status: models.SignatureStatusPending,
		},
	}}

	source := pdfFixture(t, 1)
	baseline := 79.5 - lib.DefaultFont().AscentAt(20)
	wantTm := fmt.Sprintf("1 0 0 1 %f %f Tm", 75.0, baseline)
	matrixRe := regexp.MustCompile(`1 0 0 1 [0-9.]+ [0-9.]+ Tm`)

	var matrices [][]string
	for run := 0; run < 2; run++ {
		artifacts := &fakeArtifactWriter{}
		svc := NewFinalizeService(&fakeDocumentStore{doc: &models.Document{ID: "doc-1", FilePath: "abc.pdf"}},
			sigs, &fakeFileReader{data: source}, artifacts, lib, nil, 20, nil)

		result, err := svc.Finalize(context.Background(), "doc-1")
		require.NoError(t, err)
		assert.Equal(t, 1, result.Baked)
		assert.Equal(t, 2, result.Skipped)
		assert.True(t, sigs.marked)

		assert.Contains(t, string(artifacts.saved), wantTm)
		matrices = append(matrices, matrixRe.FindAllString(string(artifacts.saved), -1))
	}

	// Every run starts from the pristine source, so the glyph positions in
	// the artifact are identical across repeated finalization.
	require.Len(t, matrices[0], 1)
	assert.Equal(t, matrices[0], matrices[1])
}

func TestDerivePlacementPrefersRawSnapshot(t *testing.T) {
	svc := NewFinalizeService(nil, nil, nil, nil, nil, nil, 20, nil)
	rw := 816.0
	sig := &models.Signature{
		XCoordinate:        100,
		YCoordinate:        950,
		RenderedPageWidth:  &rw,
		RenderedPageHeight: 1056,
		// Deliberately wrong cached values: the snapshot must win.
		WidthScale:  2,
		HeightScale: 2,
	}

	p, err := svc.derivePlacement(sig, pdfkit.PageSpace{Width: 612, Height: 792})
	require.NoError(t, err)
	assert.InDelta(t, 75.0, p.PDFX, 1e-9)
	assert.InDelta(t, 79.5, p.PDFY, 1e-9)
}

func TestDerivePlacementFallsBackToStoredScales(t *testing.T) {
	svc := NewFinalizeService(nil, nil, nil, nil, nil, nil, 20, nil)
	sig := &models.Signature{
		XCoordinate: 100,
		YCoordinate: 950,
		WidthScale:  0.75,
		HeightScale: 0.75,
	}

	p, err := svc.derivePlacement(sig, pdfkit.PageSpace{Width: 612, Height: 792})
	require.NoError(t, err)
	assert.InDelta(t, 75.0, p.PDFX, 1e-9)
	assert.InDelta(t, 79.5, p.PDFY, 1e-9)
}

func TestDerivePlacementUnityScaleWithoutAnySnapshot(t *testing.T) {
	svc := NewFinalizeService(nil, nil, nil, nil, nil, nil, 20, nil)
	sig := &models.Signature{XCoordinate: 100, YCoordinate: 700}

	p, err := svc.derivePlacement(sig, pdfkit.PageSpace{Width: 612, Height: 792})
	require.NoError(t, err)
	assert.InDelta(t, 100.0, p.PDFX, 1e-9)
	assert.InDelta(t, 92.0, p.PDFY, 1e-9)
}

func TestDerivePlacementDetectsDrift(t *testing.T) {
	svc := NewFinalizeService(nil, nil, nil, nil, nil, nil, 20, nil)
	sig := &models.Signature{
		XCoordinate:        800,
		YCoordinate:        950,
		RenderedPageHeight: 1056,
	}

	// Height-only snapshot assumes uniform zoom, so the same click that fit
	// a letter page no longer fits a narrower one.
	_, err := svc.derivePlacement(sig, pdfkit.PageSpace{Width: 300, Height: 792})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrOutOfBounds))
}
