package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signetflow/signet-api/internal/models"
)

func TestCreateDocumentDefaults(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	mock.ExpectExec("INSERT INTO documents").WillReturnResult(sqlmock.NewResult(1, 1))

	doc := &models.Document{OwnerID: "owner-1", Filename: "contract.pdf", FilePath: "abc.pdf", PageCount: 3}
	err := repo.Create(context.Background(), doc)
	require.NoError(t, err)
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, models.DocumentStatusDraft, doc.Status)
	assert.False(t, doc.UploadedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetDocumentByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "owner_id", "filename", "file_path", "page_count", "signed_file", "status", "uploaded_at"}).
		AddRow("doc-1", "owner-1", "contract.pdf", "abc.pdf", 3, nil, string(models.DocumentStatusDraft), now)
	mock.ExpectQuery("SELECT (.+) FROM documents WHERE id").
		WithArgs("doc-1").
		WillReturnRows(rows)

	doc, err := repo.GetByID(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "contract.pdf", doc.Filename)
	assert.Nil(t, doc.SignedFile)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByOwner(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "owner_id", "filename", "file_path", "page_count", "signed_file", "status", "uploaded_at"}).
		AddRow("doc-2", "owner-1", "nda.pdf", "def.pdf", 1, nil, string(models.DocumentStatusPending), now).
		AddRow("doc-1", "owner-1", "contract.pdf", "abc.pdf", 3, nil, string(models.DocumentStatusDraft), now.Add(-time.Hour))
	mock.ExpectQuery("SELECT (.+) FROM documents WHERE owner_id").
		WithArgs("owner-1").
		WillReturnRows(rows)

	docs, err := repo.ListByOwner(context.Background(), "owner-1")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "doc-2", docs[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	mock.ExpectExec("UPDATE documents SET status").
		WithArgs("doc-1", string(models.DocumentStatusRejected)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SetStatus(context.Background(), "doc-1", models.DocumentStatusRejected)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
