package relational

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-kit/kit/log"

	"github.com/lamassuiot/ejbca-rest-gateway/pkg/audit"
)

func TestRecord(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	store := &relationalDB{db: db, logger: log.NewNopLogger()}

	entry := &audit.Entry{
		ID:        "a8098c1a-f86e-11da-bd1a-00112444be1e",
		Operation: "revokeCert",
		Subject:   "1a2b3c4d",
		Success:   true,
		Timestamp: time.Now().UTC(),
	}

	mock.ExpectQuery("INSERT INTO gateway_audit").
		WithArgs(entry.ID, entry.Operation, entry.Subject, entry.Success, entry.Message, entry.Timestamp).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(entry.ID))

	if err := store.Record(entry); err != nil {
		t.Fatalf("Unexpected error: %s", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %s", err)
	}
}

func TestRecordFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	store := &relationalDB{db: db, logger: log.NewNopLogger()}

	mock.ExpectQuery("INSERT INTO gateway_audit").
		WillReturnError(errors.New("connection reset"))

	entry := &audit.Entry{ID: "x", Operation: "editUser", Timestamp: time.Now()}
	if err := store.Record(entry); err == nil {
		t.Fatal("Expected error when the insert fails")
	}
}
