package goals

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockArchive(t *testing.T) (*PostgresArchive, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresArchive(db), mock
}

func TestArchiveEnsureSchema(t *testing.T) {
	archive, mock := newMockArchive(t)
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS goal_events")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := archive.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestArchiveRecordUpsertsGoal(t *testing.T) {
	archive, mock := newMockArchive(t)
	goal := NewQuery(sampleSnapshot(), sampleGoal(), time.Date(2024, 5, 4, 15, 23, 0, 0, time.UTC))

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO goal_events")).
		WithArgs(goal.ID, goal.EventID, goal.Order, goal.Minute, goal.Home, goal.Away,
			goal.Scoreline, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := archive.Record(context.Background(), goal); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestArchiveResolve(t *testing.T) {
	archive, mock := newMockArchive(t)
	at := time.Date(2024, 5, 4, 15, 30, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE goal_events SET outcome")).
		WithArgs("evt-1:3", "found", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE goal_events SET outcome")).
		WillReturnError(errors.New("connection reset"))

	if err := archive.Resolve(context.Background(), "evt-1:3", "found", "https://clips/1", at); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if err := archive.Resolve(context.Background(), "evt-1:4", "expired", "", at); err == nil {
		t.Fatalf("expected error to propagate")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
