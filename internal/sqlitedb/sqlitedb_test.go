package sqlitedb

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

const testSchema = `
CREATE TABLE schema_version (version INTEGER NOT NULL);
CREATE TABLE notes (id INTEGER PRIMARY KEY, body TEXT NOT NULL);
`

func TestOpenCreatesSchemaAndReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "test.db")
	schema := Schema{Name: "test", SQL: testSchema, Version: 1}

	db, err := Open(context.Background(), path, schema)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := Exec(context.Background(), db, "INSERT INTO notes (body) VALUES (?)", "hello"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	db, err = Open(context.Background(), path, schema)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM notes").Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 row after reopen, got %d", count)
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(context.Background(), path, Schema{Name: "test", SQL: testSchema, Version: 1})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_ = db.Close()

	_, err = Open(context.Background(), path, Schema{Name: "test", SQL: testSchema, Version: 2})
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

type codeErr int

func (c codeErr) Error() string { return "sqlite error" }
func (c codeErr) Code() int     { return int(c) }

func TestIsBusy(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{codeErr(5), true},
		{codeErr(1), false},
		{errors.New("database is locked"), true},
		{errors.New("SQLITE_BUSY: retry"), true},
		{errors.New("no such table"), false},
	}
	for _, tc := range tests {
		if got := IsBusy(tc.err); got != tc.want {
			t.Fatalf("IsBusy(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestRetryOnBusyStopsOnOtherErrors(t *testing.T) {
	calls := 0
	err := RetryOnBusy(context.Background(), func() error {
		calls++
		if calls < 3 {
			return codeErr(5)
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("expected success after 3 calls, got err=%v calls=%d", err, calls)
	}

	calls = 0
	boom := errors.New("boom")
	if err := RetryOnBusy(context.Background(), func() error { calls++; return boom }); !errors.Is(err, boom) || calls != 1 {
		t.Fatalf("expected single call returning boom, got err=%v calls=%d", err, calls)
	}
}

func TestTimeHelpers(t *testing.T) {
	if NullableTime(time.Time{}) != nil {
		t.Fatal("expected nil for zero time")
	}
	if NullableString("  ") != nil {
		t.Fatal("expected nil for blank string")
	}
	now := time.Date(2026, 3, 4, 5, 6, 7, 8, time.UTC)
	parsed, err := ParseTime(FormatTime(now))
	if err != nil || !parsed.Equal(now) {
		t.Fatalf("round trip failed: %v %v", parsed, err)
	}
	if zero, err := ParseTime(""); err != nil || !zero.IsZero() {
		t.Fatalf("expected zero time for blank input, got %v %v", zero, err)
	}
}
