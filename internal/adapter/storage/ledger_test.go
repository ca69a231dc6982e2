package storage

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/po-watcher/internal/core/domain"
	"github.com/rl1809/po-watcher/internal/port"
)

func getMySQLDB(t *testing.T) *sql.DB {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		dsn = "root:root@tcp(localhost:3306)/powatcher?parseTime=true"
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Skipf("MySQL not available: %v", err)
	}

	return db
}

func newSQLiteLedger(t *testing.T) *SQLiteLedger {
	t.Helper()
	l, err := OpenSQLiteLedger(context.Background(), filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func outcome(messageID string, status domain.OutcomeStatus) domain.MessageOutcome {
	return domain.MessageOutcome{
		RunID:       uuid.NewString(),
		MessageID:   messageID,
		Subject:     "Purchase Order " + messageID,
		Status:      status,
		ItemCount:   3,
		FailedItems: 1,
		OrderID:     "po-" + messageID,
		ProcessedAt: time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC),
	}
}

// exerciseLedger runs the same checks against any ledger implementation.
// Message ids carry a unique prefix so a shared MySQL database does not
// interfere.
func exerciseLedger(t *testing.T, ledger port.LedgerRepository, prefix string) {
	ctx := context.Background()

	missing, err := ledger.GetOutcome(ctx, prefix+"missing")
	require.NoError(t, err)
	assert.Nil(t, missing)

	first := outcome(prefix+"m-1", domain.OutcomeOrderFailed)
	first.Error = "purchase order create failed: status 400"
	require.NoError(t, ledger.RecordOutcome(ctx, first))
	require.NoError(t, ledger.RecordOutcome(ctx, outcome(prefix+"m-2", domain.OutcomeSkipped)))
	retry := outcome(prefix+"m-1", domain.OutcomeOrdered)
	require.NoError(t, ledger.RecordOutcome(ctx, retry))

	got, err := ledger.GetOutcome(ctx, prefix+"m-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, retry.RunID, got.RunID)
	assert.Equal(t, domain.OutcomeOrdered, got.Status)
	assert.Equal(t, 3, got.ItemCount)
	assert.Equal(t, 1, got.FailedItems)
	assert.Equal(t, "po-"+prefix+"m-1", got.OrderID)
	assert.True(t, got.ProcessedAt.Equal(retry.ProcessedAt), "processed_at %v", got.ProcessedAt)

	recent, err := ledger.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, retry.RunID, recent[0].RunID)
	assert.Equal(t, prefix+"m-2", recent[1].MessageID)
}

func TestSQLiteLedger(t *testing.T) {
	exerciseLedger(t, newSQLiteLedger(t), "")
}

func TestSQLiteLedger_ErrorTextRoundTrips(t *testing.T) {
	ledger := newSQLiteLedger(t)
	ctx := context.Background()

	o := outcome("m-9", domain.OutcomeParseFailed)
	o.Error = "line 1: field line before any item line"
	require.NoError(t, ledger.RecordOutcome(ctx, o))

	got, err := ledger.GetOutcome(ctx, "m-9")
	require.NoError(t, err)
	assert.Equal(t, o.Error, got.Error)
	assert.Equal(t, domain.OutcomeParseFailed, got.Status)
}

func TestSQLiteLedger_ReopenKeepsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	ctx := context.Background()

	l, err := OpenSQLiteLedger(ctx, path)
	require.NoError(t, err)
	require.NoError(t, l.RecordOutcome(ctx, outcome("m-1", domain.OutcomeOrdered)))
	require.NoError(t, l.Close())

	l, err = OpenSQLiteLedger(ctx, path)
	require.NoError(t, err)
	defer l.Close()

	got, err := l.GetOutcome(ctx, "m-1")
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestMySQLLedger(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	ledger := NewMySQLLedger(db)
	require.NoError(t, ledger.Migrate(ctx))

	prefix := "test-" + uuid.NewString()[:8] + "-"
	// Cleanup
	defer db.ExecContext(ctx, `DELETE FROM message_outcomes WHERE message_id LIKE ?`, prefix+"%")

	scoped := &prefixedLedger{MySQLLedger: ledger, prefix: prefix}
	exerciseLedger(t, scoped, prefix)
}

// prefixedLedger scopes ListRecent to one test run so rows left by other
// runs in a shared database do not show up.
type prefixedLedger struct {
	*MySQLLedger
	prefix string
}

func (p *prefixedLedger) ListRecent(ctx context.Context, limit int) ([]domain.MessageOutcome, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT `+outcomeColumns+`
		FROM message_outcomes WHERE message_id LIKE ?
		ORDER BY id DESC LIMIT ?`, p.prefix+"%", limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var outcomes []domain.MessageOutcome
	for rows.Next() {
		o, err := scanOutcome(rows)
		if err != nil {
			return nil, err
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}
