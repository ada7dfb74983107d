package writer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/TheBeardedParaTrooper/LiveBuyNow/internal/analytics/types"
	pkgbigquery "github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/bigquery"
)

const (
	defaultMaxAttempts    = 3
	defaultInitialBackoff = 250 * time.Millisecond
	defaultMaximumBackoff = 2 * time.Second
)

// Config controls the analytics writer behavior.
type Config struct {
	PaymentsTable string
	RetryPolicy   RetryPolicy
}

// RetryPolicy controls how many times BigQuery inserts are retried.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaximumBackoff time.Duration
}

type tableInserter interface {
	InsertRows(ctx context.Context, table string, rows []any) error
}

// BigQueryWriter inserts payment event rows with bounded retries. Rows are
// written one at a time so a message is only acked once its row is stored.
type BigQueryWriter struct {
	client tableInserter
	table  string
	retry  RetryPolicy
	sleep  func(ctx context.Context, d time.Duration) error
}

// New creates a writer backed by the shared BigQuery client.
func New(client tableInserter, cfg Config) (*BigQueryWriter, error) {
	if client == nil {
		return nil, errors.New("bigquery client required")
	}
	table := strings.TrimSpace(cfg.PaymentsTable)
	if table == "" {
		return nil, errors.New("payments table is required")
	}

	retry := cfg.RetryPolicy
	if retry.MaxAttempts <= 0 {
		retry.MaxAttempts = defaultMaxAttempts
	}
	if retry.InitialBackoff <= 0 {
		retry.InitialBackoff = defaultInitialBackoff
	}
	if retry.MaximumBackoff <= 0 {
		retry.MaximumBackoff = defaultMaximumBackoff
	}
	if retry.MaximumBackoff < retry.InitialBackoff {
		retry.MaximumBackoff = retry.InitialBackoff
	}

	return &BigQueryWriter{
		client: client,
		table:  table,
		retry:  retry,
		sleep:  sleepCtx,
	}, nil
}

// InsertPaymentEvent writes one payment_events row.
func (w *BigQueryWriter) InsertPaymentEvent(ctx context.Context, row types.PaymentEventRow) error {
	return w.insertWithRetry(ctx, []any{&row})
}

func (w *BigQueryWriter) insertWithRetry(ctx context.Context, rows []any) error {
	attempts := 0
	backoff := w.retry.InitialBackoff

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := w.client.InsertRows(ctx, w.table, rows)
		if err == nil {
			return nil
		}

		attempts++
		if attempts >= w.retry.MaxAttempts || !isRetryable(err) {
			return fmt.Errorf("insert %s rows: %w", w.table, err)
		}
		if err := w.sleep(ctx, backoff); err != nil {
			return err
		}
		backoff = min(backoff*2, w.retry.MaximumBackoff)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func isRetryable(err error) bool {
	if pkgbigquery.IsRetryable(err) {
		return true
	}
	var statusErr interface{ GRPCStatus() *status.Status }
	if errors.As(err, &statusErr) {
		if st := statusErr.GRPCStatus(); st != nil {
			switch st.Code() {
			case codes.Aborted, codes.DeadlineExceeded, codes.Internal, codes.ResourceExhausted, codes.Unavailable:
				return true
			}
		}
	}
	return false
}
