package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/antigravity/cryptohunter/internal/domain"
)

// LedgerArchiver implements domain.LedgerArchiver by serializing the trade
// history to JSONL and uploading one snapshot object per day. Archival never
// deletes anything from the primary store; the upload is a cold copy.
type LedgerArchiver struct {
	writer *Writer

	now func() time.Time
}

// NewLedgerArchiver creates a LedgerArchiver uploading through w.
func NewLedgerArchiver(w *Writer) *LedgerArchiver {
	return &LedgerArchiver{
		writer: w,
		now:    time.Now,
	}
}

// SetNow replaces the clock used for snapshot naming.
func (a *LedgerArchiver) SetNow(f func() time.Time) { a.now = f }

// ArchiveTrades uploads the full trade history as JSONL to
// archive/ledger/YYYY-MM-DD.jsonl and returns the object key. Empty history
// uploads nothing.
func (a *LedgerArchiver) ArchiveTrades(ctx context.Context, trades []domain.SimulatedTrade) (string, error) {
	if len(trades) == 0 {
		return "", nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i, t := range trades {
		if err := enc.Encode(t); err != nil {
			return "", fmt.Errorf("s3blob: marshal trade %d: %w", i, err)
		}
	}

	key := fmt.Sprintf("archive/ledger/%s.jsonl", a.now().UTC().Format("2006-01-02"))
	if err := a.writer.Put(ctx, key, &buf, "application/x-ndjson"); err != nil {
		return "", fmt.Errorf("s3blob: archive ledger: %w", err)
	}
	return key, nil
}

// Compile-time interface check.
var _ domain.LedgerArchiver = (*LedgerArchiver)(nil)
