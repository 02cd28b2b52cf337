package service

import (
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
)

// NewInvoiceNumber mints a sortable, globally unique invoice number.
func NewInvoiceNumber(now time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return "INV-" + ulid.MustNew(ulid.Timestamp(now), entropy).String()
}
