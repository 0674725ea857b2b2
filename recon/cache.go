package recon

import (
	"time"

	"github.com/iamlouk/lrucache"
)

// identCache interns identifier text parsed out of Recon input. WARP
// traffic re-sends the same handful of attribute tags and header keys
// (sync, linked, node, lane, ...) on every envelope; interning keeps the
// parser from allocating a fresh string for each occurrence.
//
// identEntryTTL is deliberately long rather than zero: lrucache treats a
// zero TTL as "expires immediately," which would turn every cache hit back
// into a recompute.
const identEntryTTL = 24 * time.Hour

var identCache = lrucache.New(1 << 20)

func internIdent(s string) Text {
	v := identCache.Get(s, func() (interface{}, time.Duration, int) {
		return Text(s), identEntryTTL, len(s)
	})
	return v.(Text)
}
