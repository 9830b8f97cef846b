package echocapture

import (
	"github.com/zircuit-labs/zkr-go-capture/capture"
)

// Listener receives lifecycle notifications for one exchange. Request-side
// callbacks fire from inside the capturer, so they fire whenever triggered,
// even mid-handler. Response-side callbacks fire only after the handler
// returns, and only when a response capturer was ever instantiated. Each
// fires at most once per exchange; a limit callback fires strictly before
// the matching completion callback.
type Listener interface {
	OnRequestBodyRead(req *capture.Request)
	OnRequestLimitReached(req *capture.Request)
	OnResponseBodyProduced(res *capture.ResponseWriter, req *capture.Request)
	OnResponseLimitReached(res *capture.ResponseWriter, req *capture.Request)
}

// NopListener implements Listener with no-ops. Embed it to override a subset.
type NopListener struct{}

func (NopListener) OnRequestBodyRead(*capture.Request)     {}
func (NopListener) OnRequestLimitReached(*capture.Request) {}

func (NopListener) OnResponseBodyProduced(*capture.ResponseWriter, *capture.Request) {}
func (NopListener) OnResponseLimitReached(*capture.ResponseWriter, *capture.Request) {}
