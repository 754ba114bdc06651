package metrics

import "context"

// Failure reasons reported through Recorder.Failed.
const (
	ReasonInvalidPayload = "invalid_payload"
	ReasonStoreFailed    = "store_failed"
	ReasonNotifyFailed   = "notify_failed"
)

// Recorder counts order submissions. Flush publishes anything buffered since
// the previous call and is invoked once per request.
type Recorder interface {
	Submitted()
	Failed(reason string)
	Flush(ctx context.Context)
}

// Nop discards everything.
type Nop struct{}

func (Nop) Submitted()            {}
func (Nop) Failed(string)         {}
func (Nop) Flush(context.Context) {}
