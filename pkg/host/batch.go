package host

import (
	"context"
	"sync"

	"github.com/srediag/plugin-crypto/api"
	"github.com/srediag/plugin-crypto/pkg/keys"
)

// BatchVerifier collects independent verification jobs and runs them on the
// runtime's shared worker pool. Jobs are whole messages against public keys;
// the batch is an amortization construct, each entry still verifies on its
// own and failures are reported per entry.
type BatchVerifier struct {
	r *Runtime

	mu      sync.Mutex
	results []error
	wg      sync.WaitGroup
}

// NewBatchVerifier starts an empty batch. The batch shares the runtime's
// worker pool and must be finished with Verify before the runtime closes.
func (r *Runtime) NewBatchVerifier() *BatchVerifier {
	return &BatchVerifier{r: r}
}

// Add schedules one verification. msg and rawSig are copied, the caller may
// reuse its buffers immediately.
func (v *BatchVerifier) Add(pk keys.PublicKey, msg, rawSig []byte) {
	m := make([]byte, len(msg))
	copy(m, msg)
	s := make([]byte, len(rawSig))
	copy(s, rawSig)

	v.mu.Lock()
	idx := len(v.results)
	v.results = append(v.results, nil)
	v.mu.Unlock()

	v.wg.Add(1)
	job := func() {
		defer v.wg.Done()
		err := pk.Verify(m, s)
		v.mu.Lock()
		v.results[idx] = err
		v.mu.Unlock()
		v.r.metrics.recordVerify(context.Background(), err == nil)
	}
	if err := v.r.batchPool.Submit(job); err != nil {
		// Pool already released; fail the entry instead of losing it.
		v.mu.Lock()
		v.results[idx] = api.ErrClosed
		v.mu.Unlock()
		v.wg.Done()
	}
}

// AddError records a pre-failed entry, for callers that hit a decode error
// before the batch and still want positional results.
func (v *BatchVerifier) AddError(err error) {
	v.mu.Lock()
	v.results = append(v.results, err)
	v.mu.Unlock()
}

// Verify waits for all scheduled jobs and reports the outcome. The bool is
// true iff every entry verified; the slice has one error (or nil) per Add
// call in order.
func (v *BatchVerifier) Verify() (bool, []error) {
	v.wg.Wait()
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]error, len(v.results))
	copy(out, v.results)
	allOK := true
	for _, err := range out {
		if err != nil {
			allOK = false
			break
		}
	}
	return allOK, out
}
