package host

import (
	"errors"
	"fmt"
	"io"

	"github.com/heptiolabs/healthcheck"
	"github.com/shirou/gopsutil/v3/mem"
)

const memoryUsedPercentCeiling = 97.0

// Health builds the runtime's liveness/readiness handler. Handle pressure
// and memory headroom gate liveness; entropy availability gates readiness,
// since key generation is useless without it.
func (r *Runtime) Health() healthcheck.Handler {
	h := healthcheck.NewHandler()

	h.AddLivenessCheck("handle-pressure", func() error {
		if r.closed.Load() {
			return errors.New("runtime closed")
		}
		live, max := r.table.Len(), r.conf.MaxHandles
		if live >= max {
			return fmt.Errorf("handle table full: %d/%d", live, max)
		}
		return nil
	})

	h.AddLivenessCheck("memory-headroom", func() error {
		vm, err := mem.VirtualMemory()
		if err != nil {
			return err
		}
		if vm.UsedPercent > memoryUsedPercentCeiling {
			return fmt.Errorf("memory used %.1f%% exceeds %.1f%%", vm.UsedPercent, memoryUsedPercentCeiling)
		}
		return nil
	})

	h.AddReadinessCheck("entropy", func() error {
		var probe [8]byte
		if _, err := io.ReadFull(r.conf.RNG, probe[:]); err != nil {
			return fmt.Errorf("entropy source: %w", err)
		}
		return nil
	})

	return h
}
