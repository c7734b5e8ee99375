package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus/collectors"
)

var runtimeOnce sync.Once //nolint:gochecknoglobals // collectors register once per registry

// RegisterRuntimeCollectors adds Go runtime and process metrics (memory,
// goroutines, GC pauses, open fds) to the service registry. Repeated calls
// are no-ops.
func RegisterRuntimeCollectors() {
	runtimeOnce.Do(func() {
		customRegistry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	})
}
