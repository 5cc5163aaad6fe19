// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fiber

// Logger is the minimal structured-logging seam carried in Config.
// Default is a no-op logger. The runtime stores the configured Logger but
// no code path in this package calls it: poller registration failures,
// spurious wakeups and a cancellation grace deadline firing are not
// logged, and neither is the hot path (context switch, channel
// rendezvous).
type Logger interface {
	Debugf(format string, args ...any)
	Errorf(format string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debugf(string, ...any) {}
func (noopLogger) Errorf(string, ...any) {}

// Config carries the runtime's tunables. Promoted from the package-level
// constants sess keeps for its own transport (session.go's
// channelCapacity = 4) into fields, since this runtime's stack size and
// free-list policy are genuinely per-deployment knobs rather than a fixed
// protocol constant.
type Config struct {
	// StackSize is the fixed size of each fiber's stack region, in bytes.
	// Zero means DefaultStackSize. Rounded up to the OS page size.
	StackSize int

	// StackFreeListMax bounds how many freed stacks the free-list retains
	// before returning pages to the OS. Zero means DefaultStackFreeListMax.
	StackFreeListMax int

	// Logger is stored by NewRuntime; nil means a no-op logger. Nothing in
	// this package writes to it.
	Logger Logger
}

// DefaultStackSize is the minimum stack size spec.md §3 requires
// (≥ 256 KiB virtual).
const DefaultStackSize = 256 * 1024

// DefaultStackFreeListMax bounds the idle stack free-list.
const DefaultStackFreeListMax = 64

func (c Config) withDefaults() Config {
	if c.StackSize <= 0 {
		c.StackSize = DefaultStackSize
	}
	if c.StackFreeListMax <= 0 {
		c.StackFreeListMax = DefaultStackFreeListMax
	}
	if c.Logger == nil {
		c.Logger = noopLogger{}
	}
	return c
}
