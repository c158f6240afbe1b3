// Package observability provides hooks for metrics, tracing, and progress
// reporting around control-tree operations.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about device operations and the individual filesystem
// steps they execute.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the core library dependency-free from observability frameworks
//   - Allows different backends (progress bars, Prometheus, audit logs, etc.)
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetDeviceHooks(&myDeviceHooks{})
//	    observability.SetTreeHooks(&myTreeHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Device().OnOperationStart(ctx, "create", name)
//	// ... apply the plan ...
//	observability.Device().OnOperationComplete(ctx, "create", name, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Device Hooks
// =============================================================================

// DeviceHooks receives events about whole-device operations
// (create, read, enable, disable, remove).
type DeviceHooks interface {
	OnOperationStart(ctx context.Context, op, device string)
	OnOperationComplete(ctx context.Context, op, device string, duration time.Duration, err error)
}

// =============================================================================
// Tree Hooks
// =============================================================================

// TreeHooks receives events from the step interpreter of the control tree.
type TreeHooks interface {
	// OnStep records a step that was executed, with its position in the plan.
	OnStep(ctx context.Context, planID, op, path string, index, total int, err error)

	// OnRollback records a compensating action run after a failed plan.
	OnRollback(ctx context.Context, planID, op, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopDeviceHooks is a no-op implementation of DeviceHooks.
type NoopDeviceHooks struct{}

func (NoopDeviceHooks) OnOperationStart(context.Context, string, string) {}
func (NoopDeviceHooks) OnOperationComplete(context.Context, string, string, time.Duration, error) {
}

// NoopTreeHooks is a no-op implementation of TreeHooks.
type NoopTreeHooks struct{}

func (NoopTreeHooks) OnStep(context.Context, string, string, string, int, int, error) {}
func (NoopTreeHooks) OnRollback(context.Context, string, string, string, error)       {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	deviceHooks DeviceHooks = NoopDeviceHooks{}
	treeHooks   TreeHooks   = NoopTreeHooks{}
	hooksMu     sync.RWMutex
)

// SetDeviceHooks registers custom device hooks.
// This should be called once at application startup before any device operations.
func SetDeviceHooks(h DeviceHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		deviceHooks = h
	}
}

// SetTreeHooks registers custom tree hooks.
// This should be called once at application startup before any plan is applied.
func SetTreeHooks(h TreeHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		treeHooks = h
	}
}

// Device returns the registered device hooks.
func Device() DeviceHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return deviceHooks
}

// Tree returns the registered tree hooks.
func Tree() TreeHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return treeHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	deviceHooks = NoopDeviceHooks{}
	treeHooks = NoopTreeHooks{}
}
