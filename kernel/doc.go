// Package kernel assembles the Linen core: one event bus, one component
// registry and one persistence manager behind a single host-facing handle.
// Run drives the fixed-step tick loop (update all active components in
// dependency order, then drain the bus once) and tears the registry down
// in reverse order when its context is cancelled.
package kernel
