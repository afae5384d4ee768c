// Package event provides the typed publish/subscribe bus used by Linen
// components to exchange state-change notifications without direct coupling.
//
// # Delivery model
//
// Publish is always deferred: events accumulate in a pending queue until the
// host drains the bus, once per tick, after all components have updated.
// Drain delivers in priority order (Critical, High, Normal, Low) and FIFO
// within a tier, guaranteed by a monotonic sequence number assigned under the
// bus lock. PublishImmediate is the explicit synchronous escape hatch for the
// rare cases where an event must be observed before the caller continues.
//
// # Filters
//
// A subscription may carry a filter tag. Filtered handlers only see events
// published with the same tag; unfiltered handlers see every event of their
// type. For each delivered event, unfiltered handlers run first, then
// filtered ones, each group in registration order.
//
// # Reentrancy
//
// Handlers run outside the bus lock and may publish or subscribe freely.
// Events published from inside a handler are queued for the next drain,
// which bounds delivery chains to one generation per tick.
//
// The bus does not contain handler panics itself. A host that needs
// per-handler failure isolation installs a delivery wrapper with
// SetInvoker; the component registry does this so a panicking handler
// cannot discard the rest of a drained batch.
package event
