// Package broadcast implements the Subscriber Registry.
//
// Subscribers are identity-keyed handles wrapping a uniform
// Deliver(Reading) capability. Broadcast snapshots the membership set
// under the lock and delivers outside it, so subscribe/unsubscribe from
// other goroutines never races an in-progress broadcast. A fault in one
// subscriber's delivery is logged and isolated from the rest.
//
// Queue is a growable FIFO used by transports to decouple delivery from
// slow consumers.
package broadcast
