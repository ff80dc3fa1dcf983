// Package conn implements the connection engine: the pending-request table,
// the per-connection reader loop, serialized writes, and the liveness state
// machine.
//
// The engine guarantees exactly-once resolution: every dispatched request is
// resolved exactly once, by its matching reply or by the connection's failure
// transition, under any interleaving of callers and connection loss.
package conn
