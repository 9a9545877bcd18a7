// Package spoolman provides a client for the Spoolman inventory service.
//
// The client covers two transports:
//
//  1. REST fetch: FetchSnapshot loads vendors, filaments and spools
//     concurrently and joins them into a single Snapshot, so consumers
//     never chase vendor_id / filament_id references themselves.
//
//  2. Push feed: Subscribe opens the Spoolman WebSocket and delivers
//     normalized ChangeNotification events, reconnecting with capped
//     exponential backoff when the transport drops.
//
// # Errors
//
// Failures surface as *TransportError (network or HTTP status) or
// *SchemaError (response did not match the expected record shape).
// Callers match them with errors.As.
package spoolman
