// Package identity is the client for the identity service (GoTrue REST API).
//
// The Provider owns the live session. Every call that changes the session
// publishes an Event to the handlers registered through OnAuthStateChange.
// Handlers run synchronously, in registration order, after the provider has
// updated its own session and before the triggering call returns.
package identity
