// Package cli implements portalctl, an interactive console for portal
// operators. It talks to the admin HTTP endpoints and supports viewing
// aggregate stats, listing accounts, disabling or re-enabling an account
// and triggering an expiration sweep.
package cli
