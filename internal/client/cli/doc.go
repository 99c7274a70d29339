// Package cli provides the interactive gophboard command-line client.
//
// It wires configuration, the token store, the identity and data API clients
// and the session manager, then runs a REPL over them. A background watcher
// pings the identity service and shows online/offline in the prompt.
//
// Commands:
//   - signup, login, logout, whoami, reset, recover, passwd, profile, avatar
//   - boards, tags, posts, show
//   - new, edit, delete
//   - comments, comment
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
