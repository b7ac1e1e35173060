// Package uptask is the backend core for a multi-tenant project/task tracker.
// Every resource is gated by an identity and authorization layer: account
// registration with email confirmation, password reset flows, short-lived JWT
// sessions, and per-project authorization checks.
//
// Account lifecycle:
//   - Users are created unconfirmed. Confirmation and password resets are
//     driven by single-use verification tokens with a 10 minute validity
//     window, issued by TokenIssuer and redeemed atomically with the state
//     change they authorize.
//   - The lifecycle operations (register, confirm, reset, change password)
//     live in command handlers so transports stay thin. Each handler runs its
//     side effects inside a repository transaction and dispatches notification
//     emails best-effort.
//
// Sessions:
//   - TokenService signs and validates stateless HS256 JWTs carrying the user
//     id. There is no revocation list; logout is client-side.
//
// Authorization:
//   - Authorize maps (user, project, action) to an allow/deny decision. The
//     project manager may do everything, team members get a restricted subset,
//     and a stranger's denial is indistinguishable from a missing project.
package uptask
