// Package access is the credential and authorization core for coaching and
// assessment platforms. It bundles password verification, signed bearer-token
// issuance with a sliding renewal window, and a hierarchical role engine
// (admin over coach over user) that gates who may view, modify, create, or
// delete identities and resources.
//
// Token lifecycle:
//   - TokenService issues and validates self-contained HS256 JWTs. Tokens are
//     never stored server side; validity is purely a function of signature and
//     expiry at verification time.
//   - ClassifyExpiry maps a token to a tri-state (expired, renewal due, valid)
//     for status checks, degrading undecodable tokens to expired instead of
//     failing. Protected routes use the strict Validate path instead.
//   - Renewer silently replaces tokens inside the renewal window when the
//     caller asks for it, preserving the subject and refusing expired tokens.
//
// Authorization:
//   - Role is a closed, totally ordered set. GrantableRoles, CanCreateUser,
//     CanDeleteUser, CanModifyUser and ValidateRoleChange implement the
//     dominance rules, including the named coach-to-coach policy exception.
//   - UserManager applies those rules in front of the user store so every
//     denial surfaces as ErrUnauthorized, never as a silent no-op.
//
// Resource grants:
//   - ResourceGrant records give a non-owner identity access to a specific
//     resource (assessment collaborators). Grants layer on top of ownership
//     and are independent of role dominance.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by Auther, UserManager
//     and Collaborators to describe login, renewal, grant, and denial events.
//     Sinks run best-effort (errors are logged) so you can forward to a
//     database or queue without blocking authentication.
package access
