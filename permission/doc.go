// Package permission models the role/permission payload a session receives
// from the backend and answers authorization questions against it.
//
// # Canonical shape
//
// Grants arrive either as flat "resource:action" codes or as
// {resource, action} objects. Both decode into [Permission], and every
// comparison happens on [Permission.Code], so the two representations can
// never disagree.
//
// # Fail-closed
//
// A nil payload, or a nil [*Evaluator], denies every check. Super admins
// pass every permission and resource check but gain no roles.
//
// # What this package must NOT do
//
//   - Access storage, the network, or the session store.
//   - Return errors from authorization checks: a check is always a bool.
package permission
