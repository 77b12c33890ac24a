// Package navigation turns session capabilities into the list of console
// modules a user may open.
//
// Inclusion rules are data: each [Module] carries an optional [Rule], and
// [Gate] evaluates the table against a [permission.Checker]. Modules
// without a rule are always enabled for an authenticated session.
package navigation
