// Package sema decides whether types agree. It owns the unifier with its
// integer/float literal variables, trait restriction checks and the
// conformance check of apply blocks against trait declarations.
//
// A Checker works on exactly one types.Env. The driver creates one checker
// per declaration, so checkers never share mutable state; the impl table they
// consult is read-only while checking runs.
package sema
