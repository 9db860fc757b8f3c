// Package hir holds the lowered declarations the semantic core consumes:
// paths, type descriptions, functions, traits and apply blocks.
//
// Type descriptions are arena independent. An Inserter turns a description
// into entries of one types.Env, so both sides of a comparison always live in
// the same arena. Descriptions are usually produced by ParseType from the
// type notation used in flux.toml:
//
//	_            unknown
//	!            never
//	{int}        fresh integer literal variable
//	{float}      fresh float literal variable
//	$name        a declared local
//	*T           pointer
//	(A, B) ()    tuples and unit
//	This         the apply target inside a trait
//	a::b::C<T>   named types with generic arguments
package hir
