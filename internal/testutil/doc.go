// Package testutil contains helper builders and test doubles used across
// package tests: a fluent native event builder, a scripted Engine and an
// in-memory recorder of persisted turns. They are not intended for
// production usage.
package testutil
