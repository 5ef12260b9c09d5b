// Package inmemorystore provides a thread-safe, in-memory record of
// compilation state: the status, resulting program and error of every
// graph a run compiles. Nothing is persisted.
package inmemorystore
