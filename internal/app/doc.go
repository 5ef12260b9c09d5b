// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the compile lifecycle, decoupled from any
// specific entrypoint like a CLI.
//
// A run loads every pipeline and graph file, validates the pipelines
// against the registered passes, then builds each graph into a program and
// runs the selected pipeline over it. Graphs are independent, so they are
// compiled concurrently; results are printed in load order.
package app
