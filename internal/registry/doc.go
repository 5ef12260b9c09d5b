// Package registry provides the central "glue" between pipeline
// configuration and compiled passes.
//
// The Registry maps the pass names used in pipeline files (e.g.,
// "eliminate_contiguous") to prototype values of the Go types implementing
// them. A pass exposes its options as `cty`-tagged struct fields; the
// prototype holds the defaults and configured attributes are overlaid on
// a copy.
//
// During application startup, the registry is populated and then validated
// against the loaded pipelines to ensure that every configured pass exists
// and every attribute matches the Go field it sets, preventing a wide class
// of errors from surfacing halfway through a compile.
package registry
