// Package config defines the format-agnostic configuration model: pass
// pipelines and graph descriptions, along with the Loader interface that
// turns files into that model.
//
// The `config.Model` is the single source of truth for the `registry` and
// `builder` packages. Concrete implementations of the interfaces, such as
// for HCL, are provided in separate packages.
package config
