// Package hcl_adapter reads pipeline and graph descriptions from HCL files
// into the format-agnostic config model, and writes graphs back out.
//
// A pipeline file lists passes in order:
//
//	pipeline "default" {
//	  pass "rewrite_quantization" {}
//	  pass "eliminate_contiguous" {
//	    op_name = "contiguous"
//	  }
//	}
//
// A graph file holds module blocks with parameter, literal and instruction
// blocks and an optional outputs list. Any file may hold both kinds.
package hcl_adapter
