// Package passes holds the rewrite passes of the compiler pipeline.
//
//   - eliminate_contiguous drops layout normalizers whose consumers accept
//     the input layout unchanged.
//   - normalize_branch_outputs makes the results of if instructions
//     standard.
//   - rewrite_quantization lowers quantizelinear and dequantizelinear into
//     primitive elementwise operations.
//   - dead_code_elimination removes unused instructions.
//
// Every pass rewrites a single module; pass.Run takes care of nested
// modules.
package passes
