// Package builder converts between graph descriptions (config.Graph) and
// programs (ir.Program).
//
// # Why Builder Exists
//
// A graph file names instructions and refers to them by address, in any
// order, across nested modules. The IR instead requires every input to
// exist before its user, and a control-flow instruction can only infer its
// shape once the modules it runs are complete. The builder bridges the two:
// it resolves addresses, orders the declarations and inserts them through
// the public ir API, so the resulting program passes the same validation
// as one built in Go.
//
// # How It Works
//
//  1. **Declare:** Every module is created with its parameters and literals.
//  2. **Link:** Each input address is resolved (own module first, then the
//     enclosing modules) and recorded as an edge in a dependency graph. A
//     control-flow instruction also depends on the @return of every module
//     it runs.
//  3. **Emit:** Instructions are inserted in topological order, earliest
//     declaration first, so a file that is already in order keeps it.
//     Tuple element addresses such as `loop[1]` become get_tuple_elem
//     instructions in the reading module.
//  4. **Validate:** The program is validated before it is returned.
//
// Describe goes the other way and produces a config.Graph that Build turns
// back into an equivalent program.
package builder
