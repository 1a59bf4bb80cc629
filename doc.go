// Package formopts describes settings forms whose options depend on each
// other.
//
// A Registry holds one Definition per option. Describe computes an option's
// Descriptor (input kind, choices, visibility) from a snapshot of values
// without side effects. Resolve reads the option's declared dependencies
// from a Store, describes it and then calls Reconcile, which rewrites a
// stored select value that is no longer one of the offered choices.
//
// Visibility guards are either declarative (Equals, In, IsTrue, IsFalse) or
// expressions run by an Evaluator: expr by default, CEL, or JavaScript when
// built with the js_eval tag.
package formopts
