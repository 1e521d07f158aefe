/*
Package merge implements the deep-merge engine used by the resolver.

Merge semantics are deliberately simple and total: scalar values replace,
nested mappings recurse, lists replace wholesale. There is no list
concatenation and no three-way reconciliation; the override side wins every
conflict. The same package houses the environment-value coercion rules and
dotted-key expansion so that every transformation applied to raw source data
lives in one place.
*/
package merge
