/*
Package tracks provides the core data model for time-lapse cell-tracking
datasets: label volumes (movies of labeled segmentation frames), lineage graphs
(per-cell records of identity continuity and divisions), consistency validation
of a lineage against its label-image evidence, and dense sequential relabeling
that keeps image and graph isomorphic.

Validation never raises for data problems.  It returns a Result carrying the
boolean outcome plus structured Violation records, so callers decide whether
invalidity is fatal and tests can assert on which rule fired.
*/
package tracks
