// Package report aggregates validator findings for one analysis run.
//
// A Report holds two documents. The validation document collects WARN, FAIL,
// and INCOMPLETE findings; the information document collects plain facts
// (durations, levels, tag values). Both are partitioned into the fixed
// categories file, format, audio, metadata, and error. A report is append-only
// until Close, which computes the final validity and renders both documents
// as text and HTML; afterwards it is immutable.
//
// Validity ordering is FAIL worse than WARN worse than PASS, except that
// INCOMPLETE always overrides the aggregate once recorded.
package report
