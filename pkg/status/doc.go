// Package status records the outcome of every file a run touches and renders it for people.
//
// Per-file lines are written as outcomes are tracked:
//
//	✓ /data/run1/a.dat    transferred    → /grid/run1/a.dat
//	- /data/run1/b.dat    in-sync        → /grid/run1/b.dat
//	✓ /grid/run1/a.dat    registered     → /lfn/run1/a.dat
//
// and a summary table groups the outcomes per status once the run completes.
package status
