// Package report renders the static HTML alert dashboard written at the
// end of each alerter run. The page is self-contained: inline styles, no
// scripts, suitable for serving from a plain file share.
package report
