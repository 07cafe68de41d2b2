// Package threshold turns a gray image into the ordered binary images a
// detector extracts blob candidates from.
//
// A Policy decides which cutoffs to use and how many levels an object has to
// recur in. Three policies are provided:
//
//   - Fixed: one user-chosen cutoff.
//   - Range: cutoffs from min to max in fixed steps.
//   - Otsu: one cutoff chosen from the image histogram.
//
// Every policy binarizes the same way: a pixel strictly brighter than the
// cutoff becomes 255, every other pixel 0.
package threshold
