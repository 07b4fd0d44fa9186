// Package resource bounds the work the data proxy does on behalf of a grid:
// how many fetches run at once, how often they start, how many payload
// bytes are buffered, and how fast payload bytes are read.
//
// A nil *Controller imposes no limits.
package resource
