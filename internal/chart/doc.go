// Package chart validates chart requests against a dataset, turns valid
// requests into plans and draws plans as PNG or SVG images.
//
// Validation accumulates every failure: a request with a categorical x
// column and a text y column reports both axes. A Plan is only built from a
// request that validated cleanly.
package chart
