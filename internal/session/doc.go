// Package session holds the selection state of one interactive session.
//
// A ViewState is never mutated. Reduce takes the previous state and one
// event and returns the next state, re-deriving validation and the chart
// plan from scratch every time.
package session
