// Package mapview implements the embedded map view: one native rendering
// surface bound to a host-assigned view id, together with the one-way
// channel that tells the host whether the view came up.
//
// A View is built by a [Factory], reports exactly one outcome (ready or
// error) and afterwards only forwards start/stop calls to its surface until
// it is disposed. Activation of the shared map runtime is not this
// package's concern; see package lifecycle.
package mapview
