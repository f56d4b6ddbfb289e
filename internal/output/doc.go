// Package output encodes reports and snapshots as byte-stable JSON.
//
// Two encodings of the same value are identical byte for byte: object keys
// are sorted, HTML escaping is off, and nil or omitempty-zero fields are
// dropped. Array order is the caller's responsibility; the diff engine
// already emits changes in their canonical order.
package output
