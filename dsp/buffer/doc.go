// Package buffer provides a reusable complex64 sample accumulator and pool
// for allocation-friendly staging between rate-conversion stages. Radio I/O
// code accepts raw []complex64 slices; Buffer is the growable queue that
// sits between two stages producing and consuming at different rates.
package buffer
