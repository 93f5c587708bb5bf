// Package spectrum provides single-bin tone-power detection via the
// Goertzel algorithm, for both real-valued and I/Q complex64 signals.
package spectrum
