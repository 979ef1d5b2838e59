// Package solver finds shortest winning action sequences by breadth-first
// search over cloned levels. It backs the hint endpoint and the solve command.
package solver
