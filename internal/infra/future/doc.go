// Package future provides a single-resolution Promise/Future pair used to
// report the completion of asynchronous operations such as close hooks and
// blocking tasks.
package future
