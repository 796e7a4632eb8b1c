// Package customop implements the custom-operator calling convention.
//
// An operator is identified by {domain, name, version}. A caller hands the
// Dispatcher a Descriptor naming the operator, its input tensors and example
// output tensors whose shapes and dtypes the kernel must reproduce. The
// Dispatcher looks the operator up in a Registry, runs the kernel's forward
// entry point, validates the outputs and, when the autodiff tape is recording,
// records the call so that backpropagation reaches the kernel's gradient entry
// point.
//
// Each {domain, name} pair is backed by exactly one source (one native library
// or the built-in reference kernels). Registering a second source for the same
// pair fails with ErrDuplicateOperator.
package customop
