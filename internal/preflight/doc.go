// Package preflight runs the environment checks the daemon and the CLI report
// before doing real work: directory access for the data and log paths and
// reachability of the storefront backend.
//
// Checks never fail hard. Each returns a Result the caller renders or logs,
// so an unreachable backend is reported without blocking offline operation.
package preflight
