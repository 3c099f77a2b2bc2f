// Package resource bounds what a conversion run may consume.
//
// Two budgets are tracked:
//
//   - Memory: reconstructed matrices are reserved against a weighted
//     semaphore before they are materialized, so parallel batch jobs wait
//     for each other instead of exhausting the heap.
//   - Write IO: a token bucket throttles output bytes, which keeps large
//     uploads from saturating a shared link.
//
// A nil *Controller is valid and imposes no limits.
package resource
