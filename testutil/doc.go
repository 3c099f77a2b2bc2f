// Package testutil provides helpers shared by vecexport tests.
//
// This package is intended for use in tests only. It generates
// deterministic vectors and metadata documents and writes fixture files.
//
//	rng := testutil.NewRNG(seed)
//	rows := rng.UniformVectors(16, 8)
//	meta := testutil.Professors(16)
package testutil
