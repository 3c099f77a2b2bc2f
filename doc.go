// Package vecexport turns a stored similarity-search index and its JSON
// metadata into a single JSON document for web applications.
//
// # Quick Start
//
//	res, err := vecexport.Convert(ctx, vecexport.Config{
//	    IndexPath:    "professor_index.faiss",
//	    MetadataPath: "professor_metadata.json",
//	    OutputPath:   "data/vectors_with_metadata.json",
//	})
//	if err != nil {
//	    switch vecexport.KindOf(err) {
//	    case vecexport.MissingInputFile:
//	        // place the file and retry
//	    }
//	}
//	fmt.Println(res.TotalVectors, res.Dimension)
//
// The output document looks like this:
//
//	{
//	  "vectors": [[0.1, 0.2, 0.3], [0.4, 0.5, 0.6]],
//	  "metadata": [{"name": "A"}, {"name": "B"}],
//	  "index_info": {
//	    "total_vectors": 2,
//	    "vector_dimension": 3,
//	    "index_type": "IndexFlatL2"
//	  }
//	}
//
// Vectors are listed in identifier order 0..N-1. The metadata document is
// copied as is, whatever its shape; it is not checked against the vectors
// unless WithStrictMetadata is set. Id-mapped indexes additionally emit an
// "ids" array naming the external id of each row.
//
// # Failure Model
//
// A conversion either writes the whole document or leaves the output
// location untouched. Errors are *Error values tagged with a Kind, and
// match the sentinels ErrMissingInputFile, ErrIndexLoad, ErrMetadataParse,
// ErrMetadataMismatch and ErrWrite with errors.Is.
//
// # Locations
//
// Inputs and outputs are local paths by default. Register object stores on
// a blobstore.Resolver and pass it with WithStores to read from or write to
// "s3://bucket/key" or "minio://bucket/key". Outputs ending in ".gz", ".zst"
// or ".lz4" are compressed; compressed inputs are detected automatically.
//
// # Batches
//
// RunBatch converts several independent index/metadata pairs concurrently.
// WithMemoryLimit bounds how many reconstructed matrices are held at once.
package vecexport
