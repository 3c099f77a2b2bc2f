package vecexport

import (
	"encoding/json"
)

// Record is the document written by Convert.
type Record struct {
	// Vectors holds N rows of D values, in identifier order.
	Vectors [][]float32 `json:"vectors"`
	// Metadata is the metadata document, passed through verbatim.
	Metadata json.RawMessage `json:"metadata"`
	// IndexInfo describes the source index.
	IndexInfo IndexInfo `json:"index_info"`
	// IDs holds the external id of each row for id-mapped indexes.
	IDs []int64 `json:"ids,omitempty"`
}

// IndexInfo summarizes an index.
type IndexInfo struct {
	TotalVectors    int    `json:"total_vectors"`
	VectorDimension int    `json:"vector_dimension"`
	IndexType       string `json:"index_type"`
}
