// Package faiss reads index files produced by FAISS write_index.
//
// Only the parts of the format needed to recover stored vectors are decoded.
// Supported variants:
//
//	IxF2  IndexFlatL2
//	IxFI  IndexFlatIP
//	IxFl  IndexFlat (any metric)
//	IxSQ  IndexScalarQuantizer (8bit, 4bit, uniform, fp16, bf16, direct)
//	IHNf  IndexHNSWFlat   (graph skipped, flat storage decoded)
//	IHNs  IndexHNSWSQ     (graph skipped, SQ storage decoded)
//	IxMp  IndexIDMap      (wrapping any of the above)
//	IxM2  IndexIDMap2
//
// Inverted-file, product-quantized and binary indexes report
// *ErrUnsupported. All integers are little-endian, as written by FAISS on
// every platform it supports.
//
// Importing the package registers the "faiss" format with package index.
package faiss
