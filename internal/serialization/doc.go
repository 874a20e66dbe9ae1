// Package serialization reads and writes model weights in the SafeTensors
// format used by HuggingFace and Keras 3 weight exports.
//
//	Format Structure:
//	  [8 bytes: header size (uint64 LE)]
//	  [header: JSON map of name -> {dtype, shape, data_offsets}]
//	  [tensor data: raw little-endian bytes]
//
// Tensors are always returned as float32. F16, BF16 and F64 payloads are
// converted on read; writes always produce F32.
//
// Example usage:
//
//	r, err := serialization.Open("xception.safetensors")
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//	kernel, shape, err := r.Float32("block1_conv1/kernel")
package serialization
