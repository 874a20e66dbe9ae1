package cpu

import (
	"github.com/born-ml/vision/internal/parallel"
	"github.com/born-ml/vision/internal/tensor"
)

// outputSize returns the output extent and the leading pad for one spatial
// axis, following Keras "valid" / "same" rules.
func outputSize(in, k, stride int, padding tensor.Padding) (out, pad int) {
	switch padding {
	case tensor.Valid:
		if in < k {
			return 0, 0
		}
		return (in-k)/stride + 1, 0
	case tensor.Same:
		out = (in + stride - 1) / stride
		total := max((out-1)*stride+k-in, 0)
		return out, total / 2
	default:
		tensor.Panicf("Conv2D", "unknown padding %q", padding)
		return 0, 0
	}
}

func checkImage(op string, x *tensor.Tensor) (n, h, w, c int) {
	s := x.Shape()
	if len(s) != 4 {
		tensor.Panicf(op, "expected NHWC input, got shape %v", s)
	}
	return s[0], s[1], s[2], s[3]
}

// Conv2D convolves an NHWC input with a [kh, kw, in, out] kernel.
func (b *CPUBackend) Conv2D(input, kernel *tensor.Tensor, stride int, padding tensor.Padding) *tensor.Tensor {
	n, h, w, c := checkImage("Conv2D", input)
	ks := kernel.Shape()
	if len(ks) != 4 || ks[2] != c {
		tensor.Panicf("Conv2D", "kernel %v does not match input channels %d", ks, c)
	}
	kh, kw, cout := ks[0], ks[1], ks[3]
	oh, padT := outputSize(h, kh, stride, padding)
	ow, padL := outputSize(w, kw, stride, padding)
	if oh <= 0 || ow <= 0 {
		tensor.Panicf("Conv2D", "input %dx%d smaller than kernel %dx%d", h, w, kh, kw)
	}

	src, kd := input.Data(), kernel.Data()
	out := make([]float32, n*oh*ow*cout)

	parallel.For(n*oh, func(row int) {
		bi, oy := row/oh, row%oh
		for ox := 0; ox < ow; ox++ {
			acc := out[((bi*oh+oy)*ow+ox)*cout : ((bi*oh+oy)*ow+ox+1)*cout]
			for ky := 0; ky < kh; ky++ {
				iy := oy*stride + ky - padT
				if iy < 0 || iy >= h {
					continue
				}
				for kx := 0; kx < kw; kx++ {
					ix := ox*stride + kx - padL
					if ix < 0 || ix >= w {
						continue
					}
					pix := src[((bi*h+iy)*w+ix)*c : ((bi*h+iy)*w+ix+1)*c]
					base := (ky*kw + kx) * c * cout
					for ci, v := range pix {
						if v == 0 {
							continue
						}
						wrow := kd[base+ci*cout : base+(ci+1)*cout]
						for co, wv := range wrow {
							acc[co] += v * wv
						}
					}
				}
			}
		}
	})

	return b.wrap(out, tensor.Shape{n, oh, ow, cout})
}

// DepthwiseConv2D convolves each channel with its own [kh, kw] filter.
func (b *CPUBackend) DepthwiseConv2D(input, kernel *tensor.Tensor, stride int, padding tensor.Padding) *tensor.Tensor {
	n, h, w, c := checkImage("DepthwiseConv2D", input)
	ks := kernel.Shape()
	if len(ks) != 3 || ks[2] != c {
		tensor.Panicf("DepthwiseConv2D", "kernel %v does not match input channels %d", ks, c)
	}
	kh, kw := ks[0], ks[1]
	oh, padT := outputSize(h, kh, stride, padding)
	ow, padL := outputSize(w, kw, stride, padding)
	if oh <= 0 || ow <= 0 {
		tensor.Panicf("DepthwiseConv2D", "input %dx%d smaller than kernel %dx%d", h, w, kh, kw)
	}

	src, kd := input.Data(), kernel.Data()
	out := make([]float32, n*oh*ow*c)

	parallel.For(n*oh, func(row int) {
		bi, oy := row/oh, row%oh
		for ox := 0; ox < ow; ox++ {
			acc := out[((bi*oh+oy)*ow+ox)*c : ((bi*oh+oy)*ow+ox+1)*c]
			for ky := 0; ky < kh; ky++ {
				iy := oy*stride + ky - padT
				if iy < 0 || iy >= h {
					continue
				}
				for kx := 0; kx < kw; kx++ {
					ix := ox*stride + kx - padL
					if ix < 0 || ix >= w {
						continue
					}
					pix := src[((bi*h+iy)*w+ix)*c : ((bi*h+iy)*w+ix+1)*c]
					krow := kd[(ky*kw+kx)*c : (ky*kw+kx+1)*c]
					for ci, v := range pix {
						acc[ci] += v * krow[ci]
					}
				}
			}
		}
	})

	return b.wrap(out, tensor.Shape{n, oh, ow, c})
}
