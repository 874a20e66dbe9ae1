package cpu

import (
	"math"

	"github.com/born-ml/vision/internal/parallel"
	"github.com/born-ml/vision/internal/tensor"
)

// MaxPool2D takes the maximum over size×size windows. Padded positions are
// ignored rather than treated as zeros.
func (b *CPUBackend) MaxPool2D(input *tensor.Tensor, size, stride int, padding tensor.Padding) *tensor.Tensor {
	n, h, w, c := checkImage("MaxPool2D", input)
	oh, padT := outputSize(h, size, stride, padding)
	ow, padL := outputSize(w, size, stride, padding)
	if oh <= 0 || ow <= 0 {
		tensor.Panicf("MaxPool2D", "input %dx%d smaller than pool %d", h, w, size)
	}

	src := input.Data()
	out := make([]float32, n*oh*ow*c)
	for i := range out {
		out[i] = float32(math.Inf(-1))
	}

	parallel.For(n*oh, func(row int) {
		bi, oy := row/oh, row%oh
		for ox := 0; ox < ow; ox++ {
			acc := out[((bi*oh+oy)*ow+ox)*c : ((bi*oh+oy)*ow+ox+1)*c]
			for ky := 0; ky < size; ky++ {
				iy := oy*stride + ky - padT
				if iy < 0 || iy >= h {
					continue
				}
				for kx := 0; kx < size; kx++ {
					ix := ox*stride + kx - padL
					if ix < 0 || ix >= w {
						continue
					}
					pix := src[((bi*h+iy)*w+ix)*c : ((bi*h+iy)*w+ix+1)*c]
					for ci, v := range pix {
						if v > acc[ci] {
							acc[ci] = v
						}
					}
				}
			}
		}
	})

	return b.wrap(out, tensor.Shape{n, oh, ow, c})
}

// GlobalAvgPool2D averages over height and width: [N, H, W, C] -> [N, C].
func (b *CPUBackend) GlobalAvgPool2D(input *tensor.Tensor) *tensor.Tensor {
	n, h, w, c := checkImage("GlobalAvgPool2D", input)
	src := input.Data()
	out := make([]float32, n*c)
	scale := 1 / float32(h*w)

	for bi := 0; bi < n; bi++ {
		acc := out[bi*c : (bi+1)*c]
		img := src[bi*h*w*c : (bi+1)*h*w*c]
		for p := 0; p < h*w; p++ {
			for ci, v := range img[p*c : (p+1)*c] {
				acc[ci] += v
			}
		}
		for ci := range acc {
			acc[ci] *= scale
		}
	}
	return b.wrap(out, tensor.Shape{n, c})
}

// ExtractPatches cuts non-overlapping size×size patches in row-major patch
// order. Each patch is flattened as (row, column, channel). Trailing rows and
// columns that do not fill a whole patch are dropped.
func (b *CPUBackend) ExtractPatches(images *tensor.Tensor, size int) *tensor.Tensor {
	n, h, w, c := checkImage("ExtractPatches", images)
	if size <= 0 {
		tensor.Panicf("ExtractPatches", "patch size must be positive, got %d", size)
	}
	nh, nw := h/size, w/size
	patchDim := size * size * c

	src := images.Data()
	out := make([]float32, n*nh*nw*patchDim)

	for bi := 0; bi < n; bi++ {
		for py := 0; py < nh; py++ {
			for px := 0; px < nw; px++ {
				dst := out[((bi*nh+py)*nw+px)*patchDim:]
				for y := 0; y < size; y++ {
					iy := py*size + y
					rowStart := ((bi*h+iy)*w + px*size) * c
					copy(dst[y*size*c:(y+1)*size*c], src[rowStart:rowStart+size*c])
				}
			}
		}
	}
	return b.wrap(out, tensor.Shape{n, nh * nw, patchDim})
}
