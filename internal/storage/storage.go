package storage

import (
	"github.com/csotherden/nova/internal/alloc"
	"github.com/csotherden/nova/internal/xerr"
)

// Storage holds an aligned buffer and a shape vector. Two Storage values
// are independent; the Buffer underneath may be shared when constructed
// to alias (see Storage.Clone).
type Storage struct {
	Buffer *Buffer
	Shape  []int64
	DType  DType
}

// New allocates a zero-filled storage of the given shape and dtype from
// pool, aligned to align.
func New(pool *alloc.Pool, shape []int64, dtype DType, align int64) (*Storage, error) {
	n := FlatSize(shape)
	nbyte := n * dtype.Itemsize()
	buf, err := NewBuffer(pool, nbyte, align)
	if err != nil {
		return nil, err
	}
	// Pool chunks are reused without being cleared.
	clear(buf.bytes())
	return &Storage{Buffer: buf, Shape: append([]int64(nil), shape...), DType: dtype}, nil
}

// NewFromFloat32 allocates storage of shape and dtype Float32, filling it
// with data. It fails with TensorError.ShapeMismatch if len(data) does not
// equal the product of shape.
func NewFromFloat32(pool *alloc.Pool, shape []int64, data []float32, align int64) (*Storage, error) {
	n := FlatSize(shape)
	if int64(len(data)) != n {
		return nil, xerr.Newf(xerr.ShapeMismatch, "storage.NewFromFloat32",
			"data length %d != shape product %d", len(data), n)
	}
	s, err := New(pool, shape, Float32, align)
	if err != nil {
		return nil, err
	}
	dst, err := View[float32](s.Buffer, 0, n)
	if err != nil {
		return nil, err
	}
	copy(dst, data)
	return s, nil
}

// NewFromFloat64 is NewFromFloat32 for float64 data.
func NewFromFloat64(pool *alloc.Pool, shape []int64, data []float64, align int64) (*Storage, error) {
	n := FlatSize(shape)
	if int64(len(data)) != n {
		return nil, xerr.Newf(xerr.ShapeMismatch, "storage.NewFromFloat64",
			"data length %d != shape product %d", len(data), n)
	}
	s, err := New(pool, shape, Float64, align)
	if err != nil {
		return nil, err
	}
	dst, err := View[float64](s.Buffer, 0, n)
	if err != nil {
		return nil, err
	}
	copy(dst, data)
	return s, nil
}

// Clone shares ownership of the underlying buffer with a new Storage
// value (cheap, aliasing copy).
func (s *Storage) Clone() *Storage {
	return &Storage{Buffer: s.Buffer.Clone(), Shape: append([]int64(nil), s.Shape...), DType: s.DType}
}

// DeepClone allocates fresh storage from pool and copies s's bytes into
// it, producing fully independent storage.
func (s *Storage) DeepClone(pool *alloc.Pool) (*Storage, error) {
	fresh, err := New(pool, s.Shape, s.DType, s.Buffer.Alignment())
	if err != nil {
		return nil, err
	}
	srcBytes := s.Buffer.bytes()
	dstBytes := fresh.Buffer.bytes()
	copy(dstBytes, srcBytes)
	return fresh, nil
}

// Release drops this Storage's ownership of its buffer.
func (s *Storage) Release() {
	s.Buffer.Release()
}
