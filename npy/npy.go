/*
	This file supports serialization/deserialization of NumPy .npy array blobs,
	the binary entries of track container archives.  Only version 1.0/2.0
	headers, little-endian (or single-byte) dtypes, and C-ordered data are
	supported, which covers every array the containers carry.  Payload bytes
	are preserved exactly so containers round-trip bit for bit.
*/

package npy

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Magic begins every .npy blob.
var Magic = []byte{'\x93', 'N', 'U', 'M', 'P', 'Y'}

// headerAlign pads the header so array data starts on a 64-byte boundary.
const headerAlign = 64

// itemSizes maps the supported dtype codes to their element sizes in bytes.
var itemSizes = map[string]int{
	"i1": 1, "u1": 1,
	"i2": 2, "u2": 2,
	"i4": 4, "u4": 4,
	"i8": 8, "u8": 8,
	"f4": 4, "f8": 8,
}

// Array is an n-dimensional numeric array with its dtype and raw little-endian,
// C-ordered payload preserved.
type Array struct {
	// DType is the dtype code without byte-order prefix, e.g. "i4", "u2", "f8".
	DType string

	// Shape holds the array dimensions, outermost first.
	Shape []int

	// Data is the payload: little-endian elements in C (row-major) order.
	Data []byte
}

// New returns a zeroed array of the given dtype and shape.
func New(dtype string, shape ...int) (*Array, error) {
	size, found := itemSizes[dtype]
	if !found {
		return nil, fmt.Errorf("unsupported dtype %q", dtype)
	}
	n := 1
	for _, dim := range shape {
		if dim < 0 {
			return nil, fmt.Errorf("bad shape %v", shape)
		}
		n *= dim
	}
	return &Array{
		DType: dtype,
		Shape: append([]int{}, shape...),
		Data:  make([]byte, n*size),
	}, nil
}

// ItemSize returns the element size in bytes.
func (a *Array) ItemSize() int {
	return itemSizes[a.DType]
}

// NumElements returns the total number of elements.
func (a *Array) NumElements() int {
	n := 1
	for _, dim := range a.Shape {
		n *= dim
	}
	return n
}

// Rank returns the number of dimensions.
func (a *Array) Rank() int {
	return len(a.Shape)
}

// Clone returns a deep copy of the array.
func (a *Array) Clone() *Array {
	data := make([]byte, len(a.Data))
	copy(data, a.Data)
	return &Array{
		DType: a.DType,
		Shape: append([]int{}, a.Shape...),
		Data:  data,
	}
}

// Equal reports whether two arrays have identical dtype, shape and payload.
func (a *Array) Equal(b *Array) bool {
	if a.DType != b.DType || len(a.Shape) != len(b.Shape) {
		return false
	}
	for i := range a.Shape {
		if a.Shape[i] != b.Shape[i] {
			return false
		}
	}
	return bytes.Equal(a.Data, b.Data)
}

// checkShape returns an error if the payload length doesn't match dtype and shape.
func (a *Array) checkShape() error {
	size, found := itemSizes[a.DType]
	if !found {
		return fmt.Errorf("unsupported dtype %q", a.DType)
	}
	if expected := a.NumElements() * size; len(a.Data) != expected {
		return fmt.Errorf("array payload is %d bytes, expected %d for dtype %s shape %v",
			len(a.Data), expected, a.DType, a.Shape)
	}
	return nil
}

// descr returns the numpy descr string for the array's dtype.
func (a *Array) descr() string {
	if a.ItemSize() == 1 {
		return "|" + a.DType
	}
	return "<" + a.DType
}

// Encode writes the array to w as a version 1.0 .npy blob.
func Encode(w io.Writer, a *Array) error {
	if err := a.checkShape(); err != nil {
		return err
	}
	if len(a.Shape) == 0 {
		return fmt.Errorf("cannot encode rank-0 array")
	}

	dims := make([]string, len(a.Shape))
	for i, dim := range a.Shape {
		dims[i] = strconv.Itoa(dim)
	}
	shape := strings.Join(dims, ", ")
	if len(a.Shape) == 1 {
		shape += ","
	}
	header := fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': (%s), }",
		a.descr(), shape)

	// Pad with spaces so the payload starts on an alignment boundary, with a
	// final newline terminating the header.
	unpadded := len(Magic) + 2 + 2 + len(header) + 1
	padding := (headerAlign - unpadded%headerAlign) % headerAlign
	header += strings.Repeat(" ", padding) + "\n"
	if len(header) > 0xffff {
		return fmt.Errorf("header too large for version 1.0 .npy: %d bytes", len(header))
	}

	if _, err := w.Write(Magic); err != nil {
		return err
	}
	if _, err := w.Write([]byte{1, 0}); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(len(header))); err != nil {
		return err
	}
	if _, err := io.WriteString(w, header); err != nil {
		return err
	}
	_, err := w.Write(a.Data)
	return err
}

// Decode reads one .npy blob from r.
func Decode(r io.Reader) (*Array, error) {
	preamble := make([]byte, 8)
	if _, err := io.ReadFull(r, preamble); err != nil {
		return nil, fmt.Errorf("bad .npy preamble: %v", err)
	}
	if !bytes.Equal(preamble[:6], Magic) {
		return nil, fmt.Errorf("bad .npy magic %q", preamble[:6])
	}
	major := preamble[6]

	var headerLen int
	switch major {
	case 1:
		var n uint16
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return nil, fmt.Errorf("bad .npy header length: %v", err)
		}
		headerLen = int(n)
	case 2:
		var n uint32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return nil, fmt.Errorf("bad .npy header length: %v", err)
		}
		headerLen = int(n)
	default:
		return nil, fmt.Errorf("unsupported .npy version %d.%d", major, preamble[7])
	}

	headerBytes := make([]byte, headerLen)
	if _, err := io.ReadFull(r, headerBytes); err != nil {
		return nil, fmt.Errorf("truncated .npy header: %v", err)
	}
	dtype, shape, err := parseHeader(string(headerBytes))
	if err != nil {
		return nil, err
	}

	a := &Array{DType: dtype, Shape: shape}
	size := a.NumElements() * a.ItemSize()
	a.Data = make([]byte, size)
	if _, err := io.ReadFull(r, a.Data); err != nil {
		return nil, fmt.Errorf("truncated .npy payload: %v", err)
	}
	return a, nil
}

// parseHeader extracts dtype and shape from the python dict literal header.
func parseHeader(header string) (dtype string, shape []int, err error) {
	descr, err := headerValue(header, "descr")
	if err != nil {
		return "", nil, err
	}
	switch {
	case strings.HasPrefix(descr, "<"), strings.HasPrefix(descr, "|"):
		dtype = descr[1:]
	case strings.HasPrefix(descr, ">"):
		return "", nil, fmt.Errorf("big-endian .npy dtype %q not supported", descr)
	default:
		dtype = descr
	}
	if _, found := itemSizes[dtype]; !found {
		return "", nil, fmt.Errorf("unsupported .npy dtype %q", descr)
	}

	if strings.Contains(header, "'fortran_order': True") {
		return "", nil, fmt.Errorf("fortran-ordered .npy arrays not supported")
	}

	lparen := strings.Index(header, "(")
	rparen := strings.Index(header, ")")
	if lparen < 0 || rparen < lparen {
		return "", nil, fmt.Errorf("no shape tuple in .npy header %q", header)
	}
	for _, field := range strings.Split(header[lparen+1:rparen], ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		dim, err := strconv.Atoi(field)
		if err != nil || dim < 0 {
			return "", nil, fmt.Errorf("bad dimension %q in .npy header", field)
		}
		shape = append(shape, dim)
	}
	if len(shape) == 0 {
		return "", nil, fmt.Errorf("rank-0 .npy arrays not supported")
	}
	return dtype, shape, nil
}

// headerValue returns the quoted string value for a key in the header dict.
func headerValue(header, key string) (string, error) {
	quoted := "'" + key + "':"
	i := strings.Index(header, quoted)
	if i < 0 {
		return "", fmt.Errorf("no %q field in .npy header %q", key, header)
	}
	rest := header[i+len(quoted):]
	start := strings.Index(rest, "'")
	if start < 0 {
		return "", fmt.Errorf("bad %q field in .npy header %q", key, header)
	}
	end := strings.Index(rest[start+1:], "'")
	if end < 0 {
		return "", fmt.Errorf("bad %q field in .npy header %q", key, header)
	}
	return rest[start+1 : start+1+end], nil
}
