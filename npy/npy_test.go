package npy

import (
	"bytes"
	"encoding/binary"
	"reflect"
	"strings"
	"testing"

	"github.com/janelia-flyem/tracks/tracks"
)

func roundTrip(t *testing.T, a *Array) *Array {
	t.Helper()
	var buf bytes.Buffer
	if err := Encode(&buf, a); err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	decoded, err := Decode(&buf)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !decoded.Equal(a) {
		t.Fatalf("round trip mismatch: dtype %s shape %v vs dtype %s shape %v",
			decoded.DType, decoded.Shape, a.DType, a.Shape)
	}
	return decoded
}

func TestRoundTripDtypes(t *testing.T) {
	for _, dtype := range []string{"i1", "u1", "i2", "u2", "i4", "u4", "i8", "u8", "f4", "f8"} {
		a, err := New(dtype, 2, 3)
		if err != nil {
			t.Fatalf("New(%s) failed: %v", dtype, err)
		}
		for i := range a.Data {
			a.Data[i] = byte(i * 7)
		}
		roundTrip(t, a)
	}
}

func TestRoundTripRank1(t *testing.T) {
	a, _ := New("f4", 5)
	roundTrip(t, a)
}

func TestEncodeAlignment(t *testing.T) {
	a, _ := New("i4", 3, 16, 16)
	var buf bytes.Buffer
	if err := Encode(&buf, a); err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	headerSize := len(buf.Bytes()) - len(a.Data)
	if headerSize%64 != 0 {
		t.Errorf("payload should start on a 64-byte boundary, header is %d bytes", headerSize)
	}
	if !bytes.HasPrefix(buf.Bytes(), Magic) {
		t.Errorf("encoded blob missing magic prefix")
	}
}

func TestDecodeNumpyHeader(t *testing.T) {
	// A header as numpy itself writes it, with single space separators and
	// trailing comma in a rank-1 shape.
	header := "{'descr': '<i4', 'fortran_order': False, 'shape': (3,), }"
	pad := 64 - (10+len(header)+1)%64
	header += strings.Repeat(" ", pad) + "\n"

	var buf bytes.Buffer
	buf.Write(Magic)
	buf.Write([]byte{1, 0})
	binary.Write(&buf, binary.LittleEndian, uint16(len(header)))
	buf.WriteString(header)
	buf.Write(make([]byte, 12))

	a, err := Decode(&buf)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if a.DType != "i4" || !reflect.DeepEqual(a.Shape, []int{3}) {
		t.Errorf("decoded dtype %s shape %v, want i4 (3,)", a.DType, a.Shape)
	}
}

func TestDecodeFailures(t *testing.T) {
	good, _ := New("u1", 4)
	var buf bytes.Buffer
	if err := Encode(&buf, good); err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	blob := buf.Bytes()

	bad := append([]byte{}, blob...)
	bad[0] = 'X'
	if _, err := Decode(bytes.NewReader(bad)); err == nil {
		t.Errorf("expected bad magic to fail")
	}

	truncated := blob[:len(blob)-2]
	if _, err := Decode(bytes.NewReader(truncated)); err == nil {
		t.Errorf("expected truncated payload to fail")
	}

	bigEndian := bytes.Replace(blob, []byte("|u1"), []byte(">u4"), 1)
	if _, err := Decode(bytes.NewReader(bigEndian)); err == nil {
		t.Errorf("expected big-endian dtype to fail")
	}
}

func TestLabelVolumeConversion(t *testing.T) {
	vol := tracks.NewLabelVolume(2, 4, 4)
	vol.SetValue(0, 1, 1, 5)
	vol.SetValue(1, 2, 3, 9)

	a := FromLabelVolume(vol)
	if a.DType != "i4" || !reflect.DeepEqual(a.Shape, []int{2, 4, 4}) {
		t.Fatalf("unexpected array dtype %s shape %v", a.DType, a.Shape)
	}
	back, err := a.LabelVolume()
	if err != nil {
		t.Fatalf("conversion back failed: %v", err)
	}
	if !reflect.DeepEqual(back.Data, vol.Data) {
		t.Errorf("label volume changed through conversion")
	}

	// Any integer dtype should convert.
	small, _ := New("u2", 1, 2, 2)
	binary.LittleEndian.PutUint16(small.Data[0:], 7)
	converted, err := small.LabelVolume()
	if err != nil {
		t.Fatalf("u2 conversion failed: %v", err)
	}
	if converted.Value(0, 0, 0) != 7 {
		t.Errorf("expected label 7, got %d", converted.Value(0, 0, 0))
	}

	float, _ := New("f4", 1, 2, 2)
	if _, err := float.LabelVolume(); err == nil {
		t.Errorf("expected float label volume to fail")
	}
}

func TestStack(t *testing.T) {
	a, _ := New("i4", 2, 3)
	b, _ := New("i4", 2, 3)
	for i := range b.Data {
		b.Data[i] = 0xff
	}
	stacked, err := Stack([]*Array{a, b})
	if err != nil {
		t.Fatalf("stack failed: %v", err)
	}
	if !reflect.DeepEqual(stacked.Shape, []int{2, 2, 3}) {
		t.Fatalf("expected shape [2 2 3], got %v", stacked.Shape)
	}
	if stacked.Data[len(a.Data)] != 0xff {
		t.Errorf("stacked payload not in argument order")
	}

	c, _ := New("i4", 9)
	if _, err := Stack([]*Array{a, c}); err == nil {
		t.Errorf("expected shape mismatch to fail")
	}
	d, _ := New("i8", 2, 3)
	if _, err := Stack([]*Array{a, d}); err == nil {
		t.Errorf("expected dtype mismatch to fail")
	}
}

func TestLabelVolumeAt(t *testing.T) {
	vol := tracks.NewLabelVolume(2, 4, 4)
	vol.SetValue(0, 0, 0, 3)
	single := FromLabelVolume(vol)
	batch, err := Stack([]*Array{single, single})
	if err != nil {
		t.Fatalf("stack failed: %v", err)
	}
	got, err := batch.LabelVolumeAt(1)
	if err != nil {
		t.Fatalf("LabelVolumeAt failed: %v", err)
	}
	if got.Value(0, 0, 0) != 3 {
		t.Errorf("expected label 3 at movie 1 origin, got %d", got.Value(0, 0, 0))
	}
	if _, err := batch.LabelVolumeAt(2); err == nil {
		t.Errorf("expected out-of-range movie to fail")
	}
}

func TestCrop3(t *testing.T) {
	a, _ := New("f4", 4, 4, 2)
	for i := range a.Data {
		a.Data[i] = byte(i)
	}
	crop, err := a.Crop3(1, 1, 3, 3)
	if err != nil {
		t.Fatalf("crop failed: %v", err)
	}
	if !reflect.DeepEqual(crop.Shape, []int{2, 2, 2}) {
		t.Fatalf("expected crop shape [2 2 2], got %v", crop.Shape)
	}
	// First crop element is (1,1,0) of the source.
	srcOffset := ((1*4 + 1) * 2) * 4
	if !bytes.Equal(crop.Data[:8], a.Data[srcOffset:srcOffset+8]) {
		t.Errorf("crop payload does not match source region")
	}

	if _, err := a.Crop3(0, 0, 5, 2); err == nil {
		t.Errorf("expected out-of-bounds crop to fail")
	}
}
