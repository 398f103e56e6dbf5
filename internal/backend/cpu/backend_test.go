package cpu

import (
	"math"
	"testing"

	"github.com/flintml/flint/internal/tensor"
)

func fromValues(t *testing.T, values []float32, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw: %v", err)
	}
	copy(raw.AsFloat32(), values)
	return raw
}

func assertValues(t *testing.T, got *tensor.RawTensor, want []float32, eps float64) {
	t.Helper()
	data := got.AsFloat32()
	if len(data) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(data), len(want))
	}
	for i := range want {
		if math.Abs(float64(data[i]-want[i])) > eps {
			t.Errorf("value[%d] = %f, want %f", i, data[i], want[i])
		}
	}
}

func TestAdd_SameShape(t *testing.T) {
	b := New()
	x := fromValues(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	y := fromValues(t, []float32{10, 20, 30, 40}, tensor.Shape{2, 2})
	assertValues(t, b.Add(x, y), []float32{11, 22, 33, 44}, 1e-6)
}

func TestAdd_Broadcast(t *testing.T) {
	b := New()
	x := fromValues(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{3, 2})
	bias := fromValues(t, []float32{10, 20}, tensor.Shape{1, 2})

	out := b.Add(x, bias)
	if !out.Shape().Equal(tensor.Shape{3, 2}) {
		t.Fatalf("broadcast shape = %v, want [3 2]", out.Shape())
	}
	assertValues(t, out, []float32{11, 22, 13, 24, 15, 26}, 1e-6)
}

func TestSubMulDiv(t *testing.T) {
	b := New()
	x := fromValues(t, []float32{4, 9, 16}, tensor.Shape{3})
	y := fromValues(t, []float32{2, 3, 4}, tensor.Shape{3})

	assertValues(t, b.Sub(x, y), []float32{2, 6, 12}, 1e-6)
	assertValues(t, b.Mul(x, y), []float32{8, 27, 64}, 1e-6)
	assertValues(t, b.Div(x, y), []float32{2, 3, 4}, 1e-6)
}

func TestScalarOps(t *testing.T) {
	b := New()
	x := fromValues(t, []float32{1, 2, 3}, tensor.Shape{3})
	assertValues(t, b.AddScalar(x, 1.5), []float32{2.5, 3.5, 4.5}, 1e-6)
	assertValues(t, b.MulScalar(x, -2), []float32{-2, -4, -6}, 1e-6)
}

func TestUnaryOps(t *testing.T) {
	b := New()
	x := fromValues(t, []float32{0, 1, 4}, tensor.Shape{3})
	assertValues(t, b.Exp(x), []float32{1, float32(math.E), float32(math.Exp(4))}, 1e-4)
	assertValues(t, b.Sqrt(x), []float32{0, 1, 2}, 1e-6)
}

func TestMatMul_KnownValues(t *testing.T) {
	b := New()
	// [1 2; 3 4] @ [5 6; 7 8] = [19 22; 43 50]
	x := fromValues(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	y := fromValues(t, []float32{5, 6, 7, 8}, tensor.Shape{2, 2})
	assertValues(t, b.MatMul(x, y), []float32{19, 22, 43, 50}, 1e-5)
}

func TestMatMul_Rectangular(t *testing.T) {
	b := New()
	x := fromValues(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	y := fromValues(t, []float32{1, 0, 0, 1, 1, 1}, tensor.Shape{3, 2})

	out := b.MatMul(x, y)
	if !out.Shape().Equal(tensor.Shape{2, 2}) {
		t.Fatalf("shape = %v, want [2 2]", out.Shape())
	}
	assertValues(t, out, []float32{4, 5, 10, 11}, 1e-5)
}

func TestMatMul_SequentialMatchesParallel(t *testing.T) {
	par := New()
	seq := NewSequential()

	n := 64
	data := make([]float32, n*n)
	for i := range data {
		data[i] = float32(i%17) * 0.25
	}
	x := fromValues(t, data, tensor.Shape{n, n})

	a := par.MatMul(x, x).AsFloat32()
	b := seq.MatMul(x, x).AsFloat32()
	for i := range a {
		if math.Abs(float64(a[i]-b[i])) > 1e-3 {
			t.Fatalf("parallel/sequential divergence at %d: %f vs %f", i, a[i], b[i])
		}
	}
}

func TestTranspose_2D(t *testing.T) {
	b := New()
	x := fromValues(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

	out := b.Transpose(x)
	if !out.Shape().Equal(tensor.Shape{3, 2}) {
		t.Fatalf("shape = %v, want [3 2]", out.Shape())
	}
	assertValues(t, out, []float32{1, 4, 2, 5, 3, 6}, 0)
}

func TestReshape_SharesData(t *testing.T) {
	b := New()
	x := fromValues(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

	out := b.Reshape(x, tensor.Shape{3, 2})
	if !out.Shape().Equal(tensor.Shape{3, 2}) {
		t.Fatalf("shape = %v, want [3 2]", out.Shape())
	}
	assertValues(t, out, []float32{1, 2, 3, 4, 5, 6}, 0)
}

func TestSum(t *testing.T) {
	b := New()
	x := fromValues(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	assertValues(t, b.Sum(x), []float32{10}, 1e-6)
}

func TestSumDim(t *testing.T) {
	b := New()
	x := fromValues(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

	rows := b.SumDim(x, 1, false)
	if !rows.Shape().Equal(tensor.Shape{2}) {
		t.Fatalf("shape = %v, want [2]", rows.Shape())
	}
	assertValues(t, rows, []float32{6, 15}, 1e-6)

	cols := b.SumDim(x, 0, false)
	assertValues(t, cols, []float32{5, 7, 9}, 1e-6)

	kept := b.SumDim(x, 1, true)
	if !kept.Shape().Equal(tensor.Shape{2, 1}) {
		t.Fatalf("keepDim shape = %v, want [2 1]", kept.Shape())
	}
}

func TestMeanDim(t *testing.T) {
	b := New()
	x := fromValues(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	assertValues(t, b.MeanDim(x, 1, false), []float32{2, 5}, 1e-6)
}

func TestArgmax_2D(t *testing.T) {
	b := New()
	x := fromValues(t, []float32{1, 5, 2, 9, 0, 3}, tensor.Shape{2, 3})

	out := b.Argmax(x, 1)
	if out.DType() != tensor.Int32 {
		t.Fatalf("dtype = %v, want int32", out.DType())
	}
	idx := out.AsInt32()
	if idx[0] != 1 || idx[1] != 0 {
		t.Errorf("argmax = %v, want [1 0]", idx)
	}
}

func TestSoftmax_RowsSumToOne(t *testing.T) {
	b := New()
	x := fromValues(t, []float32{1, 2, 3, 1000, 1001, 1002}, tensor.Shape{2, 3})

	out := b.Softmax(x, 1).AsFloat32()
	for row := 0; row < 2; row++ {
		var sum float64
		for col := 0; col < 3; col++ {
			v := out[row*3+col]
			if v < 0 || v > 1 {
				t.Errorf("softmax[%d,%d] = %f outside [0,1]", row, col, v)
			}
			sum += float64(v)
		}
		if math.Abs(sum-1) > 1e-5 {
			t.Errorf("row %d sums to %f, want 1", row, sum)
		}
	}

	// Rows with the same relative logits get the same softmax, even with a
	// huge shift (max subtraction keeps it stable).
	for col := 0; col < 3; col++ {
		if math.Abs(float64(out[col]-out[3+col])) > 1e-5 {
			t.Errorf("shifted row differs at col %d: %f vs %f", col, out[col], out[3+col])
		}
	}
}

func TestCast(t *testing.T) {
	b := New()
	x := fromValues(t, []float32{1.7, -2.3, 3.0}, tensor.Shape{3})

	out := b.Cast(x, tensor.Int32)
	if out.DType() != tensor.Int32 {
		t.Fatalf("dtype = %v, want int32", out.DType())
	}
	got := out.AsInt32()
	want := []int32{1, -2, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("cast[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestReLU(t *testing.T) {
	b := New()
	x := fromValues(t, []float32{-1, 0, 2}, tensor.Shape{3})
	assertValues(t, b.ReLU(x), []float32{0, 0, 2}, 0)
}

func TestSigmoid(t *testing.T) {
	b := New()
	x := fromValues(t, []float32{0, 2, -2}, tensor.Shape{3})
	out := b.Sigmoid(x).AsFloat32()

	if math.Abs(float64(out[0])-0.5) > 1e-6 {
		t.Errorf("sigmoid(0) = %f, want 0.5", out[0])
	}
	if math.Abs(float64(out[1]+out[2])-1) > 1e-5 {
		t.Errorf("sigmoid(2)+sigmoid(-2) = %f, want 1", out[1]+out[2])
	}
}

func TestTanh(t *testing.T) {
	b := New()
	x := fromValues(t, []float32{0, 1}, tensor.Shape{2})
	out := b.Tanh(x).AsFloat32()

	if out[0] != 0 {
		t.Errorf("tanh(0) = %f, want 0", out[0])
	}
	if math.Abs(float64(out[1])-math.Tanh(1)) > 1e-5 {
		t.Errorf("tanh(1) = %f, want %f", out[1], math.Tanh(1))
	}
}

func TestDropout_Eval(t *testing.T) {
	b := New()
	x := fromValues(t, []float32{1, 2, 3}, tensor.Shape{3})

	out := b.Dropout(x, 0.5, false)
	assertValues(t, out, []float32{1, 2, 3}, 0)
}

func TestDropout_Training(t *testing.T) {
	b := New()
	n := 10000
	data := make([]float32, n)
	for i := range data {
		data[i] = 1
	}
	x := fromValues(t, data, tensor.Shape{n})

	p := float32(0.25)
	out := b.Dropout(x, p, true).AsFloat32()

	zeroed := 0
	scale := 1 / (1 - p)
	for i, v := range out {
		switch v {
		case 0:
			zeroed++
		case scale:
		default:
			t.Fatalf("out[%d] = %f, want 0 or %f", i, v, scale)
		}
	}

	fraction := float64(zeroed) / float64(n)
	if math.Abs(fraction-float64(p)) > 0.05 {
		t.Errorf("dropped fraction = %f, want ~%f", fraction, p)
	}
}
