package autodiff_test

import (
	"math"
	"testing"

	"github.com/flintml/flint/internal/autodiff"
	"github.com/flintml/flint/internal/backend/cpu"
	"github.com/flintml/flint/internal/tensor"
)

// TestBackend_Name tests the Name method.
func TestBackend_Name(t *testing.T) {
	backend := autodiff.New(cpu.New())
	expected := "Autodiff(CPU)"
	if backend.Name() != expected {
		t.Errorf("Name() = %s, want %s", backend.Name(), expected)
	}
}

// TestBackend_Device tests the Device method.
func TestBackend_Device(t *testing.T) {
	backend := autodiff.New(cpu.New())
	if backend.Device() != tensor.CPU {
		t.Errorf("Device() = %v, want %v", backend.Device(), tensor.CPU)
	}
}

// TestTape_Recording tests tape recording on/off.
func TestTape_Recording(t *testing.T) {
	backend := autodiff.New(cpu.New())
	tape := backend.Tape()

	if tape.IsRecording() {
		t.Error("tape should not record before StartRecording")
	}

	tape.StartRecording()
	if !tape.IsRecording() {
		t.Error("tape should record after StartRecording")
	}

	x, _ := tensor.FromSlice([]float32{1, 2}, tensor.Shape{2}, backend)
	_ = backend.Add(x.Raw(), x.Raw())
	if tape.Len() != 1 {
		t.Errorf("tape length = %d, want 1", tape.Len())
	}

	tape.StopRecording()
	_ = backend.Add(x.Raw(), x.Raw())
	if tape.Len() != 1 {
		t.Errorf("tape should not grow while stopped, length = %d", tape.Len())
	}

	tape.Clear()
	if tape.Len() != 0 {
		t.Errorf("tape length after Clear = %d, want 0", tape.Len())
	}
}

// TestBackward_Square tests d(x*x)/dx = 2x.
func TestBackward_Square(t *testing.T) {
	backend := autodiff.New(cpu.New())
	tape := backend.Tape()
	tape.StartRecording()
	defer tape.StopRecording()

	x, _ := tensor.FromSlice([]float32{3.0}, tensor.Shape{1}, backend)
	y := tensor.New[float32](backend.Mul(x.Raw(), x.Raw()), backend)

	grads := autodiff.Backward(y, backend)
	tape.Clear()

	got := grads[x.Raw()].AsFloat32()[0]
	if math.Abs(float64(got-6.0)) > 1e-5 {
		t.Errorf("d(x²)/dx at x=3: got %f, want 6", got)
	}
}

// TestBackward_MatMul tests matmul gradients dA = g·Bᵀ, dB = Aᵀ·g.
func TestBackward_MatMul(t *testing.T) {
	backend := autodiff.New(cpu.New())
	tape := backend.Tape()
	tape.StartRecording()
	defer tape.StopRecording()

	a, _ := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2}, backend)
	b, _ := tensor.FromSlice([]float32{5, 6, 7, 8}, tensor.Shape{2, 2}, backend)
	y := tensor.New[float32](backend.MatMul(a.Raw(), b.Raw()), backend)

	grads := autodiff.Backward(y, backend)
	tape.Clear()

	// Seed is all ones, so dA = ones·Bᵀ and dB = Aᵀ·ones.
	wantA := []float32{11, 15, 11, 15} // row sums of B per column
	wantB := []float32{4, 4, 6, 6}     // column sums of A per row
	gotA := grads[a.Raw()].AsFloat32()
	gotB := grads[b.Raw()].AsFloat32()
	for i := range wantA {
		if math.Abs(float64(gotA[i]-wantA[i])) > 1e-5 {
			t.Errorf("dA[%d]: got %f, want %f", i, gotA[i], wantA[i])
		}
		if math.Abs(float64(gotB[i]-wantB[i])) > 1e-5 {
			t.Errorf("dB[%d]: got %f, want %f", i, gotB[i], wantB[i])
		}
	}
}

// TestBackward_BroadcastAdd tests gradient reduction over broadcast dims,
// the pattern bias addition uses.
func TestBackward_BroadcastAdd(t *testing.T) {
	backend := autodiff.New(cpu.New())
	tape := backend.Tape()
	tape.StartRecording()
	defer tape.StopRecording()

	x, _ := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{3, 2}, backend)
	bias, _ := tensor.FromSlice([]float32{10, 20}, tensor.Shape{1, 2}, backend)
	y := tensor.New[float32](backend.Add(x.Raw(), bias.Raw()), backend)

	grads := autodiff.Backward(y, backend)
	tape.Clear()

	// Bias gradient sums over the broadcast batch dimension.
	gotBias := grads[bias.Raw()].AsFloat32()
	for i, want := range []float32{3, 3} {
		if math.Abs(float64(gotBias[i]-want)) > 1e-5 {
			t.Errorf("dBias[%d]: got %f, want %f", i, gotBias[i], want)
		}
	}

	gotX := grads[x.Raw()].AsFloat32()
	for i := range gotX {
		if math.Abs(float64(gotX[i]-1)) > 1e-5 {
			t.Errorf("dX[%d]: got %f, want 1", i, gotX[i])
		}
	}
}

// TestBackward_ReLU tests the ReLU gradient mask.
func TestBackward_ReLU(t *testing.T) {
	backend := autodiff.New(cpu.New())
	tape := backend.Tape()
	tape.StartRecording()
	defer tape.StopRecording()

	x, _ := tensor.FromSlice([]float32{-2, -0.5, 0, 0.5, 2}, tensor.Shape{5}, backend)
	y := tensor.New[float32](backend.ReLU(x.Raw()), backend)

	grads := autodiff.Backward(y, backend)
	tape.Clear()

	want := []float32{0, 0, 0, 1, 1}
	got := grads[x.Raw()].AsFloat32()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("dReLU[%d]: got %f, want %f", i, got[i], want[i])
		}
	}
}

// TestBackward_CrossEntropy tests the fused loss gradient
// (softmax - onehot) / batch.
func TestBackward_CrossEntropy(t *testing.T) {
	backend := autodiff.New(cpu.New())
	tape := backend.Tape()
	tape.StartRecording()
	defer tape.StopRecording()

	// Uniform logits over 2 classes: softmax = [0.5, 0.5].
	logits, _ := tensor.FromSlice([]float32{0, 0}, tensor.Shape{1, 2}, backend)
	targets, _ := tensor.FromSlice([]int32{0}, tensor.Shape{1}, backend)

	loss := tensor.New[float32](backend.CrossEntropy(logits.Raw(), targets.Raw()), backend)
	if math.Abs(float64(loss.Data()[0])-math.Log(2)) > 1e-5 {
		t.Errorf("loss: got %f, want %f", loss.Data()[0], math.Log(2))
	}

	grads := autodiff.Backward(loss, backend)
	tape.Clear()

	// d/dlogits = softmax - onehot = [0.5-1, 0.5-0] = [-0.5, 0.5].
	want := []float32{-0.5, 0.5}
	got := grads[logits.Raw()].AsFloat32()
	for i := range want {
		if math.Abs(float64(got[i]-want[i])) > 1e-5 {
			t.Errorf("dLogits[%d]: got %f, want %f", i, got[i], want[i])
		}
	}
}

// TestBackward_MSE tests the MSE gradient 2(pred-target)/n.
func TestBackward_MSE(t *testing.T) {
	backend := autodiff.New(cpu.New())
	tape := backend.Tape()
	tape.StartRecording()
	defer tape.StopRecording()

	pred, _ := tensor.FromSlice([]float32{1, 2}, tensor.Shape{2}, backend)
	target, _ := tensor.FromSlice([]float32{0, 0}, tensor.Shape{2}, backend)

	loss := tensor.New[float32](backend.MSE(pred.Raw(), target.Raw()), backend)
	if math.Abs(float64(loss.Data()[0])-2.5) > 1e-5 {
		t.Errorf("MSE: got %f, want 2.5", loss.Data()[0])
	}

	grads := autodiff.Backward(loss, backend)
	tape.Clear()

	want := []float32{1, 2} // 2*(pred-target)/2
	got := grads[pred.Raw()].AsFloat32()
	for i := range want {
		if math.Abs(float64(got[i]-want[i])) > 1e-5 {
			t.Errorf("dPred[%d]: got %f, want %f", i, got[i], want[i])
		}
	}
}
