// Copyright 2025 The Flint Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/flintml/flint/internal/tensor"
)

// Backend is the interface implemented by compute backends.
//
// A backend owns the actual numeric kernels (element-wise math, matrix
// multiplication, reductions) and reports the device its tensors live on.
// The autodiff package wraps any Backend to add gradient recording.
type Backend = tensor.Backend
