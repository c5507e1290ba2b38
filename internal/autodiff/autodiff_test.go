package autodiff_test

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"

	"github.com/born-ml/backprop/internal/autodiff"
	"github.com/born-ml/backprop/internal/autodiff/ops"
	"github.com/born-ml/backprop/internal/tensor"
)

func mustTensor(t *testing.T, data []float64, shape tensor.Shape) *tensor.Tensor {
	t.Helper()
	x, err := tensor.FromSlice(data, shape)
	require.NoError(t, err)
	return x
}

// classifierLoss runs linear -> relu -> linear -> log_softmax -> nll on g.
func classifierLoss(t *testing.T, g *autodiff.Graph, x, w1, b1, w2, b2 *tensor.Tensor, labels []int) *tensor.Tensor {
	t.Helper()
	h, err := g.Linear(x, w1, b1)
	require.NoError(t, err)
	h, err = g.ReLU(h)
	require.NoError(t, err)
	logits, err := g.Linear(h, w2, b2)
	require.NoError(t, err)
	logp, err := g.LogSoftmax(logits)
	require.NoError(t, err)
	loss, err := g.NLLLoss(logp, labels)
	require.NoError(t, err)
	return loss
}

func TestGraph_RecordsOneNodePerOperation(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	x := tensor.RandN(tensor.Shape{4, 3}, rng)
	w1 := tensor.RandN(tensor.Shape{3, 5}, rng)
	w2 := tensor.RandN(tensor.Shape{5, 2}, rng)

	g := autodiff.NewGraph()
	loss := classifierLoss(t, g, x, w1, nil, w2, nil, []int{0, 1, 1, 0})

	require.Equal(t, 5, g.Len())
	kinds := make([]ops.Kind, 0, g.Len())
	for i, node := range g.Nodes() {
		assert.Equal(t, i, node.Seq())
		kinds = append(kinds, node.Kind())
	}
	assert.Equal(t, []ops.Kind{
		ops.KindLinear, ops.KindReLU, ops.KindLinear, ops.KindLogSoftmax, ops.KindNLLLoss,
	}, kinds)
	assert.Same(t, g.Nodes()[4], g.Producer(loss))
	assert.Nil(t, g.Producer(x), "leaves have no producer")
}

func TestBackward_MatchesFiniteDifferences(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))
	x := tensor.RandN(tensor.Shape{4, 3}, rng)
	w1 := tensor.RandN(tensor.Shape{3, 5}, rng).SetRequiresGrad(true)
	b1 := tensor.RandN(tensor.Shape{5}, rng).SetRequiresGrad(true)
	w2 := tensor.RandN(tensor.Shape{5, 3}, rng).SetRequiresGrad(true)
	b2 := tensor.RandN(tensor.Shape{3}, rng).SetRequiresGrad(true)
	labels := []int{2, 0, 1, 2}

	g := autodiff.NewGraph()
	loss := classifierLoss(t, g, x, w1, b1, w2, b2, labels)
	require.NoError(t, g.Backward(loss))

	// A nil graph evaluates without recording.
	lossAt := func() float64 {
		v, err := classifierLoss(t, nil, x, w1, b1, w2, b2, labels).Item()
		require.NoError(t, err)
		return v
	}

	for name, p := range map[string]*tensor.Tensor{"w1": w1, "b1": b1, "w2": w2, "b2": b2} {
		buf := p.Data()
		x0 := append([]float64(nil), buf...)
		want := fd.Gradient(nil, func(v []float64) float64 {
			copy(buf, v)
			return lossAt()
		}, x0, &fd.Settings{Formula: fd.Central, Step: 1e-6})
		copy(buf, x0)

		assert.InDeltaSlice(t, want, p.Grad(), 1e-4, name)
	}
}

func TestBackward_SharedWeightSumsBothPaths(t *testing.T) {
	// h = x @ W, y = h @ W: W feeds two nodes and must receive both contributions.
	x := mustTensor(t, []float64{1, 2, -1, 0.5}, tensor.Shape{2, 2})
	wData := []float64{0.5, -0.3, 0.8, 0.2}
	labels := []int{1, 0}

	run := func(first, second *tensor.Tensor) {
		g := autodiff.NewGraph()
		h, err := g.Linear(x, first, nil)
		require.NoError(t, err)
		y, err := g.Linear(h, second, nil)
		require.NoError(t, err)
		logp, err := g.LogSoftmax(y)
		require.NoError(t, err)
		loss, err := g.NLLLoss(logp, labels)
		require.NoError(t, err)
		require.NoError(t, g.Backward(loss))
	}

	shared := mustTensor(t, wData, tensor.Shape{2, 2}).SetRequiresGrad(true)
	run(shared, shared)

	// Each path on its own: the other use of W is a constant copy.
	viaFirst := mustTensor(t, wData, tensor.Shape{2, 2}).SetRequiresGrad(true)
	run(viaFirst, mustTensor(t, wData, tensor.Shape{2, 2}))
	viaSecond := mustTensor(t, wData, tensor.Shape{2, 2}).SetRequiresGrad(true)
	run(mustTensor(t, wData, tensor.Shape{2, 2}), viaSecond)

	want := make([]float64, 4)
	for i := range want {
		want[i] = viaFirst.Grad()[i] + viaSecond.Grad()[i]
	}
	assert.InDeltaSlice(t, want, shared.Grad(), 1e-12)
	assert.NotEqual(t, 0.0, viaFirst.Grad()[0])
	assert.NotEqual(t, 0.0, viaSecond.Grad()[0])
}

func TestBackward_AccumulatesAcrossCalls(t *testing.T) {
	x := mustTensor(t, []float64{1, 2}, tensor.Shape{1, 2})
	w := mustTensor(t, []float64{1, 0, 0, 1}, tensor.Shape{2, 2}).SetRequiresGrad(true)

	step := func() {
		g := autodiff.NewGraph()
		logits, err := g.Linear(x, w, nil)
		require.NoError(t, err)
		logp, err := g.LogSoftmax(logits)
		require.NoError(t, err)
		loss, err := g.NLLLoss(logp, []int{1})
		require.NoError(t, err)
		require.NoError(t, g.Backward(loss))
	}

	step()
	once := append([]float64(nil), w.Grad()...)
	step()
	for i := range once {
		assert.InDelta(t, 2*once[i], w.Grad()[i], 1e-12, "without a reset gradients add up")
	}
}

func TestBackward_InputGradient(t *testing.T) {
	x := mustTensor(t, []float64{1, 2}, tensor.Shape{1, 2}).SetRequiresGrad(true)
	w := mustTensor(t, []float64{1, 0, 0, 1}, tensor.Shape{2, 2})

	g := autodiff.NewGraph()
	logits, err := g.Linear(x, w, nil)
	require.NoError(t, err)
	logp, err := g.LogSoftmax(logits)
	require.NoError(t, err)
	loss, err := g.NLLLoss(logp, []int{1})
	require.NoError(t, err)
	require.NoError(t, g.Backward(loss))

	// W is the identity, so dL/dx = softmax - onehot.
	s := 1 / (1 + math.E)
	assert.InDeltaSlice(t, []float64{s, -s}, x.Grad(), 1e-12)
	assert.False(t, w.HasGrad(), "tensors without RequiresGrad get no accumulator")
}

func TestBackward_UsageErrors(t *testing.T) {
	x := mustTensor(t, []float64{1, 2, 3, 4}, tensor.Shape{2, 2})
	w := mustTensor(t, []float64{1, 0, 0, 1}, tensor.Shape{2, 2}).SetRequiresGrad(true)

	t.Run("non-scalar", func(t *testing.T) {
		g := autodiff.NewGraph()
		y, err := g.Linear(x, w, nil)
		require.NoError(t, err)
		err = g.Backward(y)
		require.ErrorIs(t, err, autodiff.ErrNotScalar)
		assert.NotErrorIs(t, err, autodiff.ErrNoGraph)
		assert.Equal(t, 1, g.Len(), "a rejected call leaves the graph intact")
	})

	t.Run("leaf", func(t *testing.T) {
		g := autodiff.NewGraph()
		require.ErrorIs(t, g.Backward(tensor.Scalar(1)), autodiff.ErrNoGraph)
	})

	t.Run("tracking disabled", func(t *testing.T) {
		g := autodiff.NewGraph()
		var loss *tensor.Tensor
		require.NoError(t, g.NoGrad(func() error {
			logp, err := g.LogSoftmax(x)
			if err != nil {
				return err
			}
			loss, err = g.NLLLoss(logp, []int{0, 1})
			return err
		}))
		require.ErrorIs(t, g.Backward(loss), autodiff.ErrNoGraph)
	})

	t.Run("nil graph", func(t *testing.T) {
		var g *autodiff.Graph
		logp, err := g.LogSoftmax(x)
		require.NoError(t, err)
		loss, err := g.NLLLoss(logp, []int{0, 1})
		require.NoError(t, err)
		require.ErrorIs(t, g.Backward(loss), autodiff.ErrNoGraph)
	})

	t.Run("second backward", func(t *testing.T) {
		g := autodiff.NewGraph()
		logp, err := g.LogSoftmax(x)
		require.NoError(t, err)
		loss, err := g.NLLLoss(logp, []int{0, 1})
		require.NoError(t, err)
		require.NoError(t, g.Backward(loss))
		assert.Equal(t, 0, g.Len(), "graph is discarded after backward")
		require.ErrorIs(t, g.Backward(loss), autodiff.ErrNoGraph)
	})

	t.Run("other graph", func(t *testing.T) {
		g1, g2 := autodiff.NewGraph(), autodiff.NewGraph()
		logp, err := g1.LogSoftmax(x)
		require.NoError(t, err)
		loss, err := g1.NLLLoss(logp, []int{0, 1})
		require.NoError(t, err)
		require.ErrorIs(t, g2.Backward(loss), autodiff.ErrNoGraph)
	})
}

func TestNoGrad_RestoresStateOnEveryExit(t *testing.T) {
	g := autodiff.NewGraph()
	require.True(t, g.Recording())

	sentinel := errors.New("forward failed")
	err := g.NoGrad(func() error {
		assert.False(t, g.Recording())
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)
	assert.True(t, g.Recording(), "restored after error")

	assert.Panics(t, func() {
		_ = g.NoGrad(func() error {
			panic("boom")
		})
	})
	assert.True(t, g.Recording(), "restored after panic")

	require.NoError(t, g.NoGrad(func() error {
		return g.NoGrad(func() error { return nil })
	}))
	assert.True(t, g.Recording(), "nested scopes restore the outer state")

	restore := g.Pause()
	require.NoError(t, g.NoGrad(func() error { return nil }))
	assert.False(t, g.Recording(), "NoGrad restores the previous state, not always-on")
	restore()
	assert.True(t, g.Recording())
}

func TestNoGrad_ForwardIsIdempotent(t *testing.T) {
	rng := rand.New(rand.NewPCG(9, 9))
	x := tensor.RandN(tensor.Shape{3, 4}, rng)
	w := tensor.RandN(tensor.Shape{4, 3}, rng).SetRequiresGrad(true)
	b := tensor.RandN(tensor.Shape{3}, rng).SetRequiresGrad(true)
	w.ZeroGrad()
	b.ZeroGrad()

	g := autodiff.NewGraph()
	forward := func() []float64 {
		var out []float64
		require.NoError(t, g.NoGrad(func() error {
			h, err := g.Linear(x, w, b)
			if err != nil {
				return err
			}
			logp, err := g.LogSoftmax(h)
			if err != nil {
				return err
			}
			out = logp.Data()
			return nil
		}))
		return out
	}

	first, second := forward(), forward()
	assert.Equal(t, first, second)
	assert.Equal(t, 0, g.Len())
	assert.Equal(t, []float64{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}, w.Grad())
	assert.Equal(t, []float64{0, 0, 0}, b.Grad())
}

func TestRelease(t *testing.T) {
	g := autodiff.NewGraph()
	_, err := g.ReLU(tensor.Ones(tensor.Shape{2}))
	require.NoError(t, err)
	require.Equal(t, 1, g.Len())

	g.Release()
	assert.Equal(t, 0, g.Len())
	assert.False(t, g.Recording())

	_, err = g.ReLU(tensor.Ones(tensor.Shape{2}))
	require.NoError(t, err, "a released graph still computes values")
	assert.Equal(t, 0, g.Len())
}
