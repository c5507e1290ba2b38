package nn

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/backprop/internal/autodiff"
	"github.com/born-ml/backprop/internal/tensor"
)

func newRNG() *rand.Rand {
	return rand.New(rand.NewPCG(42, 42))
}

func mustTensor(t *testing.T, data []float64, shape tensor.Shape) *tensor.Tensor {
	t.Helper()
	x, err := tensor.FromSlice(data, shape)
	require.NoError(t, err)
	return x
}

func TestNewParameter_ZeroedAccumulator(t *testing.T) {
	p := NewParameter("w", tensor.Ones(tensor.Shape{2, 3}))

	assert.True(t, p.Tensor().RequiresGrad())
	require.NotNil(t, p.Grad())
	assert.Equal(t, []float64{0, 0, 0, 0, 0, 0}, p.Grad())
	assert.Equal(t, 6, p.NumElements())

	p.Grad()[1] = 3
	p.ZeroGrad()
	assert.Equal(t, []float64{0, 0, 0, 0, 0, 0}, p.Grad())
}

func TestLinear_Shapes(t *testing.T) {
	layer := NewLinear(4, 3, newRNG())
	assert.Equal(t, 4, layer.InFeatures())
	assert.Equal(t, 3, layer.OutFeatures())
	assert.Equal(t, tensor.Shape{4, 3}, layer.Weight().Tensor().Shape())
	assert.Equal(t, []float64{0, 0, 0}, layer.Bias().Data())
	assert.Len(t, layer.Parameters(), 2)

	bound := math.Sqrt(6.0 / 7.0)
	for _, v := range layer.Weight().Data() {
		assert.LessOrEqual(t, math.Abs(v), bound)
	}

	out, err := layer.Forward(nil, tensor.Ones(tensor.Shape{5, 4}))
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{5, 3}, out.Shape())

	_, err = layer.Forward(nil, tensor.Ones(tensor.Shape{5, 3}))
	require.ErrorIs(t, err, tensor.ErrShapeMismatch)
	assert.Contains(t, err.Error(), "linear")
}

func TestNewLinearFrom(t *testing.T) {
	w := mustTensor(t, []float64{1, 0, 0, 1}, tensor.Shape{2, 2})
	layer, err := NewLinearFrom(w, nil)
	require.NoError(t, err)
	assert.Nil(t, layer.Bias())
	assert.Len(t, layer.Parameters(), 1)

	out, err := layer.Forward(nil, mustTensor(t, []float64{3, 4}, tensor.Shape{1, 2}))
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 4}, out.Data())

	_, err = NewLinearFrom(tensor.Ones(tensor.Shape{2}), nil)
	require.ErrorIs(t, err, tensor.ErrShapeMismatch)

	_, err = NewLinearFrom(tensor.Ones(tensor.Shape{2, 3}), tensor.Zeros(tensor.Shape{2}))
	require.ErrorIs(t, err, tensor.ErrShapeMismatch)
}

func TestSequential_NamesParametersByIndex(t *testing.T) {
	rng := newRNG()
	model := NewSequential(NewLinear(3, 4, rng), NewReLU(), NewLinear(4, 2, rng))

	names := make([]string, 0)
	for _, p := range model.Parameters() {
		names = append(names, p.Name())
	}
	assert.Equal(t, []string{"0.weight", "0.bias", "2.weight", "2.bias"}, names)
	assert.Equal(t, 3, model.Len())
	assert.IsType(t, &ReLU{}, model.Module(1))
	assert.Panics(t, func() { model.Module(3) })
	assert.Equal(t, 3*4+4+4*2+2, NumParameters(model))
}

func TestSequential_ForwardErrorNamesModule(t *testing.T) {
	rng := newRNG()
	model := NewSequential(NewLinear(3, 4, rng), NewReLU(), NewLinear(5, 2, rng))

	_, err := model.Forward(nil, tensor.Ones(tensor.Shape{1, 3}))
	require.ErrorIs(t, err, tensor.ErrShapeMismatch)
	assert.Contains(t, err.Error(), "module 2")
}

func TestNewMLP(t *testing.T) {
	model, err := NewMLP(newRNG(), 784, 128, 64, 10)
	require.NoError(t, err)

	// Linear, ReLU, Linear, ReLU, Linear, LogSoftmax
	require.Equal(t, 6, model.Len())
	assert.IsType(t, &LogSoftmax{}, model.Module(5))
	assert.Len(t, model.Parameters(), 6)

	x := tensor.RandN(tensor.Shape{8, 784}, rand.New(rand.NewPCG(1, 1)))
	logp, err := model.Forward(nil, x)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{8, 10}, logp.Shape())

	probs := Probabilities(logp)
	for i := 0; i < 8; i++ {
		sum := 0.0
		for _, p := range probs.Row(i) {
			sum += p
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
	}

	_, err = NewMLP(newRNG(), 10)
	assert.Error(t, err)
	_, err = NewMLP(newRNG(), 10, 0, 2)
	assert.Error(t, err)
}

func TestMLP_BackwardReachesEveryParameter(t *testing.T) {
	model, err := NewMLP(newRNG(), 6, 5, 4, 3)
	require.NoError(t, err)
	x := tensor.RandN(tensor.Shape{4, 6}, rand.New(rand.NewPCG(2, 2)))

	g := autodiff.NewGraph()
	logp, err := model.Forward(g, x)
	require.NoError(t, err)
	loss, err := NLLLoss(g, logp, []int{0, 1, 2, 1})
	require.NoError(t, err)
	require.NoError(t, g.Backward(loss))

	for _, p := range model.Parameters() {
		nonZero := false
		for _, v := range p.Grad() {
			if v != 0 {
				nonZero = true
				break
			}
		}
		assert.True(t, nonZero, "parameter %s received no gradient", p.Name())
	}
}

func TestCrossEntropy_MatchesLogSoftmaxPlusNLL(t *testing.T) {
	logits := mustTensor(t, []float64{1, 2, 3, 3, 2, 1}, tensor.Shape{2, 3})
	labels := []int{2, 1}

	ce, err := CrossEntropy(nil, logits, labels)
	require.NoError(t, err)

	logp, err := NewLogSoftmax().Forward(nil, logits)
	require.NoError(t, err)
	nll, err := NLLLoss(nil, logp, labels)
	require.NoError(t, err)

	a, _ := ce.Item()
	b, _ := nll.Item()
	assert.InDelta(t, b, a, 1e-12)
}

func TestPredictAndAccuracy(t *testing.T) {
	scores := mustTensor(t, []float64{
		0.1, 0.7, 0.2,
		0.8, 0.1, 0.1,
		0.2, 0.3, 0.5,
		0.3, 0.3, 0.4,
	}, tensor.Shape{4, 3})

	assert.Equal(t, []int{1, 0, 2, 2}, Predict(scores))

	acc, err := Accuracy(scores, []int{1, 0, 2, 0})
	require.NoError(t, err)
	assert.InDelta(t, 0.75, acc, 1e-12)

	_, err = Accuracy(scores, []int{1})
	require.ErrorIs(t, err, tensor.ErrShapeMismatch)
}
