package models

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
)

const (
	DefaultLSTMUnits        = 64
	DefaultLSTMDropout      = 0.2
	DefaultLSTMLearningRate = 0.0015
	DefaultLSTMEpochs       = 80
	DefaultLSTMPatience     = 20

	defaultPlateauPatience = 7
	defaultPlateauFactor   = 0.5
	defaultMinLearningRate = 1e-5
	defaultValidationSplit = 0.15

	adamBeta1   = 0.9
	adamBeta2   = 0.999
	adamEpsilon = 1e-8
)

var (
	ErrNegativeUnits        = errors.New("units must be positive")
	ErrInvalidDropout       = errors.New("dropout must be in [0, 1)")
	ErrNegativeLearningRate = errors.New("learning rate must be positive")
	ErrNegativeEpochs       = errors.New("epochs must be positive")
)

// LSTMOptions represents input options to train the recurrent network
type LSTMOptions struct {
	// Units is the hidden state width of the single recurrent layer.
	Units int

	// Dropout is applied to the final hidden state during training only.
	Dropout float64

	// LearningRate is the initial Adam step size, halved on validation-loss
	// plateaus down to MinLearningRate.
	LearningRate float64

	// Epochs is the upper bound on training passes. Early stopping on
	// validation loss usually ends training before this.
	Epochs int

	// BatchSize sets the minibatch size. 0 resolves to max(32, n/20) at fit
	// time.
	BatchSize int

	// Patience is the number of epochs without validation improvement
	// before training stops and the best weights are restored.
	Patience int

	// PlateauPatience is the number of epochs without improvement before
	// the learning rate is multiplied by PlateauFactor.
	PlateauPatience int
	PlateauFactor   float64
	MinLearningRate float64

	// ValidationSplit is the trailing fraction of training windows held out
	// to monitor generalization during training.
	ValidationSplit float64

	// Seed drives weight initialization, batch shuffling, and dropout so a
	// fit is reproducible.
	Seed uint64
}

// Validate runs basic validation on LSTM options
func (l *LSTMOptions) Validate() (*LSTMOptions, error) {
	if l == nil {
		l = NewDefaultLSTMOptions()
	}
	if l.Units <= 0 {
		return nil, ErrNegativeUnits
	}
	if l.Dropout < 0 || l.Dropout >= 1 {
		return nil, ErrInvalidDropout
	}
	if l.LearningRate <= 0 {
		return nil, ErrNegativeLearningRate
	}
	if l.Epochs <= 0 {
		return nil, ErrNegativeEpochs
	}
	if l.Patience <= 0 {
		l.Patience = DefaultLSTMPatience
	}
	if l.PlateauPatience <= 0 {
		l.PlateauPatience = defaultPlateauPatience
	}
	if l.PlateauFactor <= 0 || l.PlateauFactor >= 1 {
		l.PlateauFactor = defaultPlateauFactor
	}
	if l.MinLearningRate <= 0 {
		l.MinLearningRate = defaultMinLearningRate
	}
	if l.ValidationSplit < 0 || l.ValidationSplit >= 1 {
		l.ValidationSplit = defaultValidationSplit
	}
	return l, nil
}

// NewDefaultLSTMOptions returns a default set of LSTM options
func NewDefaultLSTMOptions() *LSTMOptions {
	return &LSTMOptions{
		Units:           DefaultLSTMUnits,
		Dropout:         DefaultLSTMDropout,
		LearningRate:    DefaultLSTMLearningRate,
		Epochs:          DefaultLSTMEpochs,
		Patience:        DefaultLSTMPatience,
		PlateauPatience: defaultPlateauPatience,
		PlateauFactor:   defaultPlateauFactor,
		MinLearningRate: defaultMinLearningRate,
		ValidationSplit: defaultValidationSplit,
	}
}

// NewLSTMOptionsForSize scales the architecture with the training-set size,
// keeping small datasets on a narrow network with lighter dropout.
func NewLSTMOptionsForSize(n int) *LSTMOptions {
	opt := NewDefaultLSTMOptions()
	switch {
	case n < 150:
		opt.Units = 32
		opt.Dropout = 0.15
	case n < 400:
		opt.Units = 64
		opt.Dropout = 0.15
	default:
		opt.Units = 64
		opt.Dropout = 0.2
	}
	return opt
}

// LSTM is a single recurrent layer feeding one dense output unit, trained
// with Adam on mean absolute error via backpropagation through time. All
// parameters live in one flat vector so checkpointing and the optimizer
// state stay trivial.
type LSTM struct {
	opt *LSTMOptions

	inputDim int
	seqLen   int

	// theta layout: input kernel (4U x D), recurrent kernel (4U x U),
	// gate biases (4U), output weights (U), output bias (1). Gate rows are
	// ordered input, forget, cell, output.
	theta []float64
	oWH   int
	oB    int
	oWOut int
	oBOut int
}

// NewLSTM initializes an LSTM model ready for fitting
func NewLSTM(opt *LSTMOptions) (*LSTM, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	return &LSTM{opt: opt}, nil
}

type lstmCache struct {
	x  [][]float64
	i  [][]float64
	f  [][]float64
	g  [][]float64
	o  [][]float64
	c  [][]float64
	tc [][]float64
	h  [][]float64
}

func sigmoid(v float64) float64 {
	return 1.0 / (1.0 + math.Exp(-v))
}

func (l *LSTM) init(rng *rand.Rand) {
	u := l.opt.Units
	d := l.inputDim

	l.oWH = 4 * u * d
	l.oB = l.oWH + 4*u*u
	l.oWOut = l.oB + 4*u
	l.oBOut = l.oWOut + u
	l.theta = make([]float64, l.oBOut+1)

	glorot := func(lo, hi int, fanIn, fanOut int) {
		limit := math.Sqrt(6.0 / float64(fanIn+fanOut))
		for i := lo; i < hi; i++ {
			l.theta[i] = (rng.Float64()*2.0 - 1.0) * limit
		}
	}
	glorot(0, l.oWH, d, 4*u)
	glorot(l.oWH, l.oB, u, 4*u)
	glorot(l.oWOut, l.oBOut, u, 1)

	// forget gate bias starts at 1 so early gradients pass through the
	// cell state
	for i := 0; i < u; i++ {
		l.theta[l.oB+u+i] = 1.0
	}
}

// forward runs one window through the network, optionally recording the per
// timestep activations needed by backpropagation.
func (l *LSTM) forward(window [][]float64, cache *lstmCache) []float64 {
	u := l.opt.Units
	d := l.inputDim
	wx := l.theta[:l.oWH]
	wh := l.theta[l.oWH:l.oB]
	b := l.theta[l.oB:l.oWOut]

	h := make([]float64, u)
	c := make([]float64, u)
	z := make([]float64, 4*u)

	for t := 0; t < len(window); t++ {
		xt := window[t]
		for r := 0; r < 4*u; r++ {
			acc := b[r]
			wxRow := wx[r*d : (r+1)*d]
			for j, v := range xt {
				acc += wxRow[j] * v
			}
			whRow := wh[r*u : (r+1)*u]
			for k, v := range h {
				acc += whRow[k] * v
			}
			z[r] = acc
		}

		it := make([]float64, u)
		ft := make([]float64, u)
		gt := make([]float64, u)
		ot := make([]float64, u)
		ct := make([]float64, u)
		tct := make([]float64, u)
		ht := make([]float64, u)
		for j := 0; j < u; j++ {
			it[j] = sigmoid(z[j])
			ft[j] = sigmoid(z[u+j])
			gt[j] = math.Tanh(z[2*u+j])
			ot[j] = sigmoid(z[3*u+j])
			ct[j] = ft[j]*c[j] + it[j]*gt[j]
			tct[j] = math.Tanh(ct[j])
			ht[j] = ot[j] * tct[j]
		}
		h, c = ht, ct

		if cache != nil {
			cache.x = append(cache.x, xt)
			cache.i = append(cache.i, it)
			cache.f = append(cache.f, ft)
			cache.g = append(cache.g, gt)
			cache.o = append(cache.o, ot)
			cache.c = append(cache.c, ct)
			cache.tc = append(cache.tc, tct)
			cache.h = append(cache.h, ht)
		}
	}
	return h
}

func (l *LSTM) output(h []float64) float64 {
	wOut := l.theta[l.oWOut:l.oBOut]
	pred := l.theta[l.oBOut]
	for j, v := range h {
		pred += wOut[j] * v
	}
	return pred
}

// backward accumulates gradients for one window given the loss derivative at
// the output unit and the dropout mask applied to the final hidden state.
func (l *LSTM) backward(cache *lstmCache, dPred float64, mask []float64, grad []float64) {
	u := l.opt.Units
	d := l.inputDim
	wh := l.theta[l.oWH:l.oB]
	wOut := l.theta[l.oWOut:l.oBOut]
	gwx := grad[:l.oWH]
	gwh := grad[l.oWH:l.oB]
	gb := grad[l.oB:l.oWOut]
	gwOut := grad[l.oWOut:l.oBOut]

	steps := len(cache.h)
	hLast := cache.h[steps-1]
	dh := make([]float64, u)
	for j := 0; j < u; j++ {
		gwOut[j] += dPred * hLast[j] * mask[j]
		dh[j] = dPred * wOut[j] * mask[j]
	}
	grad[l.oBOut] += dPred

	dc := make([]float64, u)
	dz := make([]float64, 4*u)
	for t := steps - 1; t >= 0; t-- {
		it, ft, gt, ot := cache.i[t], cache.f[t], cache.g[t], cache.o[t]
		tct := cache.tc[t]

		var cPrev, hPrev []float64
		if t > 0 {
			cPrev = cache.c[t-1]
			hPrev = cache.h[t-1]
		} else {
			cPrev = make([]float64, u)
			hPrev = make([]float64, u)
		}

		for j := 0; j < u; j++ {
			do := dh[j] * tct[j]
			dcj := dc[j] + dh[j]*ot[j]*(1.0-tct[j]*tct[j])

			di := dcj * gt[j]
			dg := dcj * it[j]
			df := dcj * cPrev[j]
			dc[j] = dcj * ft[j]

			dz[j] = di * it[j] * (1.0 - it[j])
			dz[u+j] = df * ft[j] * (1.0 - ft[j])
			dz[2*u+j] = dg * (1.0 - gt[j]*gt[j])
			dz[3*u+j] = do * ot[j] * (1.0 - ot[j])
		}

		xt := cache.x[t]
		for r := 0; r < 4*u; r++ {
			dzr := dz[r]
			if dzr == 0 {
				continue
			}
			gwxRow := gwx[r*d : (r+1)*d]
			for j, v := range xt {
				gwxRow[j] += dzr * v
			}
			gwhRow := gwh[r*u : (r+1)*u]
			for k, v := range hPrev {
				gwhRow[k] += dzr * v
			}
			gb[r] += dzr
		}

		for k := 0; k < u; k++ {
			acc := 0.0
			for r := 0; r < 4*u; r++ {
				acc += wh[r*u+k] * dz[r]
			}
			dh[k] = acc
		}
	}
}

// Fit trains the network according to the given training windows
func (l *LSTM) Fit(x [][][]float64, y []float64) error {
	if l.opt == nil {
		return ErrNoOptions
	}
	if len(x) == 0 {
		return ErrNoTrainingData
	}
	if len(x) != len(y) {
		return fmt.Errorf("got %d training windows and %d targets, %w", len(x), len(y), ErrTargetLenMismatch)
	}

	l.seqLen = len(x[0])
	l.inputDim = len(x[0][0])

	rng := rand.New(rand.NewPCG(l.opt.Seed, l.opt.Seed+1))
	l.init(rng)

	n := len(x)
	valN := int(float64(n) * l.opt.ValidationSplit)
	trainX, trainY := x[:n-valN], y[:n-valN]
	valX, valY := x[n-valN:], y[n-valN:]
	if valN == 0 {
		// too few windows to hold any out, monitor training loss instead
		valX, valY = trainX, trainY
	}

	batch := l.opt.BatchSize
	if batch <= 0 {
		batch = n / 20
		if batch < 32 {
			batch = 32
		}
	}

	lr := l.opt.LearningRate
	adamM := make([]float64, len(l.theta))
	adamV := make([]float64, len(l.theta))
	adamT := 0
	grad := make([]float64, len(l.theta))

	best := make([]float64, len(l.theta))
	copy(best, l.theta)
	bestLoss := math.Inf(1)
	sinceBest := 0
	sincePlateau := 0

	order := make([]int, len(trainX))
	for i := range order {
		order[i] = i
	}

	keep := 1.0 - l.opt.Dropout
	mask := make([]float64, l.opt.Units)

	for epoch := 0; epoch < l.opt.Epochs; epoch++ {
		rng.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})

		for start := 0; start < len(order); start += batch {
			end := start + batch
			if end > len(order) {
				end = len(order)
			}
			for i := range grad {
				grad[i] = 0
			}

			scale := 1.0 / float64(end-start)
			for _, idx := range order[start:end] {
				cache := &lstmCache{}
				h := l.forward(trainX[idx], cache)

				for j := range mask {
					if l.opt.Dropout > 0 && rng.Float64() < l.opt.Dropout {
						mask[j] = 0
					} else {
						mask[j] = 1.0 / keep
					}
				}
				dropped := make([]float64, len(h))
				for j, v := range h {
					dropped[j] = v * mask[j]
				}

				pred := l.output(dropped)
				diff := pred - trainY[idx]
				var dPred float64
				if diff > 0 {
					dPred = scale
				} else if diff < 0 {
					dPred = -scale
				}
				l.backward(cache, dPred, mask, grad)
			}

			adamT++
			c1 := 1.0 - math.Pow(adamBeta1, float64(adamT))
			c2 := 1.0 - math.Pow(adamBeta2, float64(adamT))
			for i, g := range grad {
				adamM[i] = adamBeta1*adamM[i] + (1.0-adamBeta1)*g
				adamV[i] = adamBeta2*adamV[i] + (1.0-adamBeta2)*g*g
				mHat := adamM[i] / c1
				vHat := adamV[i] / c2
				l.theta[i] -= lr * mHat / (math.Sqrt(vHat) + adamEpsilon)
			}
		}

		valLoss := 0.0
		for i, window := range valX {
			pred := l.output(l.forward(window, nil))
			valLoss += math.Abs(pred - valY[i])
		}
		valLoss /= float64(len(valY))

		if valLoss < bestLoss {
			bestLoss = valLoss
			copy(best, l.theta)
			sinceBest = 0
			sincePlateau = 0
			continue
		}
		sinceBest++
		sincePlateau++
		if sinceBest >= l.opt.Patience {
			break
		}
		if sincePlateau >= l.opt.PlateauPatience {
			lr *= l.opt.PlateauFactor
			if lr < l.opt.MinLearningRate {
				lr = l.opt.MinLearningRate
			}
			sincePlateau = 0
		}
	}

	copy(l.theta, best)
	return nil
}

// Predict the value immediately following a single window
func (l *LSTM) Predict(window [][]float64) (float64, error) {
	if l.theta == nil {
		return 0.0, ErrNotFitted
	}
	if len(window) == 0 {
		return 0.0, ErrNoInferenceWindow
	}
	if len(window[0]) != l.inputDim {
		return 0.0, fmt.Errorf("got %d features per row, but expected %d, %w", len(window[0]), l.inputDim, ErrWindowShapeMismatch)
	}
	return l.output(l.forward(window, nil)), nil
}

// LSTMWeights is a flat snapshot of the fitted parameters for export to an
// external serving layer.
type LSTMWeights struct {
	Units           int       `json:"units"`
	InputDim        int       `json:"input_dim"`
	SeqLen          int       `json:"seq_len"`
	InputKernel     []float64 `json:"input_kernel"`
	RecurrentKernel []float64 `json:"recurrent_kernel"`
	Bias            []float64 `json:"bias"`
	OutputWeights   []float64 `json:"output_weights"`
	OutputBias      float64   `json:"output_bias"`
}

// Weights returns a copy of the fitted parameters.
func (l *LSTM) Weights() *LSTMWeights {
	if l.theta == nil {
		return nil
	}
	snap := func(lo, hi int) []float64 {
		out := make([]float64, hi-lo)
		copy(out, l.theta[lo:hi])
		return out
	}
	return &LSTMWeights{
		Units:           l.opt.Units,
		InputDim:        l.inputDim,
		SeqLen:          l.seqLen,
		InputKernel:     snap(0, l.oWH),
		RecurrentKernel: snap(l.oWH, l.oB),
		Bias:            snap(l.oB, l.oWOut),
		OutputWeights:   snap(l.oWOut, l.oBOut),
		OutputBias:      l.theta[l.oBOut],
	}
}
