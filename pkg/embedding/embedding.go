package embedding

import (
	"errors"
	"fmt"
	"sync"

	"github.com/pdevine/tensor"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

var DebugLog func(string, ...interface{})

var (
	ErrSequenceTooLong = errors.New("sequence longer than max sequence length")
	ErrTokenOutOfRange = errors.New("token id out of vocabulary range")
	ErrShape           = errors.New("tokens must be a non-empty rectangular batch")
	ErrOptions         = errors.New("invalid embedding options")
)

// Device names where a module's tables live, e.g. "cpu" or "cuda:0".
type Device string

const CPU Device = "cpu"

const LayerNormEps = 1e-8

type Options struct {
	VocabSize         int
	HiddenSize        int
	MaxSequenceLength int
	Dropout           float64
	PaddingIdx        int
}

func (o Options) withDefaults() Options {
	if o.HiddenSize == 0 {
		o.HiddenSize = 512
	}
	if o.MaxSequenceLength == 0 {
		o.MaxSequenceLength = 30
	}
	return o
}

func (o Options) validate() error {
	switch {
	case o.VocabSize <= 0:
		return fmt.Errorf("%w: vocab size must be greater than 0", ErrOptions)
	case o.HiddenSize <= 0:
		return fmt.Errorf("%w: hidden size must be greater than 0", ErrOptions)
	case o.MaxSequenceLength <= 0:
		return fmt.Errorf("%w: max sequence length must be greater than 0", ErrOptions)
	case o.Dropout < 0 || o.Dropout > 1:
		return fmt.Errorf("%w: dropout must be in [0, 1], got %g", ErrOptions, o.Dropout)
	case o.PaddingIdx < 0 || o.PaddingIdx >= o.VocabSize:
		return fmt.Errorf("%w: padding id %d outside vocabulary of %d", ErrOptions, o.PaddingIdx, o.VocabSize)
	}
	return nil
}

// WordAndPositionEmbedding sums a learned token embedding and a learned
// position embedding, normalizes the sum, applies dropout and zeroes every
// padding position.
//
// Forward only reads the tables, so it may run from several goroutines at
// once. Changing the mode or device while a Forward is running is not
// synchronized.
type WordAndPositionEmbedding struct {
	Words     *mat.Dense
	Positions *mat.Dense
	Norm      *LayerNorm

	opts     Options
	device   Device
	training bool

	rngMu   sync.Mutex
	dropout distuv.Bernoulli

	positions *positionCache
}

// New initializes both tables from N(0, 1) using src, with the padding row
// of the word table set to zero. A nil src draws from the global source.
func New(opts Options, src rand.Source) (*WordAndPositionEmbedding, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}

	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: src}

	words := mat.NewDense(opts.VocabSize, opts.HiddenSize, nil)
	fillRandom(words, normal)
	words.SetRow(opts.PaddingIdx, make([]float64, opts.HiddenSize))

	positions := mat.NewDense(opts.MaxSequenceLength, opts.HiddenSize, nil)
	fillRandom(positions, normal)

	if DebugLog != nil {
		DebugLog("built word and position embedding: vocab=%d hidden=%d max_length=%d dropout=%g",
			opts.VocabSize, opts.HiddenSize, opts.MaxSequenceLength, opts.Dropout)
	}

	return &WordAndPositionEmbedding{
		Words:     words,
		Positions: positions,
		Norm:      NewLayerNorm(opts.HiddenSize, LayerNormEps),
		opts:      opts,
		device:    CPU,
		positions: newPositionCache(DefaultPositionCacheSize),
	}, nil
}

func fillRandom(m *mat.Dense, dist distuv.Normal) {
	rows, cols := m.Dims()
	for i := 0; i < rows; i++ {
		row := m.RawRowView(i)
		for j := 0; j < cols; j++ {
			row[j] = dist.Rand()
		}
	}
}

func (e *WordAndPositionEmbedding) Options() Options { return e.opts }
func (e *WordAndPositionEmbedding) HiddenSize() int  { return e.opts.HiddenSize }
func (e *WordAndPositionEmbedding) Device() Device   { return e.device }
func (e *WordAndPositionEmbedding) Training() bool   { return e.training }

// To records a new placement. Position indices are cached per device.
func (e *WordAndPositionEmbedding) To(device Device) {
	e.device = device
}

// Train enables dropout, drawing masks from src.
func (e *WordAndPositionEmbedding) Train(src rand.Source) {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()

	e.training = true
	e.dropout = distuv.Bernoulli{P: 1 - e.opts.Dropout, Src: src}
}

// Eval disables dropout.
func (e *WordAndPositionEmbedding) Eval() {
	e.training = false
}

// Parameters lists the learned tables in a stable order for checkpointing.
func (e *WordAndPositionEmbedding) Parameters() *orderedmap.OrderedMap[string, mat.Matrix] {
	params := orderedmap.New[string, mat.Matrix]()
	params.Set("words.weight", e.Words)
	params.Set("positions.weight", e.Positions)
	params.Set("layer_norm.weight", e.Norm.Weight)
	params.Set("layer_norm.bias", e.Norm.Bias)
	return params
}

// Forward maps a [batch][length] matrix of token ids to a tensor of shape
// (batch, length, hidden).
func (e *WordAndPositionEmbedding) Forward(tokens [][]int) (*tensor.Dense, error) {
	batch, length, err := e.checkTokens(tokens)
	if err != nil {
		return nil, err
	}

	positions := e.positions.get(batch, length, e.device)
	hidden := e.opts.HiddenSize
	out := make([]float64, batch*length*hidden)

	training := e.training && e.opts.Dropout > 0
	if training {
		e.rngMu.Lock()
		defer e.rngMu.Unlock()
	}

	for b, row := range tokens {
		for t, id := range row {
			x := out[(b*length+t)*hidden : (b*length+t+1)*hidden]

			floats.AddTo(x, e.Words.RawRowView(id), e.Positions.RawRowView(positions[b][t]))

			e.Norm.Forward(x)

			if training {
				e.applyDropout(x)
			}

			// Padding is zeroed last so it carries nothing, whatever the
			// position table, norm or dropout produced.
			if id == e.opts.PaddingIdx {
				clear(x)
			}
		}
	}

	return tensor.New(tensor.WithShape(batch, length, hidden), tensor.WithBacking(out)), nil
}

func (e *WordAndPositionEmbedding) checkTokens(tokens [][]int) (int, int, error) {
	if len(tokens) == 0 || len(tokens[0]) == 0 {
		return 0, 0, ErrShape
	}

	length := len(tokens[0])
	for b, row := range tokens {
		if len(row) != length {
			return 0, 0, fmt.Errorf("%w: row %d has %d tokens, row 0 has %d", ErrShape, b, len(row), length)
		}
	}

	if length > e.opts.MaxSequenceLength {
		return 0, 0, fmt.Errorf("%w: got %d tokens, max %d", ErrSequenceTooLong, length, e.opts.MaxSequenceLength)
	}

	for b, row := range tokens {
		for t, id := range row {
			if id < 0 || id >= e.opts.VocabSize {
				return 0, 0, fmt.Errorf("%w: tokens[%d][%d] = %d, vocab size %d",
					ErrTokenOutOfRange, b, t, id, e.opts.VocabSize)
			}
		}
	}

	return len(tokens), length, nil
}

// applyDropout zeroes each element with the configured probability and
// rescales survivors by 1/(1-p). Callers hold rngMu.
func (e *WordAndPositionEmbedding) applyDropout(x []float64) {
	p := e.opts.Dropout
	if p >= 1 {
		clear(x)
		return
	}

	scale := 1 / (1 - p)
	for i := range x {
		if e.dropout.Rand() == 0 {
			x[i] = 0
		} else {
			x[i] *= scale
		}
	}
}
