package nn

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"math/rand"
	"os"
	"sync"

	log "github.com/sirupsen/logrus"
	"gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

var (
	// ErrShapeMismatch means persisted parameters do not fit the model's shape,
	// typically because the vocabulary changed since they were written.
	ErrShapeMismatch = errors.New("nn: parameter shape mismatch")
	// ErrNotFound means no parameter file exists at the given path.
	ErrNotFound      = errors.New("nn: parameters not found")
	ErrInvalidConfig = errors.New("nn: invalid model config")
)

// RecommenderModel is a two-layer feed-forward classifier:
// input -> hidden (ReLU) -> output -> softmax.
type RecommenderModel struct {
	cfg Config

	// Parameters, row-major. Biases are 1xN rows.
	w0, b0 []float64
	w1, b1 []float64

	solver  gorgonia.Solver
	trained bool
	mu      sync.RWMutex
}

// Config holds model configuration
type Config struct {
	InputDim     int
	HiddenDim    int
	OutputDim    int
	LearningRate float64
	Seed         int64
}

// DefaultConfig returns the recommender architecture for a vocabulary of
// outputDim places.
func DefaultConfig(outputDim int) Config {
	return Config{
		InputDim:     5,
		HiddenDim:    10,
		OutputDim:    outputDim,
		LearningRate: 0.001,
		Seed:         42,
	}
}

// Validate checks the dimensions and learning rate
func (c Config) Validate() error {
	if c.InputDim < 1 || c.HiddenDim < 1 || c.OutputDim < 1 {
		return fmt.Errorf("%w: dims %dx%dx%d", ErrInvalidConfig, c.InputDim, c.HiddenDim, c.OutputDim)
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("%w: learning rate %v", ErrInvalidConfig, c.LearningRate)
	}
	return nil
}

// TrainOptions controls the optimisation loop. The zero value trains one
// epoch, one example at a time, in input order.
type TrainOptions struct {
	Epochs    int
	BatchSize int
	Shuffle   bool
	Seed      int64
}

func (o TrainOptions) withDefaults() TrainOptions {
	if o.Epochs < 1 {
		o.Epochs = 1
	}
	if o.BatchSize < 1 {
		o.BatchSize = 1
	}
	return o
}

// NewRecommenderModel creates a model with freshly initialised parameters
func NewRecommenderModel(cfg Config) (*RecommenderModel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m := &RecommenderModel{cfg: cfg}
	m.initWeights(rand.New(rand.NewSource(cfg.Seed)))
	m.solver = gorgonia.NewAdamSolver(gorgonia.WithLearnRate(cfg.LearningRate))

	return m, nil
}

// initWeights applies Xavier initialization to the weights and zeroes the biases
func (m *RecommenderModel) initWeights(rng *rand.Rand) {
	m.w0 = xavier(rng, m.cfg.InputDim, m.cfg.HiddenDim)
	m.b0 = make([]float64, m.cfg.HiddenDim)
	m.w1 = xavier(rng, m.cfg.HiddenDim, m.cfg.OutputDim)
	m.b1 = make([]float64, m.cfg.OutputDim)
}

func xavier(rng *rand.Rand, rows, cols int) []float64 {
	scale := math.Sqrt(2.0 / float64(rows+cols))
	backing := make([]float64, rows*cols)
	for i := range backing {
		backing[i] = (rng.Float64()*2 - 1) * scale
	}
	return backing
}

// graph is one compiled expression graph over the current parameters.
type graph struct {
	g      *gorgonia.ExprGraph
	x, y   *gorgonia.Node
	params gorgonia.Nodes
	probs  *gorgonia.Node
	loss   *gorgonia.Node
}

// buildGraph wires the forward pass for a fixed batch size. With withLoss set
// it also adds the cross-entropy loss and its symbolic gradients.
func (m *RecommenderModel) buildGraph(batch int, withLoss bool) (*graph, error) {
	g := gorgonia.NewGraph()
	gr := &graph{g: g}

	gr.x = gorgonia.NewMatrix(g, tensor.Float64,
		gorgonia.WithShape(batch, m.cfg.InputDim),
		gorgonia.WithName("x"),
	)

	w0 := m.paramNode(g, "w0", m.cfg.InputDim, m.cfg.HiddenDim, m.w0)
	b0 := m.paramNode(g, "b0", 1, m.cfg.HiddenDim, m.b0)
	w1 := m.paramNode(g, "w1", m.cfg.HiddenDim, m.cfg.OutputDim, m.w1)
	b1 := m.paramNode(g, "b1", 1, m.cfg.OutputDim, m.b1)
	gr.params = gorgonia.Nodes{w0, b0, w1, b1}

	// ones (batch x 1) times a 1xN bias row repeats the bias for every example
	onesBacking := make([]float64, batch)
	for i := range onesBacking {
		onesBacking[i] = 1
	}
	ones := gorgonia.NewMatrix(g, tensor.Float64,
		gorgonia.WithShape(batch, 1),
		gorgonia.WithName("ones"),
		gorgonia.WithValue(tensor.New(tensor.WithShape(batch, 1), tensor.WithBacking(onesBacking))),
	)

	hidden, err := affine(gr.x, w0, b0, ones)
	if err != nil {
		return nil, fmt.Errorf("layer 0: %w", err)
	}
	hidden, err = gorgonia.Rectify(hidden)
	if err != nil {
		return nil, fmt.Errorf("layer 0 relu: %w", err)
	}

	logits, err := affine(hidden, w1, b1, ones)
	if err != nil {
		return nil, fmt.Errorf("layer 1: %w", err)
	}

	gr.probs, err = gorgonia.SoftMax(logits, 1)
	if err != nil {
		return nil, fmt.Errorf("softmax: %w", err)
	}

	if !withLoss {
		return gr, nil
	}

	// y holds one-hot rows pre-scaled by 1/examples, so the summed product is
	// the mean cross-entropy and zero rows (padding) contribute nothing.
	gr.y = gorgonia.NewMatrix(g, tensor.Float64,
		gorgonia.WithShape(batch, m.cfg.OutputDim),
		gorgonia.WithName("y"),
	)

	logProbs, err := gorgonia.Log(gr.probs)
	if err != nil {
		return nil, err
	}
	picked, err := gorgonia.HadamardProd(gr.y, logProbs)
	if err != nil {
		return nil, err
	}
	total, err := gorgonia.Sum(picked)
	if err != nil {
		return nil, err
	}
	gr.loss, err = gorgonia.Neg(total)
	if err != nil {
		return nil, err
	}

	if _, err := gorgonia.Grad(gr.loss, gr.params...); err != nil {
		return nil, fmt.Errorf("gradient failed: %w", err)
	}
	return gr, nil
}

func (m *RecommenderModel) paramNode(g *gorgonia.ExprGraph, name string, rows, cols int, data []float64) *gorgonia.Node {
	backing := make([]float64, len(data))
	copy(backing, data)
	t := tensor.New(
		tensor.WithShape(rows, cols),
		tensor.WithBacking(backing),
	)
	return gorgonia.NewMatrix(g, tensor.Float64,
		gorgonia.WithShape(rows, cols),
		gorgonia.WithName(name),
		gorgonia.WithValue(t),
	)
}

// affine computes in*w + ones*b
func affine(in, w, b, ones *gorgonia.Node) (*gorgonia.Node, error) {
	xw, err := gorgonia.Mul(in, w)
	if err != nil {
		return nil, fmt.Errorf("mul: %w", err)
	}
	bias, err := gorgonia.Mul(ones, b)
	if err != nil {
		return nil, fmt.Errorf("bias: %w", err)
	}
	return gorgonia.Add(xw, bias)
}

// readParams copies the solver-updated node values back into the model.
func (m *RecommenderModel) readParams(params gorgonia.Nodes) {
	dst := [][]float64{m.w0, m.b0, m.w1, m.b1}
	for i, n := range params {
		copy(dst[i], n.Value().Data().([]float64))
	}
}

// Predict runs one forward pass and returns the probability of every class
func (m *RecommenderModel) Predict(features []float64) ([]float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(features) != m.cfg.InputDim {
		return nil, fmt.Errorf("expected %d features, got %d", m.cfg.InputDim, len(features))
	}

	gr, err := m.buildGraph(1, false)
	if err != nil {
		return nil, err
	}

	vm := gorgonia.NewTapeMachine(gr.g)
	defer vm.Close()

	input := make([]float64, len(features))
	copy(input, features)
	if err := gorgonia.Let(gr.x, tensor.New(tensor.WithShape(1, m.cfg.InputDim), tensor.WithBacking(input))); err != nil {
		return nil, fmt.Errorf("bind input: %w", err)
	}

	if err := vm.RunAll(); err != nil {
		return nil, fmt.Errorf("vm run failed: %w", err)
	}

	outVal := gr.probs.Value()
	if outVal == nil {
		return nil, fmt.Errorf("no output value")
	}

	data := outVal.Data().([]float64)
	result := make([]float64, len(data))
	copy(result, data)
	return result, nil
}

// Train fits the model on inputs and their class targets, performing one Adam
// step per batch. It returns the mean loss of the final epoch.
func (m *RecommenderModel) Train(inputs [][]float64, targets []int, opts TrainOptions) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(inputs) != len(targets) {
		return 0, fmt.Errorf("got %d inputs but %d targets", len(inputs), len(targets))
	}
	if len(inputs) == 0 {
		return 0, nil
	}
	for i, in := range inputs {
		if len(in) != m.cfg.InputDim {
			return 0, fmt.Errorf("input %d: expected %d features, got %d", i, m.cfg.InputDim, len(in))
		}
		if targets[i] < 0 || targets[i] >= m.cfg.OutputDim {
			return 0, fmt.Errorf("target %d out of range [0, %d)", targets[i], m.cfg.OutputDim)
		}
	}

	opts = opts.withDefaults()
	batch := opts.BatchSize
	if batch > len(inputs) {
		batch = len(inputs)
	}

	gr, err := m.buildGraph(batch, true)
	if err != nil {
		return 0, err
	}

	vm := gorgonia.NewTapeMachine(gr.g, gorgonia.BindDualValues(gr.params...))
	defer vm.Close()

	order := make([]int, len(inputs))
	for i := range order {
		order[i] = i
	}
	rng := rand.New(rand.NewSource(opts.Seed))

	var epochLoss float64
	for epoch := 0; epoch < opts.Epochs; epoch++ {
		if opts.Shuffle {
			rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		}

		totalLoss := 0.0
		for start := 0; start < len(order); start += batch {
			end := start + batch
			if end > len(order) {
				end = len(order)
			}

			xT, yT := m.batchTensors(inputs, targets, order[start:end], batch)
			if err := gorgonia.Let(gr.x, xT); err != nil {
				return 0, fmt.Errorf("bind inputs: %w", err)
			}
			if err := gorgonia.Let(gr.y, yT); err != nil {
				return 0, fmt.Errorf("bind targets: %w", err)
			}

			if err := vm.RunAll(); err != nil {
				return 0, fmt.Errorf("vm run failed: %w", err)
			}

			if scalar, ok := gr.loss.Value().Data().(float64); ok {
				totalLoss += scalar * float64(end-start)
			}

			if err := m.solver.Step(gorgonia.NodesToValueGrads(gr.params)); err != nil {
				return 0, fmt.Errorf("solver step failed: %w", err)
			}
			vm.Reset()
		}

		epochLoss = totalLoss / float64(len(order))
		log.WithFields(log.Fields{"epoch": epoch, "loss": epochLoss}).Debug("epoch complete")
	}

	m.readParams(gr.params)
	m.trained = true
	return epochLoss, nil
}

// batchTensors packs the selected examples into batch-sized tensors. Rows past
// len(idx) stay zero so a short final batch adds no loss or gradient.
func (m *RecommenderModel) batchTensors(inputs [][]float64, targets []int, idx []int, batch int) (*tensor.Dense, *tensor.Dense) {
	xs := make([]float64, batch*m.cfg.InputDim)
	ys := make([]float64, batch*m.cfg.OutputDim)
	weight := 1.0 / float64(len(idx))

	for row, i := range idx {
		copy(xs[row*m.cfg.InputDim:], inputs[i])
		ys[row*m.cfg.OutputDim+targets[i]] = weight
	}

	xT := tensor.New(tensor.WithShape(batch, m.cfg.InputDim), tensor.WithBacking(xs))
	yT := tensor.New(tensor.WithShape(batch, m.cfg.OutputDim), tensor.WithBacking(ys))
	return xT, yT
}

// IsTrained returns whether the model has been trained or loaded
func (m *RecommenderModel) IsTrained() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.trained
}

// Config returns the model configuration
func (m *RecommenderModel) Config() Config {
	return m.cfg
}

// layer is the persisted form of one parameter matrix.
type layer struct {
	Name string
	Rows int
	Cols int
	Data []float64
}

type snapshot struct {
	Layers []layer
}

func (m *RecommenderModel) layers() []layer {
	return []layer{
		{Name: "w0", Rows: m.cfg.InputDim, Cols: m.cfg.HiddenDim, Data: m.w0},
		{Name: "b0", Rows: 1, Cols: m.cfg.HiddenDim, Data: m.b0},
		{Name: "w1", Rows: m.cfg.HiddenDim, Cols: m.cfg.OutputDim, Data: m.w1},
		{Name: "b1", Rows: 1, Cols: m.cfg.OutputDim, Data: m.b1},
	}
}

// Save writes the parameters and their shapes to disk
func (m *RecommenderModel) Save(path string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return gob.NewEncoder(f).Encode(snapshot{Layers: m.layers()})
}

// Load replaces the parameters with those stored at path. The stored shapes
// must match the model's configuration exactly.
func (m *RecommenderModel) Load(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return err
	}
	defer f.Close()

	var data snapshot
	if err := gob.NewDecoder(f).Decode(&data); err != nil {
		return fmt.Errorf("decode parameters: %w", err)
	}

	want := m.layers()
	if len(data.Layers) != len(want) {
		return fmt.Errorf("%w: expected %d layers, found %d", ErrShapeMismatch, len(want), len(data.Layers))
	}
	for i, l := range data.Layers {
		w := want[i]
		if l.Name != w.Name || l.Rows != w.Rows || l.Cols != w.Cols || len(l.Data) != w.Rows*w.Cols {
			return fmt.Errorf("%w: layer %s is %dx%d, model expects %s %dx%d",
				ErrShapeMismatch, l.Name, l.Rows, l.Cols, w.Name, w.Rows, w.Cols)
		}
	}

	for i, dst := range [][]float64{m.w0, m.b0, m.w1, m.b1} {
		copy(dst, data.Layers[i].Data)
	}
	m.trained = true

	return nil
}
