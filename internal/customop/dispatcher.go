package customop

import (
	"maps"
	"strconv"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/born-ml/snn/internal/autodiff/ops"
	"github.com/born-ml/snn/internal/tensor"
)

// Recorder receives custom operator invocations for backpropagation.
// autodiff.AutodiffBackend satisfies it.
type Recorder interface {
	Record(op ops.Operation)
}

// Dispatcher executes custom operator calls against a Registry.
type Dispatcher struct {
	registry *Registry
	recorder Recorder
	log      zerolog.Logger
}

// NewDispatcher creates a dispatcher. recorder may be nil, in which case calls
// are forward-only.
func NewDispatcher(registry *Registry, recorder Recorder, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		recorder: recorder,
		log:      log,
	}
}

// Registry returns the registry the dispatcher resolves operators from.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Call runs the operator named by desc and returns its outputs.
//
// Kernel errors are returned with the operator id attached; errors.Is still
// matches the kernel's own error values.
func (d *Dispatcher) Call(desc Descriptor) ([]*tensor.RawTensor, error) {
	if len(desc.Inputs) == 0 {
		return nil, errors.Wrapf(ErrNoInputs, "%s", desc.ID)
	}
	for i, in := range desc.Inputs {
		if in == nil {
			return nil, errors.Wrapf(ErrNoInputs, "%s: input %d is nil", desc.ID, i)
		}
	}
	for i, ex := range desc.ExampleOutputs {
		if ex == nil {
			return nil, &MismatchError{ID: desc.ID, Index: i, Reason: "example output", Want: "tensor", Got: "nil"}
		}
	}

	reg, err := d.registry.Lookup(desc.ID)
	if err != nil {
		return nil, err
	}

	// The recorded gradient closure must see the attributes of this call only.
	attrs := maps.Clone(desc.Attributes)
	inputs := append([]*tensor.RawTensor(nil), desc.Inputs...)

	outputs, err := reg.Kernel.Forward(inputs, attrs)
	if err != nil {
		return nil, errors.WithMessagef(err, "%s forward", desc.ID)
	}
	if err := validateOutputs(desc, outputs); err != nil {
		return nil, err
	}

	d.log.Debug().
		Stringer("op", desc.ID).
		Str("source", reg.Source).
		Int("elements", inputs[0].NumElements()).
		Msg("dispatched custom op")

	if d.recorder != nil {
		kernel := reg.Kernel
		d.recorder.Record(ops.NewCustomOp(desc.ID.Name, inputs, outputs,
			func(outputGrads []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
				return kernel.Backward(inputs, outputGrads, attrs)
			}))
	}

	return outputs, nil
}

// Call1 runs a single-output operator.
func (d *Dispatcher) Call1(desc Descriptor) (*tensor.RawTensor, error) {
	outputs, err := d.Call(desc)
	if err != nil {
		return nil, err
	}
	if len(outputs) == 0 {
		return nil, &MismatchError{ID: desc.ID, Reason: "output count", Want: "1", Got: "0"}
	}
	return outputs[0], nil
}

func validateOutputs(desc Descriptor, outputs []*tensor.RawTensor) error {
	if len(outputs) != len(desc.ExampleOutputs) {
		return &MismatchError{
			ID:     desc.ID,
			Index:  len(outputs),
			Reason: "output count",
			Want:   strconv.Itoa(len(desc.ExampleOutputs)),
			Got:    strconv.Itoa(len(outputs)),
		}
	}
	for i, want := range desc.ExampleOutputs {
		got := outputs[i]
		if got == nil || !got.SameLayout(want) {
			g := "nil"
			if got != nil {
				g = layout(got)
			}
			return &MismatchError{ID: desc.ID, Index: i, Reason: "layout", Want: layout(want), Got: g}
		}
	}
	return nil
}
