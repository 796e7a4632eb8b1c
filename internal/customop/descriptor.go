package customop

import (
	"fmt"

	"github.com/born-ml/snn/internal/tensor"
)

// Domain is the operator domain the spiking operators register under.
const Domain = "custom.ops"

// Version is the operator set version of the spiking operators.
const Version = 1

// Names of the operators shipped with this module.
const (
	Heaviside                = "Heaviside"
	StraightThroughEstimator = "StraightThroughEstimator"
	FastSigmoid              = "FastSigmoid"
)

// OperatorID identifies a custom operator.
type OperatorID struct {
	Domain  string
	Name    string
	Version int
}

// ID returns the OperatorID of a spiking operator in the module's domain.
func ID(name string) OperatorID {
	return OperatorID{Domain: Domain, Name: name, Version: Version}
}

// String formats the id as domain::name@version.
func (id OperatorID) String() string {
	return fmt.Sprintf("%s::%s@%d", id.Domain, id.Name, id.Version)
}

// key identifies the backing source; version is not part of it.
func (id OperatorID) key() string {
	return id.Domain + "::" + id.Name
}

// Attributes are scalar operator attributes, e.g. "threshold" or "slope".
type Attributes map[string]float64

// Get returns the attribute value or def when it is absent.
func (a Attributes) Get(name string, def float64) float64 {
	if v, ok := a[name]; ok {
		return v
	}
	return def
}

// Descriptor describes one custom operator invocation.
// It lives for a single call and is not mutated by the dispatcher.
type Descriptor struct {
	ID             OperatorID
	Inputs         []*tensor.RawTensor
	ExampleOutputs []*tensor.RawTensor
	Attributes     Attributes
}

// Unary builds the descriptor used by the spiking operators: one input whose
// layout doubles as the example output.
func Unary(name string, input *tensor.RawTensor, attrs Attributes) Descriptor {
	return Descriptor{
		ID:             ID(name),
		Inputs:         []*tensor.RawTensor{input},
		ExampleOutputs: []*tensor.RawTensor{input},
		Attributes:     attrs,
	}
}
