package native

import (
	"runtime"
	"sync"
	"unsafe"

	"github.com/go-webgpu/goffi/ffi"
	"github.com/go-webgpu/goffi/types"
	"github.com/pkg/errors"
)

// function is a resolved symbol with its prepared call interface.
type function struct {
	ptr unsafe.Pointer
	cif types.CallInterface
}

// ffiLibrary calls into a shared object through goffi, without cgo.
type ffiLibrary struct {
	path   string
	handle unsafe.Pointer

	mu  sync.Mutex
	fns map[string]*function
}

// Open loads a shared library with goffi. The handle is never released; it
// lives as long as the process.
func Open(path string) (Library, error) {
	handle, err := ffi.LoadLibrary(path)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	return &ffiLibrary{
		path:   path,
		handle: handle,
		fns:    make(map[string]*function),
	}, nil
}

func (l *ffiLibrary) Path() string {
	return l.path
}

// function resolves and caches a symbol.
func (l *ffiLibrary) function(name string, ret *types.TypeDescriptor, args ...*types.TypeDescriptor) (*function, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if fn, ok := l.fns[name]; ok {
		return fn, nil
	}

	ptr, err := ffi.GetSymbol(l.handle, name)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: symbol %s", l.path, name)
	}

	fn := &function{ptr: ptr}
	if err := ffi.PrepareCallInterface(&fn.cif, types.DefaultCall, ret, args); err != nil {
		return nil, errors.Wrapf(err, "%s: prepare %s", l.path, name)
	}
	l.fns[name] = fn
	return fn, nil
}

func (l *ffiLibrary) ABIVersion() (int32, error) {
	fn, err := l.function(ABIVersionSymbol, types.SInt32TypeDescriptor)
	if err != nil {
		return 0, err
	}

	var version int32
	if err := ffi.CallFunction(&fn.cif, fn.ptr, unsafe.Pointer(&version), nil); err != nil {
		return 0, errors.Wrapf(err, "%s: call %s", l.path, ABIVersionSymbol)
	}
	return version, nil
}

func (l *ffiLibrary) Forward(op string, x, y []float32, threshold, slope float32) (int32, error) {
	if len(x) == 0 {
		return 0, nil
	}
	name := ForwardSymbol(op)
	fn, err := l.function(name, types.SInt32TypeDescriptor,
		types.PointerTypeDescriptor, types.PointerTypeDescriptor,
		types.SInt64TypeDescriptor, types.FloatTypeDescriptor, types.FloatTypeDescriptor)
	if err != nil {
		return 0, err
	}

	xp, yp := unsafe.Pointer(&x[0]), unsafe.Pointer(&y[0])
	n := int64(len(x))
	args := []unsafe.Pointer{
		unsafe.Pointer(&xp), unsafe.Pointer(&yp),
		unsafe.Pointer(&n), unsafe.Pointer(&threshold), unsafe.Pointer(&slope),
	}

	var status int32
	err = ffi.CallFunction(&fn.cif, fn.ptr, unsafe.Pointer(&status), args)
	runtime.KeepAlive(x)
	runtime.KeepAlive(y)
	if err != nil {
		return 0, errors.Wrapf(err, "%s: call %s", l.path, name)
	}
	return status, nil
}

func (l *ffiLibrary) Backward(op string, x, gy, gx []float32, threshold, slope float32) (int32, error) {
	if len(x) == 0 {
		return 0, nil
	}
	name := BackwardSymbol(op)
	fn, err := l.function(name, types.SInt32TypeDescriptor,
		types.PointerTypeDescriptor, types.PointerTypeDescriptor, types.PointerTypeDescriptor,
		types.SInt64TypeDescriptor, types.FloatTypeDescriptor, types.FloatTypeDescriptor)
	if err != nil {
		return 0, err
	}

	xp, gyp, gxp := unsafe.Pointer(&x[0]), unsafe.Pointer(&gy[0]), unsafe.Pointer(&gx[0])
	n := int64(len(x))
	args := []unsafe.Pointer{
		unsafe.Pointer(&xp), unsafe.Pointer(&gyp), unsafe.Pointer(&gxp),
		unsafe.Pointer(&n), unsafe.Pointer(&threshold), unsafe.Pointer(&slope),
	}

	var status int32
	err = ffi.CallFunction(&fn.cif, fn.ptr, unsafe.Pointer(&status), args)
	runtime.KeepAlive(x)
	runtime.KeepAlive(gy)
	runtime.KeepAlive(gx)
	if err != nil {
		return 0, errors.Wrapf(err, "%s: call %s", l.path, name)
	}
	return status, nil
}
