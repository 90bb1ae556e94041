//go:build onnx
// +build onnx

package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/sentence-vectors/svec/tensor"

	ort "github.com/yalue/onnxruntime_go"
)

type inputRole int

const (
	roleIDs inputRole = iota
	roleMask
	roleSegments
)

// ONNXInference runs a BERT-style encoder through ONNX Runtime. The session
// is created once and reused for every batch.
type ONNXInference struct {
	session    *ort.DynamicAdvancedSession
	inputRoles []inputRole
	outputName string
}

// NewONNXInference initializes ORT, probes the model IO and opens a session.
func NewONNXInference(modelPath string, opts ONNXOptions) (*ONNXInference, error) {
	if modelPath == "" {
		return nil, fmt.Errorf("onnx model path is required")
	}
	if !ort.IsInitialized() {
		if opts.SharedLibraryPath != "" {
			ort.SetSharedLibraryPath(opts.SharedLibraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("initialize onnx runtime: %w", err)
		}
	}
	ins, outs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("get IO info: %w", err)
	}

	var (
		inputNames []string
		roles      []inputRole
	)
	for _, ii := range ins {
		n := strings.ToLower(ii.Name)
		switch {
		case strings.Contains(n, InputIDsName) || n == "ids":
			inputNames, roles = append(inputNames, ii.Name), append(roles, roleIDs)
		case strings.Contains(n, AttentionMaskName) || n == "mask":
			inputNames, roles = append(inputNames, ii.Name), append(roles, roleMask)
		case strings.Contains(n, "token_type") || strings.Contains(n, "segment"):
			inputNames, roles = append(inputNames, ii.Name), append(roles, roleSegments)
		}
	}
	if len(inputNames) == 0 {
		return nil, fmt.Errorf("could not determine ONNX input names")
	}

	// Prefer last_hidden_state, else the first float output.
	var outputName string
	for _, oi := range outs {
		if oi.DataType != ort.TensorElementDataTypeFloat {
			continue
		}
		if oi.Name == LastHiddenName {
			outputName = oi.Name
			break
		}
		if outputName == "" {
			outputName = oi.Name
		}
	}
	if outputName == "" {
		return nil, fmt.Errorf("could not determine ONNX output name")
	}

	sessOpts, err := sessionOptions(opts)
	if err != nil {
		return nil, err
	}
	if sessOpts != nil {
		defer sessOpts.Destroy()
	}
	s, err := ort.NewDynamicAdvancedSession(modelPath, inputNames, []string{outputName}, sessOpts)
	if err != nil {
		return nil, fmt.Errorf("create onnx session: %w", err)
	}
	return &ONNXInference{session: s, inputRoles: roles, outputName: outputName}, nil
}

// sessionOptions returns nil for the default CPU provider.
func sessionOptions(opts ONNXOptions) (*ort.SessionOptions, error) {
	ep := opts.provider()
	if ep == "" || ep == "cpu" {
		return nil, nil
	}
	o, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("session options: %w", err)
	}
	var appendErr error
	switch ep {
	case "cuda":
		cu, err := ort.NewCUDAProviderOptions()
		if err != nil {
			o.Destroy()
			return nil, fmt.Errorf("cuda options: %w", err)
		}
		defer cu.Destroy()
		if len(opts.EPOptions) > 0 {
			if err := cu.Update(opts.EPOptions); err != nil {
				o.Destroy()
				return nil, fmt.Errorf("cuda options: %w", err)
			}
		}
		appendErr = o.AppendExecutionProviderCUDA(cu)
	case "tensorrt":
		trt, err := ort.NewTensorRTProviderOptions()
		if err != nil {
			o.Destroy()
			return nil, fmt.Errorf("tensorrt options: %w", err)
		}
		defer trt.Destroy()
		if len(opts.EPOptions) > 0 {
			if err := trt.Update(opts.EPOptions); err != nil {
				o.Destroy()
				return nil, fmt.Errorf("tensorrt options: %w", err)
			}
		}
		appendErr = o.AppendExecutionProviderTensorRT(trt)
	case "coreml":
		epOpts := opts.EPOptions
		if epOpts == nil {
			epOpts = map[string]string{}
		}
		appendErr = o.AppendExecutionProviderCoreMLV2(epOpts)
	case "dml":
		appendErr = o.AppendExecutionProviderDirectML(opts.DeviceID)
	default:
		o.Destroy()
		return nil, fmt.Errorf("unknown execution provider %q", opts.ExecutionProvider)
	}
	if appendErr != nil {
		o.Destroy()
		return nil, fmt.Errorf("append %s execution provider: %w", ep, appendErr)
	}
	return o, nil
}

func (o *ONNXInference) Infer(ctx context.Context, ids, mask, segments *tensor.Int64View) (*tensor.View, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	shape := ort.NewShape(int64(ids.Shape[0]), int64(ids.Shape[1]))
	sources := map[inputRole]*tensor.Int64View{roleIDs: ids, roleMask: mask, roleSegments: segments}

	inVals := make([]ort.Value, len(o.inputRoles))
	for i, role := range o.inputRoles {
		t, err := ort.NewTensor(shape, sources[role].Contiguous().Data)
		if err != nil {
			return nil, fmt.Errorf("input tensor %d: %w", i, err)
		}
		defer t.Destroy()
		inVals[i] = t
	}

	outs := []ort.Value{nil}
	if err := o.session.Run(inVals, outs); err != nil {
		return nil, fmt.Errorf("onnx run: %w", err)
	}
	defer outs[0].Destroy()

	t, ok := outs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected output type %T for %s", outs[0], o.outputName)
	}
	dims := t.GetShape()
	if len(dims) != 3 {
		return nil, fmt.Errorf("unexpected output rank %d for %s", len(dims), o.outputName)
	}
	data := make([]float32, len(t.GetData()))
	copy(data, t.GetData())
	return tensor.FromData(data, int(dims[0]), int(dims[1]), int(dims[2]))
}

// Close destroys the session.
func (o *ONNXInference) Close() error {
	if o.session == nil {
		return nil
	}
	err := o.session.Destroy()
	o.session = nil
	return err
}

// ONNXAvailable reports whether this binary was built with ONNX support.
func ONNXAvailable() bool { return true }
