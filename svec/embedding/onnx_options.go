package embedding

import "strings"

// ONNX model I/O names used by sentence-transformers exports.
const (
	InputIDsName      = "input_ids"
	AttentionMaskName = "attention_mask"
	TokenTypeIDsName  = "token_type_ids"
	LastHiddenName    = "last_hidden_state"
)

// ONNXOptions configures the ONNX Runtime session.
type ONNXOptions struct {
	// ExecutionProvider is "cuda", "tensorrt", "coreml", "dml" or "cpu".
	ExecutionProvider string
	// DeviceID is used by some EPs (e.g., DirectML).
	DeviceID int
	// EPOptions are provider-specific options for the selected EP.
	EPOptions map[string]string
	// SharedLibraryPath points at libonnxruntime when it is not on the default search path.
	SharedLibraryPath string
}

func (o ONNXOptions) provider() string {
	return strings.ToLower(strings.TrimSpace(o.ExecutionProvider))
}
