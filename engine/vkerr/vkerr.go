// Package vkerr centralizes the error-kind taxonomy shared across the
// device, ring buffer, graph, and renderer packages, mirroring the single
// Result-to-string switch the teacher binding wrote once for VkResult.
package vkerr

import "errors"

// Kind-level sentinels. Call sites wrap these with fmt.Errorf("...: %w", ...)
// so errors.Is recovers the kind at any depth.
var (
	ErrInvalidHandle        = errors.New("vkerr: invalid handle")
	ErrUseAfterFree         = errors.New("vkerr: use after free")
	ErrOutOfDeviceMemory    = errors.New("vkerr: out of device memory")
	ErrOutOfHostMemory      = errors.New("vkerr: out of host memory")
	ErrSwapchainOutOfDate   = errors.New("vkerr: swapchain out of date")
	ErrSwapchainSuboptimal  = errors.New("vkerr: swapchain suboptimal")
	ErrDeviceLost           = errors.New("vkerr: device lost")
	ErrShaderLoadFailed     = errors.New("vkerr: shader load failed")
	ErrPipelineCompileFailed = errors.New("vkerr: pipeline compile failed")
	ErrResourceBindingMismatch = errors.New("vkerr: resource binding mismatch")
)

// ResultError wraps a raw Vulkan result code together with the name of the
// call that produced it, the way the teacher's Result type maps VkResult to
// an error string — generalized here to also classify the failure into one
// of the sentinels above.
type ResultError struct {
	Call string
	Code int32
	Kind error
}

func (e *ResultError) Error() string {
	if e.Kind != nil {
		return e.Call + ": " + e.Kind.Error()
	}
	return e.Call + ": vulkan result " + itoa(e.Code)
}

func (e *ResultError) Unwrap() error { return e.Kind }

func itoa(v int32) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [12]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Classify wraps a raw VK_ERROR_* style result code in a *ResultError whose
// Kind is one of this package's taxonomy sentinels. The returned error is
// never nil; its Kind is nil (an opaque, unclassified failure) when the
// code isn't one of the kinds this module distinguishes.
func Classify(call string, code int32) error {
	kind := classifyCode(code)
	return &ResultError{Call: call, Code: code, Kind: kind}
}

// These mirror the raw VkResult values handled in internal/vk/types.go.
const (
	vkErrorOutOfHostMemory   = -1
	vkErrorOutOfDeviceMemory = -2
	vkErrorDeviceLost        = -4
	vkSuboptimalKHR          = 1000001003
	vkErrorOutOfDateKHR      = -1000001004
)

func classifyCode(code int32) error {
	switch code {
	case vkErrorOutOfHostMemory:
		return ErrOutOfHostMemory
	case vkErrorOutOfDeviceMemory:
		return ErrOutOfDeviceMemory
	case vkErrorDeviceLost:
		return ErrDeviceLost
	case vkErrorOutOfDateKHR:
		return ErrSwapchainOutOfDate
	case vkSuboptimalKHR:
		return ErrSwapchainSuboptimal
	default:
		return nil
	}
}
