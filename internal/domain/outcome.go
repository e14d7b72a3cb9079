package domain

// Outcome is the result of one hop, or of a whole chain walk.
// A failed outcome may still carry a degraded signal.
type Outcome struct {
	Succeeded    bool     `json:"succeeded"`
	ErrorMessage string   `json:"error_message,omitempty"`
	ErrorCode    Code     `json:"error_code,omitempty"`
	Signal       *Signal  `json:"signal,omitempty"`
	LatencyMs    *float64 `json:"latency_ms,omitempty"`
}

// Success builds a successful outcome carrying sig.
func Success(sig Signal) Outcome {
	return Outcome{Succeeded: true, Signal: &sig}
}

// Failure builds a failed outcome without a signal.
func Failure(code Code, message string) Outcome {
	return Outcome{ErrorCode: code, ErrorMessage: message}
}

// WithLatency returns a copy with the latency set.
func (o Outcome) WithLatency(ms float64) Outcome {
	o.LatencyMs = &ms
	return o
}

// Latency returns the latency or zero when none was recorded.
func (o Outcome) Latency() float64 {
	if o.LatencyMs == nil {
		return 0
	}
	return *o.LatencyMs
}

// Err returns the outcome failure as an error, or nil when it succeeded.
func (o Outcome) Err() error {
	if o.Succeeded {
		return nil
	}
	return &TransmissionError{Code: o.ErrorCode, Message: o.ErrorMessage}
}
