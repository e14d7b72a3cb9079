package domain

// Code is a stable transmission error code.
type Code string

const (
	// Emitter errors
	CodeEmitterOff          Code = "E001"
	CodeEmitterEncoding     Code = "E002"
	CodeEmitterInvalidPulse Code = "E003"

	// Channel errors
	CodeChannelInoperative     Code = "C001"
	CodeChannelSignalLost      Code = "C002"
	CodeChannelFailure         Code = "C003"
	CodeChannelDistanceTooLong Code = "C004"

	// Relay errors
	CodeRelayInactive      Code = "R001"
	CodeRelayBattery       Code = "R002"
	CodeRelayQualityTooLow Code = "R003"

	// Receiver errors
	CodeReceiverInactive   Code = "X001"
	CodeReceiverWeakSignal Code = "X002"
	CodeReceiverCorruption Code = "X003"
	CodeReceiverChecksum   Code = "X004"
	CodeReceiverDecode     Code = "X005"

	// System errors
	CodeSystemNotConfigured Code = "S001"
	CodeComponentNotFound   Code = "S002"
)

var codeDescriptions = map[Code]string{
	CodeEmitterOff:             "emitter is switched off",
	CodeEmitterEncoding:        "message could not be encoded",
	CodeEmitterInvalidPulse:    "invalid pulse sequence",
	CodeChannelInoperative:     "channel is not operational",
	CodeChannelSignalLost:      "signal lost in channel",
	CodeChannelFailure:         "channel transmission failure",
	CodeChannelDistanceTooLong: "channel distance exceeds its range",
	CodeRelayInactive:          "relay is inactive",
	CodeRelayBattery:           "relay battery exhausted",
	CodeRelayQualityTooLow:     "signal quality insufficient",
	CodeReceiverInactive:       "receiver is inactive",
	CodeReceiverWeakSignal:     "signal too weak to receive",
	CodeReceiverCorruption:     "signal corruption detected",
	CodeReceiverChecksum:       "invalid checksum",
	CodeReceiverDecode:         "signal could not be decoded",
	CodeSystemNotConfigured:    "system is not configured",
	CodeComponentNotFound:      "component not found",
}

// Description returns the default human readable text for c.
func (c Code) Description() string {
	if d, ok := codeDescriptions[c]; ok {
		return d
	}
	return "unknown error"
}
