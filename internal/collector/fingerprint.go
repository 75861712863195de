package collector

import (
	"fmt"
	"math"
	"strconv"

	"github.com/nao1215/vpnsentry/internal/model"
)

// ReadHostAttributes returns the static attributes of h a fingerprint is
// derived from. Unknown attributes are empty strings.
func ReadHostAttributes(userAgent string, h Host) model.Attributes {
	attrs := model.Attributes{
		UserAgent: userAgent,
		Languages: ReadEnvironment(h).Languages,
		Platform:  h.Platform(),
		Vendor:    h.Vendor(),
	}

	if w, ht, ok := h.TerminalSize(); ok {
		attrs.ScreenResolution = fmt.Sprintf("%dx%d", w, ht)
	}
	if n := h.CoreCount(); n > 0 {
		attrs.CoreCount = strconv.Itoa(n)
	}
	if mem := h.TotalMemory(); mem > 0 {
		attrs.DeviceMemory = strconv.Itoa(int(math.Max(1, math.Round(float64(mem)/(1<<30)))))
	}

	return attrs
}

// Fingerprint reads the attributes of h and derives its fingerprint.
func Fingerprint(userAgent string, h Host) model.Fingerprint {
	return model.NewFingerprint(ReadHostAttributes(userAgent, h))
}
