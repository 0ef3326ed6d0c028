package codec

import (
	"fmt"
	"strings"

	"github.com/nar-io/telemetry-gateway/internal/ingest/types"
)

// imageFormatFromCode maps a 3-byte ASCII code to its canonical name.
// Unknown codes map to Unknown(<code>) rather than failing (spec.md §6.2).
func imageFormatFromCode(code string) types.ImageFormat {
	switch code {
	case "565":
		return types.ImageRGB565
	case "888":
		return types.ImageRGB888
	case "GS8":
		return types.ImageGrayscale8
	case "BIN":
		return types.ImageBinary1
	default:
		return types.ImageFormat(fmt.Sprintf("Unknown(%s)", code))
	}
}

// audioFormatFromCode maps a 3-byte ASCII code to its canonical name.
func audioFormatFromCode(code string) types.AudioFormat {
	switch code {
	case "PCM":
		return types.AudioPCM
	case "MP3":
		return types.AudioMP3
	case "AAC":
		return types.AudioAAC
	default:
		return types.AudioFormat(fmt.Sprintf("Unknown(%s)", code))
	}
}

// unknownCode extracts the original 3-byte code from an "Unknown(xyz)"
// rendering, for use by encoders reversing the format map.
func unknownCode(s string) (string, bool) {
	if strings.HasPrefix(s, "Unknown(") && strings.HasSuffix(s, ")") {
		return s[len("Unknown(") : len(s)-1], true
	}
	return "", false
}

func imageFormatToCode(f types.ImageFormat) (string, error) {
	switch f {
	case types.ImageRGB565:
		return "565", nil
	case types.ImageRGB888:
		return "888", nil
	case types.ImageGrayscale8:
		return "GS8", nil
	case types.ImageBinary1:
		return "BIN", nil
	}
	if code, ok := unknownCode(string(f)); ok && len(code) == 3 {
		return code, nil
	}
	return "", fmt.Errorf("unencodable image format %q", f)
}

func audioFormatToCode(f types.AudioFormat) (string, error) {
	switch f {
	case types.AudioPCM:
		return "PCM", nil
	case types.AudioMP3:
		return "MP3", nil
	case types.AudioAAC:
		return "AAC", nil
	}
	if code, ok := unknownCode(string(f)); ok && len(code) == 3 {
		return code, nil
	}
	return "", fmt.Errorf("unencodable audio format %q", f)
}
