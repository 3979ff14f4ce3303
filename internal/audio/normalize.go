package audio

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
)

const FormatPCM = "pcm"

// Fragment is one unit of audio as received from the transport, before
// normalization. It is discarded once normalized.
type Fragment struct {
	Data   []byte
	Format string
}

// DecodeError reports a malformed transport encoding (bad base64 payload or
// truncated raw PCM). It is scoped to a single fragment.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode audio payload: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// CodecError reports an unsupported or corrupt audio container. Like
// DecodeError it is scoped to the fragment that caused it.
type CodecError struct {
	Format string
	Err    error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("decode %s audio: %v", e.Format, e.Err)
}

func (e *CodecError) Unwrap() error { return e.Err }

// Normalizer converts incoming fragments into mono float32 samples at a
// fixed rate with amplitude in [-1, 1].
type Normalizer struct {
	sampleRate int
	decoder    Decoder
	log        *slog.Logger
}

func NewNormalizer(sampleRate int, decoder Decoder, log *slog.Logger) *Normalizer {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	if log == nil {
		log = slog.Default()
	}
	return &Normalizer{
		sampleRate: sampleRate,
		decoder:    decoder,
		log:        log,
	}
}

func (n *Normalizer) SampleRate() int {
	return n.sampleRate
}

// DecodePayload turns the wire representation of an audio payload into raw
// bytes. Data-URL prefixes ("data:audio/...;base64,") are stripped before
// base64 decoding.
func (n *Normalizer) DecodePayload(data string) ([]byte, error) {
	if strings.HasPrefix(data, "data:audio") {
		if idx := strings.IndexByte(data, ','); idx >= 0 {
			data = data[idx+1:]
		}
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	return raw, nil
}

// Normalize converts a fragment into samples at the normalizer's rate.
//
// The "pcm" format is a pass-through: bytes are interpreted as little-endian
// float32 samples already mono and at the target rate. Anything else goes
// through the codec decoder, then is downmixed (mean across channels),
// rescaled to float32 by sample width, and resampled.
func (n *Normalizer) Normalize(ctx context.Context, frag Fragment) ([]float32, error) {
	if frag.Format == FormatPCM {
		if len(frag.Data)%4 != 0 {
			return nil, &DecodeError{Err: fmt.Errorf("pcm payload length %d is not a multiple of 4", len(frag.Data))}
		}
		return Float32FromBytes(frag.Data), nil
	}

	if n.decoder == nil {
		return nil, &CodecError{Format: frag.Format, Err: fmt.Errorf("no decoder configured")}
	}

	decoded, err := n.decoder.Decode(ctx, frag.Data, frag.Format)
	if err != nil {
		return nil, &CodecError{Format: frag.Format, Err: err}
	}

	samples := rescale(decoded)

	if decoded.Channels > 1 {
		samples = DownmixMono(samples, decoded.Channels)
	}

	if decoded.SampleRate != n.sampleRate {
		samples = Resample(samples, decoded.SampleRate, n.sampleRate)
	}

	return samples, nil
}

// rescale maps decoded integer samples onto [-1, 1] using width-specific
// divisors. Unknown widths are cast per byte without scaling, an escape
// hatch for decoders that already emit float data.
func rescale(decoded *Decoded) []float32 {
	switch decoded.SampleWidth {
	case 2:
		return Int16ToFloat32(PCMBytesToInt16(decoded.Data))
	case 4:
		return Int32ToFloat32(PCMBytesToInt32(decoded.Data))
	default:
		samples := make([]float32, len(decoded.Data))
		for i, b := range decoded.Data {
			samples[i] = float32(int8(b))
		}
		return samples
	}
}
