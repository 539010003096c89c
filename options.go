package tablewire

import (
	"io"
	"log/slog"
	"time"

	"github.com/tablewire/telemetry-go/internal/protocol"
)

// Protocol defaults. IV seed and replay window are protocol parameters
// shared with the encoder side; override them only in lockstep with every
// deployed encoder.
const (
	// DefaultIVSeed is the configuration string the static CBC IV is
	// derived from.
	DefaultIVSeed = "tablewire-telemetry-iv"
	// DefaultReplayWindow is the maximum accepted envelope age.
	DefaultReplayWindow = protocol.ReplayWindow
	// DefaultIdentifierField is the plaintext field carrying the mandatory
	// business identifier.
	DefaultIdentifierField = "callId"
)

// ingestConfig holds configuration for the Ingestor.
type ingestConfig struct {
	ivSeed           string
	replayWindow     time.Duration
	identifierField  string
	strictSignatures bool
	clock            func() time.Time
	logger           *slog.Logger
}

// encoderConfig holds configuration for the Encoder.
type encoderConfig struct {
	ivSeed        string
	version       string
	omitSignature bool
	clock         func() time.Time
	saltSource    io.Reader
}

// Option configures the Ingestor.
type Option func(*ingestConfig)

// EncoderOption configures the Encoder.
type EncoderOption func(*encoderConfig)

// WithIVSeed sets the configuration string the static initialization vector
// is derived from. Both sides of the channel must use the same seed.
func WithIVSeed(seed string) Option {
	return func(c *ingestConfig) {
		c.ivSeed = seed
	}
}

// WithReplayWindow sets the maximum accepted age of an envelope's embedded
// issuance timestamp.
// Default: 5 minutes
func WithReplayWindow(window time.Duration) Option {
	return func(c *ingestConfig) {
		c.replayWindow = window
	}
}

// WithIdentifierField sets the plaintext field the mandatory business
// identifier is read from.
// Default: "callId"
func WithIdentifierField(name string) Option {
	return func(c *ingestConfig) {
		c.identifierField = name
	}
}

// WithStrictSignatures makes a signature mismatch terminal instead of
// advisory. This is a documented deviation from the original protocol
// policy, which logs the mismatch and continues; enable it only when every
// encoder is known to sign correctly.
func WithStrictSignatures() Option {
	return func(c *ingestConfig) {
		c.strictSignatures = true
	}
}

// WithClock sets the time source used for freshness checks and receipt
// timestamps. Intended for tests.
// Default: time.Now
func WithClock(clock func() time.Time) Option {
	return func(c *ingestConfig) {
		c.clock = clock
	}
}

// WithLogger sets the structured logger. The ingestor logs signature
// mismatches and nothing else.
// Default: slog.Default()
func WithLogger(logger *slog.Logger) Option {
	return func(c *ingestConfig) {
		c.logger = logger
	}
}

// WithEncoderIVSeed sets the IV seed used when sealing envelopes.
func WithEncoderIVSeed(seed string) EncoderOption {
	return func(c *encoderConfig) {
		c.ivSeed = seed
	}
}

// WithProtocolVersion overrides the _version value stamped into sealed
// payloads. The decoder treats it as advisory.
// Default: "1.0"
func WithProtocolVersion(version string) EncoderOption {
	return func(c *encoderConfig) {
		c.version = version
	}
}

// WithoutSignature seals envelopes without a signature. Decoders skip
// verification for unsigned envelopes; used to exercise that path.
func WithoutSignature() EncoderOption {
	return func(c *encoderConfig) {
		c.omitSignature = true
	}
}

// WithEncoderClock sets the time source for the _timestamp stamped into
// sealed payloads. Intended for tests.
// Default: time.Now
func WithEncoderClock(clock func() time.Time) EncoderOption {
	return func(c *encoderConfig) {
		c.clock = clock
	}
}

// WithSaltSource sets the randomness source for per-message salts.
// Intended for tests; production encoders must keep the default
// cryptographic source so that salts never repeat.
// Default: crypto/rand.Reader
func WithSaltSource(r io.Reader) EncoderOption {
	return func(c *encoderConfig) {
		c.saltSource = r
	}
}
