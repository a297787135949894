package manifest

// Loader wraps a Codec[T] with structured logging for manifest load/save
// events — the one place external collaborators touch this module with
// ordinary file I/O, as opposed to the pure, log-free fracpack wire codec
// used for chain-facing data.
type Loader[T any] struct {
	Codec  Codec[T]
	Logger Logger
}

// NewLoader returns a Loader around codec. If logger is nil, logging is
// disabled.
func NewLoader[T any](codec Codec[T], logger Logger) *Loader[T] {
	if logger == nil {
		logger = NopLogger{}
	}
	return &Loader[T]{Codec: codec, Logger: logger}
}

// Load decodes data into a T, logging the outcome.
func (l *Loader[T]) Load(data []byte) (T, error) {
	v, err := l.Codec.Decode(data)
	if err != nil {
		l.Logger.Warn("manifest decode failed", Fields{"error": err.Error(), "bytes": len(data)})
		return v, err
	}
	l.Logger.Debug("manifest decoded", Fields{"bytes": len(data)})
	return v, nil
}

// Save encodes v, logging the outcome.
func (l *Loader[T]) Save(v T) ([]byte, error) {
	b, err := l.Codec.Encode(v)
	if err != nil {
		l.Logger.Warn("manifest encode failed", Fields{"error": err.Error()})
		return nil, err
	}
	l.Logger.Debug("manifest encoded", Fields{"bytes": len(b)})
	return b, nil
}
