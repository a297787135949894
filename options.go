package fracpack

// Options tune a Codec's behavior. The zero value is ready to use; every
// field has a sensible default.
type Options struct {
	// MaxDepth bounds how deeply records and sequences may nest in a value
	// being encoded, decoded or verified; a record found deeper fails with
	// TooDeep. Options do not add a level. Guards against adversarial
	// inputs. 0 => 64.
	MaxDepth int

	// MaxBufferSize bounds the length of a buffer accepted by Unmarshal or
	// Verify. 0 => 64 MiB.
	MaxBufferSize int
}

const (
	defaultMaxDepth      = 64
	defaultMaxBufferSize = 64 << 20
)

func (o Options) withDefaults() Options {
	o.MaxDepth = coalesce(o.MaxDepth, defaultMaxDepth)
	o.MaxBufferSize = coalesce(o.MaxBufferSize, defaultMaxBufferSize)
	return o
}
