package fracpack

// Extensible marks a record as forward/backward compatible. Embed it as the
// struct's first (anonymous) field:
//
//	type TransactionHeader struct {
//		fracpack.Extensible
//		Expiration uint32
//		RefBlock   uint32
//	}
//
// An extensible record's fixed region is preceded on the wire by a u16
// little-endian byte count of that fixed region (design note OQ4). A reader
// built against an older schema (fewer trailing fields) decodes only its
// own known fields and skips the remaining declared fixed-region bytes
// before resuming at the heap cursor; a reader built against a newer schema
// reading an older record's bytes finds its new trailing fields absent
// (their zero value). Because its size isn't fixed across schema versions,
// an extensible record is always reached through an offset slot, even when
// every field it currently declares is itself fixed-size.
type Extensible struct{}
