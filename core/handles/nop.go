package handles

// NopCache disables the cache tier; every lookup falls through to the
// store.
type NopCache struct{}

func NewNopCache() *NopCache { return &NopCache{} }

func (*NopCache) Get(string, int) (Record, bool) { return Record{}, false }
func (*NopCache) Put(Record)                     {}
func (*NopCache) Remove(string)                  {}

var _ Cache = (*NopCache)(nil)
