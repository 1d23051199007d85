package graduate

import (
	"encoding/binary"
	"sync"

	"github.com/gagliardetto/solana-go"
	"solgraduate/pkg"
)

type derivedAddress struct {
	address solana.PublicKey
	bump    uint8
}

// CachingDeriver memoizes program address derivations. Safe for concurrent use.
type CachingDeriver struct {
	inner pkg.AddressDeriver
	mu    sync.RWMutex
	cache map[string]derivedAddress
}

func NewCachingDeriver(inner pkg.AddressDeriver) *CachingDeriver {
	if inner == nil {
		inner = pkg.ProgramAddressDeriver{}
	}
	return &CachingDeriver{
		inner: inner,
		cache: make(map[string]derivedAddress),
	}
}

func (d *CachingDeriver) FindProgramAddress(seeds [][]byte, programID solana.PublicKey) (solana.PublicKey, uint8, error) {
	key := cacheKey(seeds, programID)

	d.mu.RLock()
	cached, ok := d.cache[key]
	d.mu.RUnlock()
	if ok {
		return cached.address, cached.bump, nil
	}

	address, bump, err := d.inner.FindProgramAddress(seeds, programID)
	if err != nil {
		return solana.PublicKey{}, 0, err
	}

	d.mu.Lock()
	d.cache[key] = derivedAddress{address: address, bump: bump}
	d.mu.Unlock()
	return address, bump, nil
}

// Len reports the number of cached derivations
func (d *CachingDeriver) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.cache)
}

// cacheKey length-prefixes each seed so distinct seed splits never collide
func cacheKey(seeds [][]byte, programID solana.PublicKey) string {
	size := len(programID)
	for _, seed := range seeds {
		size += 1 + len(seed)
	}
	buf := make([]byte, 0, size)
	buf = append(buf, programID[:]...)
	for _, seed := range seeds {
		buf = binary.AppendUvarint(buf, uint64(len(seed)))
		buf = append(buf, seed...)
	}
	return string(buf)
}
