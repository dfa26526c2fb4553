package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// SimuladoPayloadKey returns the cache key for a simulado with its full question set.
func (r *CacheKeyStruct) SimuladoPayloadKey(simuladoID string) string {
	return fmt.Sprintf("simulado:%s:payload", simuladoID)
}

var CacheKey = NewCacheKeyStruct()
