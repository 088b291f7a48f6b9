//go:build tinygo

package stellaris

import (
	"runtime/volatile"
	"unsafe"
)

type mmio struct{}

func (mmio) Load(addr uintptr) uint32 {
	return volatile.LoadUint32((*uint32)(unsafe.Pointer(addr)))
}

func (mmio) Store(addr uintptr, v uint32) {
	volatile.StoreUint32((*uint32)(unsafe.Pointer(addr)), v)
}

// MMIO is the on-chip bus of the running part
var MMIO Bus = mmio{}
