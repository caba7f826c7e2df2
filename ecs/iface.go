package ecs

import "unsafe"

// iface mirrors the runtime layout of an interface value so that the
// data pointer of a boxed *T can be read without reflection.
type iface struct {
	typ  unsafe.Pointer
	data unsafe.Pointer
}
