// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fiber

// Setcls stores p in the current fiber's single local-storage slot
// (spec.md §1 "coroutine-local storage ... trivial", §6 setcls/cls).
// Out of THE CORE's scope beyond this minimal slot; no registry, no
// destructors, no per-type storage.
func (rt *Runtime) Setcls(p any) {
	rt.current.cls = p
}

// Cls returns the current fiber's local-storage slot, or nil if unset.
func (rt *Runtime) Cls() any {
	return rt.current.cls
}
