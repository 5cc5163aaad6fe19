// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package backoff adapts code.hybscloud.com/iox's adaptive Backoff helper
// (used by sess's run.go and session.go dispatchWait) to the one place this
// runtime legitimately busy-retries: re-arming poller registrations after
// mfork's logical reinit, where a freshly recreated epoll fd may transiently
// reject EpollCtl with EAGAIN before the kernel settles.
package backoff

import "code.hybscloud.com/iox"

// Retry calls fn until it returns a nil error or an error that is not
// iox.ErrWouldBlock, backing off adaptively between attempts exactly as
// sess.dispatchWait backs off on a non-blocking dispatch.
func Retry(fn func() error) error {
	var bo iox.Backoff
	for {
		err := fn()
		if err == nil {
			return nil
		}
		if err != iox.ErrWouldBlock {
			return err
		}
		bo.Wait()
	}
}
