// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build race

package fiber_test

import "testing"

// skipRace skips tests whose millisecond-scale deadline assertions
// (msleep, choose-with-timeout, gocancel grace periods) are too tight for
// -race's scheduling slowdown to honor reliably.
func skipRace(tb testing.TB) {
	tb.Helper()
	tb.Skip("skip: millisecond deadline timing is unreliable under -race")
}
