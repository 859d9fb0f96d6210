// Package shared holds helpers used across csvplot packages that do not
// belong to a single layer.
//
// The testutil subpackage provides a buffered slog handler for asserting on
// log output and small CSV fixtures shared by the dataset, chart, session and
// transport tests.
//
//	func TestSomething(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//	    ...
//	    testutil.AssertNoErrors(t, logs)
//	}
package shared
