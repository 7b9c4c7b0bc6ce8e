// Package httpseqtest runs httpseq documents as Go tests.
//
// Each YAML document in a directory becomes a subtest and each test in the
// document a nested subtest, so go test reports and filters them like any
// other test.
//
// # Basic Usage
//
// Point the documents at a running service:
//
//	func TestAPI(t *testing.T) {
//	    httpseqtest.RunDir(t, "testdata/docs", httpseqtest.Options{
//	        Target: "localhost:8080",
//	    })
//	}
//
// or at an http.Handler, which receives the requests in process:
//
//	func TestAPI(t *testing.T) {
//	    httpseqtest.RunDir(t, "testdata/docs", httpseqtest.Options{
//	        Handler: api.NewRouter(),
//	    })
//	}
//
// # Fixtures
//
// Documents name their fixtures in a top-level list. Register them in an
// arena shared by the run:
//
//	arena := suite.NewArena(nil)
//	arena.Register("database", func() suite.Fixture {
//	    return suite.FixtureFuncs{StartFunc: startDB, StopFunc: stopDB}
//	})
//	httpseqtest.RunDir(t, "testdata/docs", httpseqtest.Options{
//	    Handler: router,
//	    Arena:   arena,
//	})
//
// # Results
//
// Failed and errored tests fail their subtest with the failure message.
// Skipped tests are skipped. Expected failures pass and log the failure;
// unexpected successes fail.
package httpseqtest
