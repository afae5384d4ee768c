// Package testutil provides reusable test fixtures for the Linen kernel:
// a recording StubComponent for lifecycle verification, a
// ProgressionComponent persistence fixture that round-trips through both
// save formats, and an EventRecorder for bus delivery assertions.
//
// All fixtures are safe for concurrent use. Semantic test data beyond the
// progression fixture belongs in the test package that needs it, not here.
package testutil
