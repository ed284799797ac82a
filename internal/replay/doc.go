// Package replay drains the mutation queue against the remote actor.
//
// Engine.ProcessQueue runs one drain pass: entries are attempted strictly in
// insertion order, one call at a time, each at most once per pass. Successes
// are dequeued and invalidate their cache views; failures are classified as
// retryable (retry counter bumped) or permanent (marked failed). An entry whose
// counter already reached MaxRetries is marked failed instead of attempted.
//
// Runner decides when passes happen: on every unavailable -> available
// transition of the connection and on explicit Trigger calls. There is no
// timer-driven re-drain.
package replay
