// Package matching assigns gift recipients for an exchange.
//
// The Engine produces a uniformly random derangement of the participant
// list: every participant gives to exactly one other participant and
// receives from exactly one other participant, and nobody draws
// themselves. It holds no state between calls and never touches storage;
// persisting the result is the caller's job.
package matching
