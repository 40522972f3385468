// Package tasks runs asynchronous batch uploads of DNA sequences.
//
// # Lifecycle
//
// [Coordinator.Submit] creates a batch row in the initiated state and returns its id
// immediately. The raw sequences are queued for a fixed pool of workers started by
// [Coordinator.Run]. A worker then:
//
//  1. Archives the submitted payload when an [Archiver] is configured (failures are logged only)
//  2. Bulk-upserts the sequences through the [SequenceUpserter]
//  3. Associates the newly inserted sequences and marks the batch completed via [BatchStore]
//
// Any error or panic along the way leaves the batch failed. Clients learn the outcome
// by polling the batch status.
//
// # Backpressure
//
// The queue is bounded. When it is full, Submit marks the new batch failed and returns
// [ErrQueueFull] along with its id.
//
// # Shutdown
//
// Cancelling the context passed to Run stops intake; batches already queued are drained
// before Run returns. A process crash while a batch is queued leaves it initiated.
package tasks
