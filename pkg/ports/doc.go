/*
Package ports defines the driven ports (interfaces) for the tagbot engine.

These interfaces decouple the core logic from external implementations, allowing
conversations to be served with various storage backends and word-list sources.

# Key Interfaces

  - StateStore: Persists and loads the per-conversation Snapshot.
  - DistributedLocker: Provides distributed locking for concurrent conversation access.
  - WordDetector: The flagged-word predicate used by concrete bots.
  - Responder: Anything that turns a message into a reply for a conversation.
*/
package ports
