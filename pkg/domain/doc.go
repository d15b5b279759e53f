/*
Package domain contains the core domain models of the tagbot dialogue engine.

It defines the vocabulary shared by the engine, the concrete bots and the
adapters: state identifiers, tags, finish reasons, handler signatures and the
persisted conversation snapshot. This package is kept pure and free of
external dependencies like I/O or persistence, following Hexagonal
Architecture principles.

# Key Entities

  - StateID: A named context the conversation is in.
  - Tag / TagCount: Labels extracted from a message and their counts.
  - EnterFunc / RespondFunc / FinishFunc: The per-state handler table.
  - Transitioner: The primitives a RespondFunc uses to move between states.
  - Snapshot: The per-conversation pointer persisted by session stores.
*/
package domain
