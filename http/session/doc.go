/*
Package session establishes and persists the session identity tied to every request.

A [Manager] resolves a session from the token a client presents in the "hs" cookie:
it verifies the token, loads the [Body] stored under the identifier the token wraps,
and validates that Body against the expiration window and the client's user agent and hostname.
Anything that fails leads to a newly generated identifier, unused in the [Store],
and a fresh Body.
Every call to [Manager.Start] persists the Body and signs a fresh token.

Three [Store] implementations are provided:

  - [MemoryStore], a map owned by the process
  - [FileStore], one JSON document per session in a directory
  - [FuncStore], delegating to externally supplied [Funcs], like [RedisFuncs]

[Manager.Run] periodically sweeps expired sessions out of the Store,
independent of validation during requests.
*/
package session
