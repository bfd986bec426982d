// Copyright (c) AgentPipe Authors.
// Licensed under the MIT License.

/*
Package invoke defines the boundary to the remote agent service.

The engine never talks to agents directly; cluster and agent stages call
through the Invoker interface with an already-composed message, the agent
ids picked in the editor, and a resolved model identifier. HTTPInvoker is
the production implementation posting to the backend's /api/chat
endpoint, with optional cooldown throttling between calls. Tests supply
their own Invoker.
*/
package invoke
