// Copyright (c) AgentPipe Authors.
// Licensed under the MIT License.

/*
Package engine executes validated pipelines.

# Overview

The Executor produces one node's output from its predecessors' outputs:
intake and configuration stages are pure local transforms, collector and
synthesis stages are pure merges, terminal stages are the identity with
an explicit no-output sentinel, and agent stages call the remote service
through invoke.Invoker, the single suspension point and the single
source of failure in a run.

The Coordinator orchestrates a whole run over a private snapshot of the
graph: integrity check first (structural problems refuse the run
outright), then a deterministic topological walk. A failing node aborts
only its descendants; unrelated branches still execute and their
outputs are returned. The Result carries every produced output plus
the full error list, so callers always see partial progress rather than
an opaque failure. One run owns one output map; concurrent runs of the
same graph each use their own Coordinator call and never share state.
*/
package engine
