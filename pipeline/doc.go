// Copyright (c) AgentPipe Authors.
// Licensed under the MIT License.

/*
Package pipeline provides the workflow graph model, its connection rules,
and deterministic scheduling.

# Overview

A pipeline is a typed directed graph: nodes are stage instances of a
closed set of kinds, edges connect named ports on those nodes, and a
Schema (immutable configuration data built once at startup) defines
which kinds exist, which ports they expose, and which kind-to-kind
transitions are legal. Two schemas ship with the package as instances of
the same Schema type:

  - Staged: the strict seven-stage linear pipeline
    (query > routing > dispatch > cluster > collector > synthesis > result)
  - FreeForm: the loose prompt / agent / provider fan-out graph

# Core types and operations

  - Graph / Node / Edge: pure data plus accessor queries
  - Schema.IsLegal: edge legality as an exact transition lookup
  - Check: full-graph integrity (required kinds, config validators,
    port directions, transition legality, acyclicity); accumulates
    every problem
  - Order: deterministic topological order (Kahn)
  - Document: editor wire format with JSON/YAML round-trip

Graph construction never fails; Check decides runnability. Order must be
preceded by a passing Check but independently refuses cyclic input with
the same error code the checker reports, so the two can never disagree.
*/
package pipeline
