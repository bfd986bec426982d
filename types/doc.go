// Copyright (c) AgentPipe Authors.
// Licensed under the MIT License.

/*
Package types provides shared type definitions for the AgentPipe engine.

types is the lowest-level package in the module. It depends on nothing
internal and supplies the error taxonomy used by pipeline, engine, and
invoke so those packages never need to import each other for error
handling.

Structural codes (MISSING_KIND, CYCLE_DETECTED, ...) are produced by the
integrity checker before a run starts; execution codes (INVOKE_FAILED,
TIMEOUT, ...) are produced while a run is in flight. INTERNAL_ERROR marks
invariant violations that indicate a defect rather than bad user input.
*/
package types
