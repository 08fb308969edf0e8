package workspace

// Package workspace owns the scratch directory of one pipeline invocation:
// deterministic naming from the dedup key (or a random name in ephemeral
// mode), the engine cache directory, an advisory lock, and best-effort teardown.
