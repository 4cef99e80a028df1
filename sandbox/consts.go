package sandbox

// reexecArg is the argv[1] sentinel that tells a freshly re-exec'd
// copy of the current binary to run the child bootstrap instead of
// the caller's normal main, the same pattern the pre-forked container
// model uses for its init process.
const reexecArg = "sandbox_child"

// Environment variables the parent sets for the re-exec'd child.
// These carry the ChildPayload across the fork/exec boundary, since
// the re-exec discards the parent's address space.
const (
	envExePath       = "CRUX_SANDBOX_EXE_PATH"
	envJailRoot      = "CRUX_SANDBOX_JAIL_ROOT"
	envInputPath     = "CRUX_SANDBOX_INPUT_PATH"
	envOutputPath    = "CRUX_SANDBOX_OUTPUT_PATH"
	envWhitelistPath = "CRUX_SANDBOX_WHITELIST_PATH"
	envUID           = "CRUX_SANDBOX_UID"
	envGID           = "CRUX_SANDBOX_GID"
	envVerbose       = "CRUX_SANDBOX_VERBOSE"
	envMemoryBytes   = "CRUX_SANDBOX_MEMORY_BYTES"
)

// Fixed fd numbers of the notification-channel ends inside the
// re-exec'd child. Deterministic because the parent always passes
// exactly these two *os.File values as Cmd.ExtraFiles, in this order,
// immediately after stdin/stdout/stderr (fds 0-2).
const (
	childParentEndFd = 3
	childChildEndFd  = 4
)

// outputFileMode is the explicit mode bit the original left
// unspecified; §9 requires callers to supply one.
const outputFileMode = 0o600
