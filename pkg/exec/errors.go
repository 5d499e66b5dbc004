package exec

import (
	"encoding/json"
	"fmt"

	"github.com/flanksource/clicky"
	"github.com/flanksource/clicky/api"
)

// PhaseError is satisfied by every pipeline error type (ResolveError,
// EnsureError, PrepareError, ExecuteError). It lets callers render a
// failure the same way regardless of which phase produced it, and
// surface the enumerated Kind + Context the spec's --json shape
// requires (phase, kind, message, context).
type PhaseError interface {
	error
	Phase() string
	Kind() string
	Context() map[string]string
	Hint() string
}

func (e *ResolveError) Phase() string          { return "resolve" }
func (e *ResolveError) Kind() string           { return string(e.Kind_) }
func (e *ResolveError) Context() map[string]string { return e.Context_ }

func (e *EnsureError) Phase() string          { return "ensure" }
func (e *EnsureError) Kind() string           { return string(e.Kind_) }
func (e *EnsureError) Context() map[string]string { return e.Context_ }

func (e *PrepareError) Phase() string          { return "prepare" }
func (e *PrepareError) Kind() string           { return string(e.Kind_) }
func (e *PrepareError) Context() map[string]string { return e.Context_ }

func (e *ExecuteError) Phase() string          { return "execute" }
func (e *ExecuteError) Kind() string           { return string(e.Kind_) }
func (e *ExecuteError) Context() map[string]string { return e.Context_ }

// Hint returns kind-specific guidance, falling back to a generic
// phase-level suggestion for kinds that don't warrant one.
func (e *ResolveError) Hint() string {
	switch e.Kind_ {
	case RuntimeNotFound:
		return "run `vx list` to see every registered runtime name and alias"
	case VersionNotFound:
		return "run `vx info " + e.Runtime + "` to see what's actually available"
	case NoLockedVersion:
		return "run `vx lock` to create a vx-lock.yaml entry, or unset settings.require_lock"
	case DependencyCycle:
		return "break the cycle in the runtimes' dependencies: entries"
	case PlatformNotSupported:
		return "this runtime has no asset_patterns entry for " + e.Context_["platform"]
	default:
		return "check the version constraint and that " + e.Runtime + " is registered"
	}
}

func (e *EnsureError) Hint() string {
	switch e.Kind_ {
	case AutoInstallDisabled:
		return fmt.Sprintf("run `vx install %s@%s` explicitly, or enable settings.auto_install", e.Runtime, e.Version)
	case NotInstalled:
		return e.Context_["hint"]
	case DependencyInstallFailed:
		return fmt.Sprintf("installing %s (required by %s) failed; see the error above", e.Context_["host"], e.Runtime)
	case DownloadFailed:
		return "check network connectivity, or retry with --refresh"
	case EnsureTimeout:
		return "the install timed out; check network connectivity and retry"
	case NoVersionsFound:
		return "the version source may be unreachable; retry with --refresh or check --offline"
	default:
		return "try again with --refresh, or --offline if the network is the problem"
	}
}

func (e *PrepareError) Hint() string {
	switch e.Kind_ {
	case ProxyNotAvailable:
		return fmt.Sprintf("vx install %s", e.Context_["proxy"])
	case DependencyRequired:
		return e.Context_["hint"]
	case ExecutableNotFound:
		return fmt.Sprintf("expected a binary at %s; try `vx install %s --force`", e.Context_["path"], e.Runtime)
	case NoExecutable:
		return "the runtime may not be installed yet, or its proxy never activated it"
	case EnvironmentFailed:
		return "check the runtime's env_vars template for a bad placeholder"
	default:
		return "check the runtime's env_vars and path_entries for a bad template"
	}
}

func (e *ExecuteError) Hint() string {
	switch e.Kind_ {
	case ExecuteTimeout:
		return "retry with a longer --timeout"
	case Killed:
		return "the process didn't exit within the grace period after the signal"
	case BundleExecutionFailed:
		return fmt.Sprintf("confirm %s is available via its host runtime", e.Runtime)
	default:
		return "confirm the installed binary is actually executable for this platform"
	}
}

// Pretty renders a phase error as "error[phase:kind]: message" with a
// dim hint line underneath, the same shape as
// types.InstallResult.Pretty().
func Pretty(err PhaseError) api.Text {
	label := err.Phase()
	if kind := err.Kind(); kind != "" {
		label += ":" + kind
	}
	text := clicky.Text("").Append("error", "text-red-500").
		Append("[" + label + "]: ").
		Append(err.Error())
	if hint := err.Hint(); hint != "" {
		text = text.Append("\n  hint: ", "muted").Append(hint, "muted")
	}
	return text
}

// jsonError is the --json shape for a phase error, per spec §7:
// {"phase", "kind", "message", "context", "hint"}.
type jsonError struct {
	Phase   string            `json:"phase"`
	Kind    string            `json:"kind,omitempty"`
	Message string            `json:"message"`
	Context map[string]string `json:"context,omitempty"`
	Hint    string            `json:"hint,omitempty"`
}

func marshalPhaseErrorJSON(err PhaseError) ([]byte, error) {
	return json.Marshal(jsonError{
		Phase:   err.Phase(),
		Kind:    err.Kind(),
		Message: err.Error(),
		Context: err.Context(),
		Hint:    err.Hint(),
	})
}

// MarshalJSON implements json.Marshaler so a ResolveError serializes as
// {"phase":"resolve","kind":"RuntimeNotFound","message":"...","hint":"..."} under --json.
func (e *ResolveError) MarshalJSON() ([]byte, error) { return marshalPhaseErrorJSON(e) }

// MarshalJSON implements json.Marshaler for EnsureError.
func (e *EnsureError) MarshalJSON() ([]byte, error) { return marshalPhaseErrorJSON(e) }

// MarshalJSON implements json.Marshaler for PrepareError.
func (e *PrepareError) MarshalJSON() ([]byte, error) { return marshalPhaseErrorJSON(e) }

// MarshalJSON implements json.Marshaler for ExecuteError.
func (e *ExecuteError) MarshalJSON() ([]byte, error) { return marshalPhaseErrorJSON(e) }
