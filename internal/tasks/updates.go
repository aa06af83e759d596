package tasks

import "fmt"

// ProgressUpdate represents a progress event during a backup operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	Upload Phase = iota
	Skip
	ResolveAnchor
	FetchRemote
	Merge
	Failed
)

func (p Phase) String() string {
	switch p {
	case Upload:
		return "upload"
	case Skip:
		return "skip"
	case ResolveAnchor:
		return "resolve_anchor"
	case FetchRemote:
		return "fetch_remote"
	case Merge:
		return "merge"
	case Failed:
		return "failed"
	default:
		return ""
	}
}

func uploadingUpdate(reason Reason) ProgressUpdate {
	return ProgressUpdate{Phase: Upload, Step: 1, Total: 2, Message: fmt.Sprintf("Uploading backup (%s)...", reason)}
}

func uploadedUpdate(message string) ProgressUpdate {
	return ProgressUpdate{Phase: Upload, Step: 2, Total: 2, Message: "Backup uploaded: " + message}
}

func skippedUpdate(signature string) ProgressUpdate {
	return ProgressUpdate{Phase: Skip, Step: 1, Total: 1, Message: "Backup unchanged, skipping upload", Data: signature}
}

func resolvingAnchorUpdate(account string) ProgressUpdate {
	return ProgressUpdate{Phase: ResolveAnchor, Step: 1, Total: 3, Message: fmt.Sprintf("Resolving anchor for %s...", account)}
}

func fetchingRemoteUpdate(source string) ProgressUpdate {
	return ProgressUpdate{Phase: FetchRemote, Step: 1, Total: 2, Message: fmt.Sprintf("Fetching %s backup...", source)}
}

func mergedUpdate(data any) ProgressUpdate {
	return ProgressUpdate{Phase: Merge, Step: 2, Total: 2, Message: "Backup merged into local state", Data: data}
}

func failedUpdate(action string, err error) ProgressUpdate {
	return ProgressUpdate{Phase: Failed, Message: fmt.Sprintf("%s failed: %v", action, err), Data: err}
}
