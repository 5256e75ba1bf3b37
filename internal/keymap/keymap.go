package keymap

import (
	"github.com/devkota-labs/ocr-dataset-builder/internal/session"
)

// Command is one pipeline operation reachable from the keyboard.
type Command string

const (
	CmdExtract    Command = "extract"
	CmdUndoBox    Command = "undo-box"
	CmdNextImage  Command = "next-image"
	CmdApprove    Command = "approve"
	CmdReject     Command = "reject"
	CmdToggleEdit Command = "toggle-edit"
	CmdPrev       Command = "navigate-prev"
	CmdNext       Command = "navigate-next"
)

// bindings maps (stage, key) to a command. Key names follow browser
// KeyboardEvent.key values so a web front end can forward events as-is.
var bindings = map[session.Stage]map[string]Command{
	session.StageAnnotate: {
		"s": CmdExtract,
		"u": CmdUndoBox,
		"n": CmdNextImage,
	},
	session.StageReview: {
		"a":          CmdApprove,
		"x":          CmdReject,
		"e":          CmdToggleEdit,
		"ArrowLeft":  CmdPrev,
		"ArrowRight": CmdNext,
	},
}

// Lookup resolves a key press for the given stage. Keys bound in another
// stage do not resolve.
func Lookup(stage session.Stage, key string) (Command, bool) {
	cmd, ok := bindings[stage][key]
	return cmd, ok
}
