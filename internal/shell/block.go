package shell

// BlockFunc reports whether a command, given as its argument vector, must
// not run.
type BlockFunc func(args []string) bool

// CommandsBlocker blocks commands whose name is in cmds.
func CommandsBlocker(cmds []string) BlockFunc {
	blocked := make(map[string]struct{}, len(cmds))
	for _, c := range cmds {
		blocked[c] = struct{}{}
	}
	return func(args []string) bool {
		if len(args) == 0 {
			return false
		}
		_, ok := blocked[args[0]]
		return ok
	}
}

// BannedCommands are never needed by a formatter reading stdin and writing
// stdout.
var BannedCommands = []string{
	// Network
	"curl", "wget", "nc", "ncat", "scp", "sftp", "ssh", "telnet",
	// Privilege escalation
	"doas", "su", "sudo",
	// File and system modification
	"rm", "rmdir", "mv", "dd", "chmod", "chown", "mkfs", "mount", "umount",
	"crontab", "systemctl",
}

// DefaultBlockFuncs returns the blockers formatter commands run with.
func DefaultBlockFuncs() []BlockFunc {
	return []BlockFunc{CommandsBlocker(BannedCommands)}
}
