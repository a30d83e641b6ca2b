package app

// Command は起動モード。
type Command string

// サブコマンド。migrate-down は "migrate down" の正規化後の名前。
const (
	CommandServe       Command = "serve"
	CommandWorker      Command = "worker"
	CommandMigrate     Command = "migrate"
	CommandRollback    Command = "migrate-down"
	CommandHealthcheck Command = "healthcheck"
)

var commands = map[string]Command{
	"serve":       CommandServe,
	"worker":      CommandWorker,
	"migrate":     CommandMigrate,
	"healthcheck": CommandHealthcheck,
}

// ParseCommand は引数の先頭からサブコマンドを決める。
// 未指定・未知の値はserveとして扱う。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}
	cmd, ok := commands[args[0]]
	if !ok {
		return CommandServe
	}
	if cmd == CommandMigrate && len(args) > 1 && args[1] == "down" {
		return CommandRollback
	}
	return cmd
}
