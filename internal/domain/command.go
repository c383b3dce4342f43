package domain

type CommandType string

const (
	CommandTrace   CommandType = "trace"
	CommandHelp    CommandType = "help"
	CommandUnknown CommandType = "unknown"
)

func (c CommandType) String() string {
	return string(c)
}

func (c CommandType) IsValid() bool {
	switch c {
	case CommandTrace, CommandHelp, CommandUnknown:
		return true
	default:
		return false
	}
}
