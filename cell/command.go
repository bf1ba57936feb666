package cell

import "fmt"

// Command is a cell command byte. Values obtained from ParseCommand are always
// one of the constants below.
type Command uint8

// Fixed-length commands carry a 509-byte body; VERSIONS and commands >= 128
// carry a 2-byte length followed by that many bytes.
const (
	CmdPadding          Command = 0
	CmdCreate           Command = 1
	CmdCreated          Command = 2
	CmdRelay            Command = 3
	CmdDestroy          Command = 4
	CmdCreateFast       Command = 5
	CmdCreatedFast      Command = 6
	CmdVersions         Command = 7
	CmdNetInfo          Command = 8
	CmdRelayEarly       Command = 9
	CmdCreate2          Command = 10
	CmdCreated2         Command = 11
	CmdPaddingNegotiate Command = 12
	CmdVPadding         Command = 128
	CmdCerts            Command = 129
	CmdAuthChallenge    Command = 130
	CmdAuthenticate     Command = 131
)

var commandNames = map[Command]string{
	CmdPadding:          "PADDING",
	CmdCreate:           "CREATE",
	CmdCreated:          "CREATED",
	CmdRelay:            "RELAY",
	CmdDestroy:          "DESTROY",
	CmdCreateFast:       "CREATE_FAST",
	CmdCreatedFast:      "CREATED_FAST",
	CmdVersions:         "VERSIONS",
	CmdNetInfo:          "NETINFO",
	CmdRelayEarly:       "RELAY_EARLY",
	CmdCreate2:          "CREATE2",
	CmdCreated2:         "CREATED2",
	CmdPaddingNegotiate: "PADDING_NEGOTIATE",
	CmdVPadding:         "VPADDING",
	CmdCerts:            "CERTS",
	CmdAuthChallenge:    "AUTH_CHALLENGE",
	CmdAuthenticate:     "AUTHENTICATE",
}

// ParseCommand maps a wire byte to a Command. Bytes outside the known set
// (13-127, 132-255) fail with ErrInvalidCommand.
func ParseCommand(b byte) (Command, error) {
	c := Command(b)
	if _, ok := commandNames[c]; !ok {
		return 0, fmt.Errorf("%w: %d", ErrInvalidCommand, b)
	}
	return c, nil
}

// Valid reports whether c is a known command.
func (c Command) Valid() bool {
	_, ok := commandNames[c]
	return ok
}

// IsVariableLength reports whether cells with this command use a
// length-prefixed body.
func (c Command) IsVariableLength() bool {
	return IsVariableLength(uint8(c))
}

// ConnectionScoped reports whether the command applies to the whole
// connection and is sent with circuit ID 0.
func (c Command) ConnectionScoped() bool {
	switch c {
	case CmdPadding, CmdVersions, CmdNetInfo, CmdVPadding, CmdCerts, CmdAuthChallenge, CmdAuthenticate:
		return true
	}
	return false
}

func (c Command) String() string {
	if s, ok := commandNames[c]; ok {
		return s
	}
	return fmt.Sprintf("Command(%d)", uint8(c))
}

// IsVariableLength returns true for VERSIONS (7) and commands >= 128.
func IsVariableLength(cmd uint8) bool {
	return cmd == uint8(CmdVersions) || cmd >= 128
}
