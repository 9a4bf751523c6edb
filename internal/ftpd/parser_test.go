package ftpd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommandVerbOnly(t *testing.T) {
	verb, arg := parseCommand([]byte("PWD\r\n"))
	assert.Equal(t, VerbPWD, verb)
	assert.Equal(t, "", arg)
}

func TestParseCommandWithArgument(t *testing.T) {
	verb, arg := parseCommand([]byte("CWD /home/foo\r\n"))
	assert.Equal(t, VerbCWD, verb)
	assert.Equal(t, "/home/foo", arg)
}

func TestParseCommandUnknownVerb(t *testing.T) {
	verb, _ := parseCommand([]byte("QUIT\r\n"))
	assert.Equal(t, VerbUnknown, verb)
}

func TestParseCommandCaseSensitiveAliases(t *testing.T) {
	verb, arg := parseCommand([]byte("opts utf8 on\r\n"))
	assert.Equal(t, VerbOPTS, verb)
	assert.Equal(t, "utf8 on", arg)

	verb, _ = parseCommand([]byte("OPTS utf8 on\r\n"))
	assert.Equal(t, VerbUnknown, verb, "uppercase OPTS is not in the table, matches the source verbatim")
}

func TestParseCommandNoTrailingCRLF(t *testing.T) {
	verb, arg := parseCommand([]byte("STOR a.bin"))
	assert.Equal(t, VerbSTOR, verb)
	assert.Equal(t, "a.bin", arg)
}
